package gbuffer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

// ResourceAllocator is the production Allocator implementation, backed by a
// vam memory allocator. Images are placed in device-local memory.
type ResourceAllocator struct {
	device core1_0.Device
	memory *vam.Allocator
	logger *slog.Logger
}

// NewResourceAllocator wraps a device and a vam allocator. Both are borrowed.
// A nil logger falls back to slog.Default().
func NewResourceAllocator(device core1_0.Device, memory *vam.Allocator, logger *slog.Logger) *ResourceAllocator {
	if logger == nil {
		logger = slog.Default()
	}

	return &ResourceAllocator{
		device: device,
		memory: memory,
		logger: logger,
	}
}

func (a *ResourceAllocator) Device() core1_0.Device { return a.device }

func (a *ResourceAllocator) CreateImage(imageInfo core1_0.ImageCreateInfo, viewInfo core1_0.ImageViewCreateInfo) (Image, common.VkResult, error) {
	a.logger.Debug("ResourceAllocator::CreateImage")

	image, res, err := a.device.CreateImage(nil, imageInfo)
	if err != nil {
		return Image{}, res, errors.Wrap(err, "gbuffer: creating image")
	}

	alloc := &vam.Allocation{}
	res, err = a.memory.AllocateMemoryForImage(image, vam.AllocationCreateInfo{
		Usage: vam.MemoryUsageAutoPreferDevice,
	}, alloc)
	if err != nil {
		image.Destroy(nil)
		return Image{}, res, errors.Wrap(err, "gbuffer: allocating image memory")
	}

	res, err = alloc.BindImageMemoryWithOffset(0, image, nil)
	if err != nil {
		_ = alloc.Free()
		image.Destroy(nil)
		return Image{}, res, errors.Wrap(err, "gbuffer: binding image memory")
	}

	viewInfo.Image = image
	view, res, err := a.device.CreateImageView(nil, viewInfo)
	if err != nil {
		_ = alloc.Free()
		image.Destroy(nil)
		return Image{}, res, errors.Wrap(err, "gbuffer: creating image view")
	}

	return Image{
		Image:      image,
		Allocation: alloc,
		Descriptor: core1_0.DescriptorImageInfo{
			ImageView:   view,
			ImageLayout: imageInfo.InitialLayout,
		},
	}, res, nil
}

func (a *ResourceAllocator) DestroyImage(image Image) {
	a.logger.Debug("ResourceAllocator::DestroyImage")

	if image.Descriptor.ImageView != nil {
		image.Descriptor.ImageView.Destroy(nil)
	}
	if image.Image != nil {
		image.Image.Destroy(nil)
	}
	if image.Allocation != nil {
		_ = image.Allocation.Free()
	}
}
