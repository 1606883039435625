package gbuffer

import (
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Image bundles a GPU image with its memory allocation and the descriptor
// record used to sample it. Descriptor.ImageView holds the image's primary
// view and Descriptor.ImageLayout tracks the layout the image was last
// transitioned to.
type Image struct {
	Image      core1_0.Image
	Allocation *vam.Allocation
	Descriptor core1_0.DescriptorImageInfo
}

// Allocator creates and destroys the images a GBuffer owns. It is a borrowed
// collaborator: the GBuffer never closes it, and it must outlive every
// GBuffer using it.
type Allocator interface {
	// CreateImage creates an image from imageInfo, binds device memory to
	// it, and creates its primary view from viewInfo. The Image field of
	// viewInfo is filled in by the implementation.
	CreateImage(imageInfo core1_0.ImageCreateInfo, viewInfo core1_0.ImageViewCreateInfo) (Image, common.VkResult, error)
	// DestroyImage destroys the image's view and the image itself and
	// releases the backing memory.
	DestroyImage(image Image)
	// Device returns the device images are created on.
	Device() core1_0.Device
}
