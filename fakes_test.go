package gbuffer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

// The fakes embed the binding's interfaces and override only the methods the
// package exercises; calling anything else nil-panics, which doubles as a
// "no unexpected GPU work" check.

type fakeImage struct {
	core1_0.Image
	id int
}

type fakeImageView struct {
	core1_0.ImageView
	id        int
	destroyed bool
}

func (v *fakeImageView) Destroy(callbacks *driver.AllocationCallbacks) {
	v.destroyed = true
}

type fakeSampler struct {
	core1_0.Sampler
}

type fakeDescriptorPool struct {
	core1_0.DescriptorPool
}

type fakeDescriptorSet struct {
	core1_0.DescriptorSet
	id    int
	freed bool
}

func (s *fakeDescriptorSet) Free() (common.VkResult, error) {
	s.freed = true
	return core1_0.VKSuccess, nil
}

type fakeDescriptorSetLayout struct {
	core1_0.DescriptorSetLayout
	destroyed bool
}

func (l *fakeDescriptorSetLayout) Destroy(callbacks *driver.AllocationCallbacks) {
	l.destroyed = true
}

// fakeDevice records view and descriptor traffic.
type fakeDevice struct {
	core1_0.Device

	waitIdleCalls int
	nextViewID    int
	failAllocSets bool

	views     []*fakeImageView
	viewInfos []core1_0.ImageViewCreateInfo
	layouts   []*fakeDescriptorSetLayout
	sets      []*fakeDescriptorSet
	writes    []core1_0.WriteDescriptorSet
}

func (d *fakeDevice) WaitIdle() (common.VkResult, error) {
	d.waitIdleCalls++
	return core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateImageView(allocationCallbacks *driver.AllocationCallbacks, o core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error) {
	d.nextViewID++
	view := &fakeImageView{id: d.nextViewID}
	d.views = append(d.views, view)
	d.viewInfos = append(d.viewInfos, o)
	return view, core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateDescriptorSetLayout(allocationCallbacks *driver.AllocationCallbacks, o core1_0.DescriptorSetLayoutCreateInfo) (core1_0.DescriptorSetLayout, common.VkResult, error) {
	layout := &fakeDescriptorSetLayout{}
	d.layouts = append(d.layouts, layout)
	return layout, core1_0.VKSuccess, nil
}

func (d *fakeDevice) AllocateDescriptorSets(o core1_0.DescriptorSetAllocateInfo) ([]core1_0.DescriptorSet, common.VkResult, error) {
	if d.failAllocSets {
		return nil, core1_0.VKErrorOutOfDeviceMemory, errors.New("out of pool memory")
	}

	sets := make([]core1_0.DescriptorSet, 0, len(o.SetLayouts))
	for range o.SetLayouts {
		set := &fakeDescriptorSet{id: len(d.sets)}
		d.sets = append(d.sets, set)
		sets = append(sets, set)
	}
	return sets, core1_0.VKSuccess, nil
}

func (d *fakeDevice) UpdateDescriptorSets(writes []core1_0.WriteDescriptorSet, copies []core1_0.CopyDescriptorSet) error {
	d.writes = append(d.writes, writes...)
	return nil
}

// fakeCommandBuffer records the initialization protocol in order.
type fakeCommandBuffer struct {
	core1_0.CommandBuffer

	// events holds "barrier", "clear-color", and "clear-depth" entries in
	// recording order.
	events      []string
	barriers    [][]core1_0.ImageMemoryBarrier
	colorClears []core1_0.Image
	depthClears []core1_0.Image
	stages      [][2]core1_0.PipelineStageFlags
}

func (c *fakeCommandBuffer) CmdPipelineBarrier(srcStageMask core1_0.PipelineStageFlags, dstStageMask core1_0.PipelineStageFlags, dependencies core1_0.DependencyFlags, memoryBarriers []core1_0.MemoryBarrier, bufferMemoryBarriers []core1_0.BufferMemoryBarrier, imageMemoryBarriers []core1_0.ImageMemoryBarrier) error {
	c.events = append(c.events, "barrier")
	c.barriers = append(c.barriers, imageMemoryBarriers)
	c.stages = append(c.stages, [2]core1_0.PipelineStageFlags{srcStageMask, dstStageMask})
	return nil
}

func (c *fakeCommandBuffer) CmdClearColorImage(image core1_0.Image, imageLayout core1_0.ImageLayout, color core1_0.ClearColorValue, ranges []core1_0.ImageSubresourceRange) {
	c.events = append(c.events, "clear-color")
	c.colorClears = append(c.colorClears, image)
}

func (c *fakeCommandBuffer) CmdClearDepthStencilImage(image core1_0.Image, imageLayout core1_0.ImageLayout, depthStencil *core1_0.ClearValueDepthStencil, ranges []core1_0.ImageSubresourceRange) {
	c.events = append(c.events, "clear-depth")
	c.depthClears = append(c.depthClears, image)
}

// imageRecord remembers what one CreateImage call produced.
type imageRecord struct {
	id        int
	imageInfo core1_0.ImageCreateInfo
	viewInfo  core1_0.ImageViewCreateInfo
	destroyed bool
}

// fakeAllocator hands out fake images and logs create/destroy ordering.
type fakeAllocator struct {
	device *fakeDevice

	records []*imageRecord
	// events holds "create N" / "destroy N" entries in call order.
	events []string
	// failAt makes the failAt-th CreateImage call (1-based) fail. Zero
	// disables failure injection.
	failAt int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{device: &fakeDevice{}}
}

func (a *fakeAllocator) Device() core1_0.Device { return a.device }

func (a *fakeAllocator) CreateImage(imageInfo core1_0.ImageCreateInfo, viewInfo core1_0.ImageViewCreateInfo) (Image, common.VkResult, error) {
	if a.failAt > 0 && len(a.records)+1 == a.failAt {
		return Image{}, core1_0.VKErrorOutOfDeviceMemory, errors.New("out of device memory")
	}

	record := &imageRecord{
		id:        len(a.records),
		imageInfo: imageInfo,
		viewInfo:  viewInfo,
	}
	a.records = append(a.records, record)
	a.events = append(a.events, fmt.Sprintf("create %d", record.id))

	a.device.nextViewID++
	return Image{
		Image: &fakeImage{id: record.id},
		Descriptor: core1_0.DescriptorImageInfo{
			ImageView:   &fakeImageView{id: a.device.nextViewID},
			ImageLayout: imageInfo.InitialLayout,
		},
	}, core1_0.VKSuccess, nil
}

func (a *fakeAllocator) DestroyImage(image Image) {
	if image.Image == nil {
		return
	}
	record := a.records[image.Image.(*fakeImage).id]
	record.destroyed = true
	a.events = append(a.events, fmt.Sprintf("destroy %d", record.id))
}

func (a *fakeAllocator) liveImages() int {
	live := 0
	for _, record := range a.records {
		if !record.destroyed {
			live++
		}
	}
	return live
}

// recordingNamer collects assigned debug names.
type recordingNamer struct {
	names []string
}

func (n *recordingNamer) SetObjectName(object any, name string) {
	n.names = append(n.names, name)
}
