package gbuffer

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

// Config describes a GBuffer. It is fixed for the life of one Init/Deinit
// cycle, except for SampleCount, which UpdateWithSampleCount may change.
type Config struct {
	// Allocator creates and destroys the attachment images. Required.
	Allocator Allocator

	// ColorFormats defines one color attachment per entry. May be empty.
	ColorFormats []core1_0.Format

	// DepthFormat adds a depth attachment; FormatUndefined disables it.
	DepthFormat core1_0.Format

	// SampleCount above Samples1 adds an MSAA sibling per color attachment.
	// Zero defaults to Samples1.
	SampleCount core1_0.SampleCountFlags

	// ImageSampler is attached to every color attachment's descriptor
	// record. Borrowed.
	ImageSampler core1_0.Sampler

	// DescriptorPool, when set, is used to allocate one combined-image-
	// sampler descriptor set per color attachment for UI consumption.
	// Borrowed. When nil, no descriptor sets are created.
	DescriptorPool core1_0.DescriptorPool

	// Namer labels created objects for debug tooling. Optional.
	Namer ObjectNamer

	// Logger receives debug logs for lifecycle operations. A nil Logger
	// falls back to slog.Default().
	Logger *slog.Logger
}

type resourceSet struct {
	color     []Image
	colorMSAA []Image
	depth     Image
	uiViews   []core1_0.ImageView
	uiSets    []core1_0.DescriptorSet
}

// GBuffer owns a set of color, MSAA color, and depth attachments sized to a
// common extent, together with the views and descriptor sets needed to
// render into and sample them. The zero value is an unconfigured GBuffer;
// call Init before use and Deinit before dropping it.
type GBuffer struct {
	info       Config
	size       core1_0.Extent2D
	res        resourceSet
	descLayout core1_0.DescriptorSetLayout
}

// Init stores the configuration. No GPU resource is allocated until the
// first Update establishes a non-zero extent. Calling Init on a GBuffer that
// has not been Deinit-ed since its last Init is a programming error and
// panics.
func (g *GBuffer) Init(config Config) {
	if g.info.Allocator != nil {
		panic("gbuffer: Init called on a configured GBuffer, missing Deinit")
	}
	if config.Allocator == nil {
		panic("gbuffer: Config.Allocator must not be nil")
	}

	if config.SampleCount == 0 {
		config.SampleCount = core1_0.Samples1
	}
	if config.Namer == nil {
		config.Namer = NoopNamer{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	g.info = config
}

// Deinit destroys all owned resources and returns the GBuffer to its
// pristine, Init-able state. Safe to call on a GBuffer that holds no
// resources.
func (g *GBuffer) Deinit() {
	g.deinitResources()
	g.res = resourceSet{}
	g.size = core1_0.Extent2D{}
	g.descLayout = nil

	g.info = Config{}
}

// TransferFrom relocates other's configuration and resources into g and
// leaves other pristine. g must itself be pristine: transferring into a
// GBuffer that still owns configuration or resources is a programming error
// and panics.
func (g *GBuffer) TransferFrom(other *GBuffer) {
	if g == other {
		return
	}
	if g.info.Allocator != nil {
		panic("gbuffer: TransferFrom called on a configured GBuffer, missing Deinit")
	}

	*g, *other = *other, GBuffer{}
}

// Update brings the resource set in line with newSize at the currently
// configured sample count. See UpdateWithSampleCount.
func (g *GBuffer) Update(cmd core1_0.CommandBuffer, newSize core1_0.Extent2D) (common.VkResult, error) {
	return g.UpdateWithSampleCount(cmd, newSize, g.info.SampleCount)
}

// UpdateWithSampleCount brings the resource set in line with newSize and
// newSampleCount. When both already match, it returns immediately without
// recording any GPU work. Otherwise it waits for the device to go idle,
// destroys the current resource set, and recreates it at the new extent,
// recording the initial clears and layout transitions into cmd, which must
// be an open command buffer the caller submits and waits on.
//
// A full device-idle wait is deliberately heavy; resizes are rare relative
// to per-frame work and it is the only way to guarantee the old images are
// no longer referenced by in-flight commands.
//
// On failure the resource set is left partially constructed and the GBuffer
// must be Deinit-ed (or Updated again) before further use.
func (g *GBuffer) UpdateWithSampleCount(cmd core1_0.CommandBuffer, newSize core1_0.Extent2D, newSampleCount core1_0.SampleCountFlags) (common.VkResult, error) {
	if g.info.Allocator == nil {
		panic("gbuffer: Update called on an unconfigured GBuffer")
	}

	if newSampleCount == 0 {
		newSampleCount = core1_0.Samples1
	}

	if newSize == g.size && newSampleCount == g.info.SampleCount {
		return core1_0.VKSuccess, nil
	}

	g.info.Logger.Debug("GBuffer::Update",
		slog.Int("width", newSize.Width),
		slog.Int("height", newSize.Height),
	)

	res, err := g.info.Allocator.Device().WaitIdle()
	if err != nil {
		return res, err
	}

	g.deinitResources()
	g.size = newSize
	g.info.SampleCount = newSampleCount

	if newSize.Width == 0 || newSize.Height == 0 {
		// Resources only exist for a real extent.
		return core1_0.VKSuccess, nil
	}

	return g.initResources(cmd)
}

// DescriptorSet returns the UI descriptor set for color attachment i. Valid
// only when a descriptor pool was configured.
func (g *GBuffer) DescriptorSet(i int) core1_0.DescriptorSet {
	return g.res.uiSets[i]
}

// Size returns the current extent, or the zero extent before the first
// successful Update.
func (g *GBuffer) Size() core1_0.Extent2D {
	return g.size
}

// ColorImage returns the image of color attachment i.
func (g *GBuffer) ColorImage(i int) core1_0.Image {
	return g.res.color[i].Image
}

// ColorMSAAImage returns the MSAA sibling of color attachment i. Valid only
// when the sample count is above Samples1.
func (g *GBuffer) ColorMSAAImage(i int) core1_0.Image {
	return g.res.colorMSAA[i].Image
}

// DepthImage returns the depth attachment's image. Valid only when a depth
// format is configured.
func (g *GBuffer) DepthImage() core1_0.Image {
	return g.res.depth.Image
}

// ColorImageView returns the primary view of color attachment i.
func (g *GBuffer) ColorImageView(i int) core1_0.ImageView {
	return g.res.color[i].Descriptor.ImageView
}

// RenderImageView returns the view a render pass should target for color
// attachment i: the MSAA view when multisampling is enabled, the primary
// view otherwise.
func (g *GBuffer) RenderImageView(i int) core1_0.ImageView {
	if g.info.SampleCount > core1_0.Samples1 && len(g.res.colorMSAA) > 0 {
		return g.res.colorMSAA[i].Descriptor.ImageView
	}
	return g.res.color[i].Descriptor.ImageView
}

// DescriptorImageInfo returns the sampling descriptor record of color
// attachment i, including its current layout.
func (g *GBuffer) DescriptorImageInfo(i int) core1_0.DescriptorImageInfo {
	return g.res.color[i].Descriptor
}

// DepthImageView returns the depth attachment's view. Valid only when a
// depth format is configured.
func (g *GBuffer) DepthImageView() core1_0.ImageView {
	return g.res.depth.Descriptor.ImageView
}

// ColorFormat returns the configured format of color attachment i.
func (g *GBuffer) ColorFormat(i int) core1_0.Format {
	return g.info.ColorFormats[i]
}

// DepthFormat returns the configured depth format, or FormatUndefined when
// no depth attachment is configured.
func (g *GBuffer) DepthFormat() core1_0.Format {
	return g.info.DepthFormat
}

// SampleCount returns the current sample count.
func (g *GBuffer) SampleCount() core1_0.SampleCountFlags {
	return g.info.SampleCount
}

// AspectRatio returns width divided by height, or 1.0 while the height is
// zero.
func (g *GBuffer) AspectRatio() float32 {
	if g.size.Height == 0 {
		return 1.0
	}
	return float32(g.size.Width) / float32(g.size.Height)
}
