package gbuffer

import (
	"fmt"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Color and depth attachments steady-state in a samplable layout so UI and
// post-process consumers can read them without a transition of their own.
const steadyStateLayout = core1_0.ImageLayoutShaderReadOnlyOptimal

var (
	colorRange = core1_0.ImageSubresourceRange{
		AspectMask:     core1_0.ImageAspectColor,
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	depthRange = core1_0.ImageSubresourceRange{
		AspectMask:     core1_0.ImageAspectDepth,
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
)

// initResources creates the full resource set for the current extent and
// sample count and records the initialization commands into cmd. Order
// matters: views reference images, descriptor sets reference views. On the
// first failure the partially built set is left in place for deinitResources
// to collect.
func (g *GBuffer) initResources(cmd core1_0.CommandBuffer) (common.VkResult, error) {
	device := g.info.Allocator.Device()
	isMSAA := g.info.SampleCount > core1_0.Samples1
	numColor := len(g.info.ColorFormats)

	g.res.color = make([]Image, numColor)
	g.res.uiViews = make([]core1_0.ImageView, numColor)
	if isMSAA {
		g.res.colorMSAA = make([]Image, numColor)
	}

	for c := 0; c < numColor; c++ {
		// Permissive usage so the attachment can serve as render target,
		// sampled texture, copy source/destination, and compute-writable
		// storage image without reallocation.
		imageInfo := core1_0.ImageCreateInfo{
			ImageType:   core1_0.ImageType2D,
			Format:      g.info.ColorFormats[c],
			Extent:      core1_0.Extent3D{Width: g.size.Width, Height: g.size.Height, Depth: 1},
			MipLevels:   1,
			ArrayLayers: 1,
			Samples:     core1_0.Samples1,
			Usage: core1_0.ImageUsageColorAttachment | core1_0.ImageUsageSampled |
				core1_0.ImageUsageTransferSrc | core1_0.ImageUsageTransferDst |
				core1_0.ImageUsageStorage,
		}
		viewInfo := core1_0.ImageViewCreateInfo{
			ViewType:         core1_0.ImageViewType2D,
			Format:           g.info.ColorFormats[c],
			SubresourceRange: colorRange,
		}

		img, res, err := g.info.Allocator.CreateImage(imageInfo, viewInfo)
		if err != nil {
			return res, err
		}
		g.res.color[c] = img
		g.info.Namer.SetObjectName(img.Image, fmt.Sprintf("G-Color%d", c))
		g.info.Namer.SetObjectName(img.Descriptor.ImageView, fmt.Sprintf("G-Color%d", c))

		// Secondary view for UI display with alpha forced to one, so the
		// attachment shows opaquely regardless of its backing alpha.
		uiViewInfo := viewInfo
		uiViewInfo.Image = img.Image
		uiViewInfo.Components.A = core1_0.ComponentSwizzleOne
		uiView, res, err := device.CreateImageView(nil, uiViewInfo)
		if err != nil {
			return res, err
		}
		g.res.uiViews[c] = uiView
		g.info.Namer.SetObjectName(uiView, fmt.Sprintf("UI G-Color%d", c))

		g.res.color[c].Descriptor.Sampler = g.info.ImageSampler

		if isMSAA {
			// Transient lets tile-based GPUs skip allocating backing store
			// where they can; transfer-dst is still needed for the initial
			// clear. Never sampled directly.
			msaaInfo := imageInfo
			msaaInfo.Samples = g.info.SampleCount
			msaaInfo.Usage = core1_0.ImageUsageColorAttachment |
				core1_0.ImageUsageTransientAttachment | core1_0.ImageUsageTransferDst

			msaaImg, res, err := g.info.Allocator.CreateImage(msaaInfo, viewInfo)
			if err != nil {
				return res, err
			}
			g.res.colorMSAA[c] = msaaImg
			g.info.Namer.SetObjectName(msaaImg.Image, fmt.Sprintf("G-Color-MSAA-%d", c))
			g.info.Namer.SetObjectName(msaaImg.Descriptor.ImageView, fmt.Sprintf("G-Color-MSAA-%d", c))
		}
	}

	if g.info.DepthFormat != core1_0.FormatUndefined {
		imageInfo := core1_0.ImageCreateInfo{
			ImageType:   core1_0.ImageType2D,
			Format:      g.info.DepthFormat,
			Extent:      core1_0.Extent3D{Width: g.size.Width, Height: g.size.Height, Depth: 1},
			MipLevels:   1,
			ArrayLayers: 1,
			Samples:     g.info.SampleCount,
			Usage: core1_0.ImageUsageDepthStencilAttachment | core1_0.ImageUsageSampled |
				core1_0.ImageUsageTransferSrc | core1_0.ImageUsageTransferDst,
		}
		viewInfo := core1_0.ImageViewCreateInfo{
			ViewType:         core1_0.ImageViewType2D,
			Format:           g.info.DepthFormat,
			SubresourceRange: depthRange,
		}

		img, res, err := g.info.Allocator.CreateImage(imageInfo, viewInfo)
		if err != nil {
			return res, err
		}
		g.res.depth = img
		g.info.Namer.SetObjectName(img.Image, "G-Depth")
		g.info.Namer.SetObjectName(img.Descriptor.ImageView, "G-Depth")
	}

	err := g.recordInitialLayouts(cmd)
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}

	if g.info.DescriptorPool != nil {
		return g.initDescriptorSets(device)
	}

	return core1_0.VKSuccess, nil
}

// recordInitialLayouts records the mandatory first-use protocol: every new
// image moves from the undefined layout to transfer-dst in one batch, gets
// cleared, then moves to its steady-state layout. Uninitialized image
// contents are undefined, so consumers must never observe an uncleared
// attachment.
func (g *GBuffer) recordInitialLayouts(cmd core1_0.CommandBuffer) error {
	isMSAA := len(g.res.colorMSAA) > 0

	toTransfer := make([]ImageBarrier, 0, 2*len(g.res.color)+1)
	for c := range g.res.color {
		toTransfer = append(toTransfer, ImageBarrier{
			Image:     g.res.color[c].Image,
			OldLayout: core1_0.ImageLayoutUndefined,
			NewLayout: core1_0.ImageLayoutTransferDstOptimal,
		})
		if isMSAA {
			toTransfer = append(toTransfer, ImageBarrier{
				Image:     g.res.colorMSAA[c].Image,
				OldLayout: core1_0.ImageLayoutUndefined,
				NewLayout: core1_0.ImageLayoutTransferDstOptimal,
			})
		}
	}
	if g.res.depth.Image != nil {
		toTransfer = append(toTransfer, ImageBarrier{
			Image:            g.res.depth.Image,
			OldLayout:        core1_0.ImageLayoutUndefined,
			NewLayout:        core1_0.ImageLayoutTransferDstOptimal,
			SubresourceRange: depthRange,
		})
	}

	err := CmdImageBarriers(cmd, toTransfer)
	if err != nil {
		return err
	}

	clearColor := core1_0.ClearValueFloat{0, 0, 0, 0}
	for c := range g.res.color {
		cmd.CmdClearColorImage(g.res.color[c].Image, core1_0.ImageLayoutTransferDstOptimal,
			clearColor, []core1_0.ImageSubresourceRange{colorRange})

		if isMSAA {
			cmd.CmdClearColorImage(g.res.colorMSAA[c].Image, core1_0.ImageLayoutTransferDstOptimal,
				clearColor, []core1_0.ImageSubresourceRange{colorRange})
		}
	}
	if g.res.depth.Image != nil {
		cmd.CmdClearDepthStencilImage(g.res.depth.Image, core1_0.ImageLayoutTransferDstOptimal,
			&core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			[]core1_0.ImageSubresourceRange{depthRange})
	}

	toFinal := make([]ImageBarrier, 0, len(toTransfer))
	for c := range g.res.color {
		toFinal = append(toFinal, ImageBarrier{
			Image:     g.res.color[c].Image,
			OldLayout: core1_0.ImageLayoutTransferDstOptimal,
			NewLayout: steadyStateLayout,
		})
		g.res.color[c].Descriptor.ImageLayout = steadyStateLayout

		if isMSAA {
			// Ready to be rendered into; the MSAA image is resolved, not
			// sampled, so it never needs the read-only layout.
			toFinal = append(toFinal, ImageBarrier{
				Image:     g.res.colorMSAA[c].Image,
				OldLayout: core1_0.ImageLayoutTransferDstOptimal,
				NewLayout: core1_0.ImageLayoutColorAttachmentOptimal,
			})
			g.res.colorMSAA[c].Descriptor.ImageLayout = core1_0.ImageLayoutColorAttachmentOptimal
		}
	}
	if g.res.depth.Image != nil {
		toFinal = append(toFinal, ImageBarrier{
			Image:            g.res.depth.Image,
			OldLayout:        core1_0.ImageLayoutTransferDstOptimal,
			NewLayout:        core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			SubresourceRange: depthRange,
		})
		g.res.depth.Descriptor.ImageLayout = core1_0.ImageLayoutDepthStencilAttachmentOptimal
	}

	return CmdImageBarriers(cmd, toFinal)
}

// initDescriptorSets creates the combined-image-sampler layout shared by all
// attachments and allocates one descriptor set per color attachment from the
// configured pool, pointing each at the attachment's UI view.
func (g *GBuffer) initDescriptorSets(device core1_0.Device) (common.VkResult, error) {
	numColor := len(g.info.ColorFormats)
	if numColor == 0 {
		return core1_0.VKSuccess, nil
	}

	layout, res, err := device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageFragment,
			},
		},
	})
	if err != nil {
		return res, err
	}
	g.descLayout = layout

	// Same layout for every color attachment.
	layouts := make([]core1_0.DescriptorSetLayout, numColor)
	for i := range layouts {
		layouts[i] = layout
	}

	sets, res, err := device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: g.info.DescriptorPool,
		SetLayouts:     layouts,
	})
	if err != nil {
		return res, err
	}
	g.res.uiSets = sets

	writes := make([]core1_0.WriteDescriptorSet, numColor)
	for d := 0; d < numColor; d++ {
		writes[d] = core1_0.WriteDescriptorSet{
			DstSet:          sets[d],
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			ImageInfo: []core1_0.DescriptorImageInfo{
				{
					Sampler:     g.info.ImageSampler,
					ImageView:   g.res.uiViews[d],
					ImageLayout: steadyStateLayout,
				},
			},
		}
	}

	err = device.UpdateDescriptorSets(writes, nil)
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}

	return core1_0.VKSuccess, nil
}

// deinitResources tears the resource set down in reverse dependency order.
// The shared sampler, descriptor pool, and allocator are borrowed and stay
// untouched. No-op when the GBuffer is unconfigured.
func (g *GBuffer) deinitResources() {
	if g.info.Allocator == nil {
		return
	}

	for _, set := range g.res.uiSets {
		set.Free()
	}
	g.res.uiSets = nil

	// The layout can outlive the sets when their allocation failed, so it is
	// released on its own rather than alongside them.
	if g.descLayout != nil {
		g.descLayout.Destroy(nil)
		g.descLayout = nil
	}

	for _, img := range g.res.color {
		g.info.Allocator.DestroyImage(img)
	}
	g.res.color = nil

	for _, img := range g.res.colorMSAA {
		g.info.Allocator.DestroyImage(img)
	}
	g.res.colorMSAA = nil

	if g.res.depth.Image != nil {
		g.info.Allocator.DestroyImage(g.res.depth)
		g.res.depth = Image{}
	}

	for _, view := range g.res.uiViews {
		// Entries past a mid-pipeline failure are nil.
		if view != nil {
			view.Destroy(nil)
		}
	}
	g.res.uiViews = nil
}
