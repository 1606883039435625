package gbuffer

import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

// ImageBarrier describes a layout transition for a single image. A zero
// SubresourceRange stands for the full single-mip, single-layer color range.
type ImageBarrier struct {
	Image            core1_0.Image
	OldLayout        core1_0.ImageLayout
	NewLayout        core1_0.ImageLayout
	SubresourceRange core1_0.ImageSubresourceRange
}

// MakeImageMemoryBarrier builds the pipeline barrier record for a layout
// transition, deriving the access masks from the layout pair. Queue family
// ownership is left untouched.
func MakeImageMemoryBarrier(spec ImageBarrier) core1_0.ImageMemoryBarrier {
	subresourceRange := spec.SubresourceRange
	if subresourceRange.AspectMask == 0 {
		subresourceRange = core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		}
	}

	return core1_0.ImageMemoryBarrier{
		SrcAccessMask:       srcAccessMaskForLayout(spec.OldLayout),
		DstAccessMask:       dstAccessMaskForLayout(spec.NewLayout),
		OldLayout:           spec.OldLayout,
		NewLayout:           spec.NewLayout,
		SrcQueueFamilyIndex: -1,
		DstQueueFamilyIndex: -1,
		Image:               spec.Image,
		SubresourceRange:    subresourceRange,
	}
}

func srcAccessMaskForLayout(layout core1_0.ImageLayout) core1_0.AccessFlags {
	switch layout {
	case core1_0.ImageLayoutColorAttachmentOptimal:
		return core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return core1_0.AccessDepthStencilAttachmentWrite
	case core1_0.ImageLayoutTransferDstOptimal:
		return core1_0.AccessTransferWrite
	case core1_0.ImageLayoutPreInitialized:
		return core1_0.AccessHostWrite
	default:
		return 0
	}
}

func dstAccessMaskForLayout(layout core1_0.ImageLayout) core1_0.AccessFlags {
	switch layout {
	case core1_0.ImageLayoutTransferDstOptimal:
		return core1_0.AccessTransferWrite
	case core1_0.ImageLayoutTransferSrcOptimal:
		return core1_0.AccessTransferRead
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return core1_0.AccessShaderRead
	case core1_0.ImageLayoutColorAttachmentOptimal:
		return core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return core1_0.AccessDepthStencilAttachmentWrite
	default:
		return 0
	}
}

func pipelineStagesForLayout(layout core1_0.ImageLayout) core1_0.PipelineStageFlags {
	switch layout {
	case core1_0.ImageLayoutUndefined, core1_0.ImageLayoutPreInitialized:
		return core1_0.PipelineStageTopOfPipe
	case core1_0.ImageLayoutTransferSrcOptimal, core1_0.ImageLayoutTransferDstOptimal:
		return core1_0.PipelineStageTransfer
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return core1_0.PipelineStageFragmentShader
	case core1_0.ImageLayoutColorAttachmentOptimal:
		return core1_0.PipelineStageColorAttachmentOutput
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return core1_0.PipelineStageEarlyFragmentTests
	default:
		return core1_0.PipelineStageAllCommands
	}
}

// CmdImageBarriers records a single pipeline barrier covering every given
// transition, with the stage masks widened to the union of the stages each
// layout is accessed in. Does nothing for an empty batch.
func CmdImageBarriers(cmd core1_0.CommandBuffer, specs []ImageBarrier) error {
	if len(specs) == 0 {
		return nil
	}

	var srcStages, dstStages core1_0.PipelineStageFlags
	barriers := make([]core1_0.ImageMemoryBarrier, 0, len(specs))
	for _, spec := range specs {
		srcStages |= pipelineStagesForLayout(spec.OldLayout)
		dstStages |= pipelineStagesForLayout(spec.NewLayout)
		barriers = append(barriers, MakeImageMemoryBarrier(spec))
	}

	return cmd.CmdPipelineBarrier(srcStages, dstStages, 0, nil, nil, barriers)
}
