// Package gbuffer manages a multi-attachment render target set for
// vkngwrapper applications: a bundle of color attachments, optional MSAA
// siblings, and an optional depth attachment, together with the image views
// and descriptor sets needed to render into them and sample or display them
// afterwards.
//
// A GBuffer is configured once with Init and then resized lazily with
// Update, which only destroys and recreates the attachment images when the
// requested extent or sample count actually changes. Recreation waits for
// the device to go idle first, so images still referenced by in-flight work
// are never destroyed underneath it. Every new image is transitioned out of
// the undefined layout and cleared before first use, so attachments are safe
// to sample before the first render pass writes to them.
//
//	var gbuf gbuffer.GBuffer
//	gbuf.Init(gbuffer.Config{
//		Allocator:      allocator, // e.g. gbuffer.NewResourceAllocator(device, vamAllocator, nil)
//		ColorFormats:   []core1_0.Format{core1_0.FormatR8G8B8A8UnsignedNormalized},
//		DepthFormat:    core1_0.FormatD32SignedFloat,
//		ImageSampler:   linearSampler,
//		DescriptorPool: uiPool,
//	})
//	defer gbuf.Deinit()
//
//	// cmd is an open command buffer; submit and wait on it after Update.
//	_, err := gbuf.Update(cmd, core1_0.Extent2D{Width: 1920, Height: 1080})
//
//	// Render into gbuf.RenderImageView(0), sample gbuf.ColorImageView(0),
//	// or hand gbuf.DescriptorSet(0) to a UI layer as a texture handle.
//
// A GBuffer owns every image, view, and descriptor set it creates. The
// allocator, sampler, and descriptor pool are borrowed and must outlive it.
// One GBuffer is owned by one goroutine at a time; there is no internal
// locking.
package gbuffer
