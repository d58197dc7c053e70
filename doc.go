// Package texatlas provides the GPU texture resource layer for a
// tile-based map renderer.
//
// # Overview
//
// texatlas manages CPU-side pixel mirrors, tracks which rows of a texture
// have changed, and synchronizes them to GPU memory with minimal redundant
// transfer. The companion atlas package packs dynamically rasterized glyph
// bitmaps into a bounded pool of texture pages with reference-counted
// lifetime.
//
// # Quick Start
//
//	import "github.com/gogpu/texatlas"
//
//	rs := texatlas.NewRenderState(driver)
//
//	tex := texatlas.NewTexture(256, 256, texatlas.DefaultTextureOptions())
//	tex.SetSubData(pixels, 0, 0, 64, 64, 64)
//
//	// Once per frame, on the render thread, before sampling:
//	tex.Update(rs, 0)
//
// # Architecture
//
// The library is organized into:
//   - Root package: Texture, TextureCube, DirtyRangeSet, RenderState and
//     the Driver boundary
//   - atlas: glyph atlas pages, the page pool manager and a shelf packer
//   - fontstack: text shaping and glyph rasterization feeding the atlas
//   - driver/wgpu: a Driver implementation on gogpu/wgpu
//
// All GPU-visible mutation happens on a single render thread through
// Update calls; producers on worker threads only touch CPU mirrors and
// dirty bookkeeping.
package texatlas
