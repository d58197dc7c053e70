// Package wgpu implements the texture driver on top of gogpu/wgpu's HAL.
//
// Handles are stable across reallocation: UploadFull with new dimensions
// recreates the underlying hal.Texture but keeps the handle, so callers
// never observe a handle change on resize.
package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/texatlas"
	"github.com/gogpu/wgpu/hal"
)

// defaultMaxTextureSize matches the WebGPU guaranteed minimum for
// max_texture_dimension_2d.
const defaultMaxTextureSize = 8192

// gpuTexture tracks one live HAL texture and the metadata needed to
// rebuild upload descriptors.
type gpuTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	opts   texatlas.TextureOptions
	width  int
	height int
	cube   bool
}

// Driver implements texatlas.Driver using gogpu/wgpu's HAL device and
// queue. Upload failures are logged rather than returned, matching the
// fire-and-forget upload contract; creation failures are returned because
// the caller holds no handle yet.
//
// Driver is safe for concurrent use.
type Driver struct {
	mu       sync.Mutex
	device   hal.Device
	queue    hal.Queue
	caps     texatlas.Capabilities
	textures map[texatlas.TextureHandle]*gpuTexture
	next     uint64
}

// New creates a driver over an opened HAL device and its queue.
func New(device hal.Device, queue hal.Queue) *Driver {
	return &Driver{
		device: device,
		queue:  queue,
		caps: texatlas.Capabilities{
			MaxTextureSize: defaultMaxTextureSize,
			NPOT:           true,
		},
		textures: make(map[texatlas.TextureHandle]*gpuTexture),
	}
}

// Capabilities implements the texatlas.Driver interface.
func (d *Driver) Capabilities() texatlas.Capabilities {
	return d.caps
}

// CreateTexture implements the texatlas.Driver interface.
func (d *Driver) CreateTexture(opts texatlas.TextureOptions, width, height int) (texatlas.TextureHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gt, err := d.createStorage(opts, width, height, false)
	if err != nil {
		return 0, err
	}

	d.next++
	h := texatlas.TextureHandle(d.next)
	d.textures[h] = gt
	return h, nil
}

// CreateTextureCube implements the texatlas.Driver interface.
func (d *Driver) CreateTextureCube(opts texatlas.TextureOptions, size int) (texatlas.TextureHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gt, err := d.createStorage(opts, size, size, true)
	if err != nil {
		return 0, err
	}

	d.next++
	h := texatlas.TextureHandle(d.next)
	d.textures[h] = gt
	return h, nil
}

// createStorage allocates the HAL texture and its sampling view.
// Caller holds d.mu.
func (d *Driver) createStorage(opts texatlas.TextureOptions, width, height int, cube bool) (*gpuTexture, error) {
	layers := uint32(1)
	viewDim := gputypes.TextureViewDimension2D
	if cube {
		layers = texatlas.NumCubeFaces
		viewDim = gputypes.TextureViewDimensionCube
	}

	mipLevels := uint32(1)
	if opts.GenerateMipmaps {
		mipLevels = mipLevelCount(width, height)
	}

	format, err := toWGPUFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         opts.Label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: layers},
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: creating texture %q: %w", opts.Label, err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         opts.Label,
		Format:        format,
		Dimension:     viewDim,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: mipLevels,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: creating texture view %q: %w", opts.Label, err)
	}

	return &gpuTexture{
		tex:    tex,
		view:   view,
		opts:   opts,
		width:  width,
		height: height,
		cube:   cube,
	}, nil
}

// UploadFull implements the texatlas.Driver interface. When the
// dimensions differ from the current storage the texture is recreated in
// place, keeping the handle stable.
func (d *Driver) UploadFull(h texatlas.TextureHandle, width, height int, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gt, ok := d.textures[h]
	if !ok {
		texatlas.Logger().Warn("upload to unknown texture handle", "handle", h)
		return
	}
	if gt.cube {
		texatlas.Logger().Warn("2D upload to cube texture", "handle", h, "label", gt.opts.Label)
		return
	}

	if width != gt.width || height != gt.height {
		fresh, err := d.createStorage(gt.opts, width, height, false)
		if err != nil {
			texatlas.Logger().Error("texture reallocation failed",
				"handle", h, "label", gt.opts.Label, "error", err)
			return
		}
		d.device.DestroyTextureView(gt.view)
		d.device.DestroyTexture(gt.tex)
		*gt = *fresh
	}

	if data == nil {
		// Storage (re)allocation only.
		return
	}

	bpp := uint32(gt.opts.Format.BytesPerPixel())
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  gt.tex,
			MipLevel: 0,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width) * bpp,
			RowsPerImage: uint32(height),
		},
		&hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
}

// UploadRegion implements the texatlas.Driver interface. data holds the
// rows [y0, y1) tightly packed at the texture's full width.
func (d *Driver) UploadRegion(h texatlas.TextureHandle, y0, y1, width int, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gt, ok := d.textures[h]
	if !ok {
		texatlas.Logger().Warn("upload to unknown texture handle", "handle", h)
		return
	}
	if y1 <= y0 {
		return
	}

	rows := uint32(y1 - y0)
	bpp := uint32(gt.opts.Format.BytesPerPixel())
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  gt.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: uint32(y0), Z: 0},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width) * bpp,
			RowsPerImage: rows,
		},
		&hal.Extent3D{Width: uint32(width), Height: rows, DepthOrArrayLayers: 1},
	)
}

// UploadCubeFace implements the texatlas.Driver interface. Each face is
// one array layer of the cube texture.
func (d *Driver) UploadCubeFace(h texatlas.TextureHandle, face texatlas.CubeFace, size int, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gt, ok := d.textures[h]
	if !ok {
		texatlas.Logger().Warn("upload to unknown texture handle", "handle", h)
		return
	}
	if !gt.cube {
		texatlas.Logger().Warn("cube upload to 2D texture", "handle", h, "label", gt.opts.Label)
		return
	}

	bpp := uint32(gt.opts.Format.BytesPerPixel())
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  gt.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: uint32(face)},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(size) * bpp,
			RowsPerImage: uint32(size),
		},
		&hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
	)
}

// GenerateMipmaps implements the texatlas.Driver interface.
//
// WebGPU has no built-in mip generation; it needs a blit pipeline that
// downsamples level N into N+1. Until that pipeline exists, levels past 0
// stay zero and the call logs a warning so the gap is visible.
// TODO: add a render-pass downsample chain for mip generation.
func (d *Driver) GenerateMipmaps(h texatlas.TextureHandle) {
	d.mu.Lock()
	gt, ok := d.textures[h]
	d.mu.Unlock()

	if !ok {
		return
	}
	texatlas.Logger().Warn("mipmap generation not implemented, levels past 0 are empty",
		"label", gt.opts.Label)
}

// DestroyTexture implements the texatlas.Driver interface. Destroying an
// unknown or zero handle is a no-op.
func (d *Driver) DestroyTexture(h texatlas.TextureHandle) {
	d.mu.Lock()
	gt, ok := d.textures[h]
	if ok {
		delete(d.textures, h)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyTextureView(gt.view)
		d.device.DestroyTexture(gt.tex)
	}
}

// View returns the sampling view for a handle, for binding into bind
// groups. Returns nil for unknown handles.
func (d *Driver) View(h texatlas.TextureHandle) hal.TextureView {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gt, ok := d.textures[h]; ok {
		return gt.view
	}
	return nil
}

// Close destroys every texture the driver still tracks.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for h, gt := range d.textures {
		d.device.DestroyTextureView(gt.view)
		d.device.DestroyTexture(gt.tex)
		delete(d.textures, h)
	}
}

// toWGPUFormat maps a pixel format to its WebGPU texture format.
func toWGPUFormat(f texatlas.PixelFormat) (gputypes.TextureFormat, error) {
	switch f {
	case texatlas.PixelFormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case texatlas.PixelFormatRG8:
		return gputypes.TextureFormatRG8Unorm, nil
	case texatlas.PixelFormatR8:
		return gputypes.TextureFormatR8Unorm, nil
	case texatlas.PixelFormatRGB8:
		// WebGPU has no 3-channel format; callers expand to RGBA first.
		return 0, fmt.Errorf("wgpu: no native RGB8 format, expand to RGBA8")
	default:
		return 0, fmt.Errorf("wgpu: unsupported pixel format %s", f)
	}
}

// mipLevelCount returns the full mip chain length for the dimensions.
func mipLevelCount(width, height int) uint32 {
	n := uint32(1)
	for width > 1 || height > 1 {
		width /= 2
		height /= 2
		n++
	}
	return n
}
