package texatlas

import (
	"bytes"
	"testing"
)

// fakeDriver records driver calls for assertions. Shared by the texture,
// cubemap and render-state tests.
type fakeDriver struct {
	caps Capabilities

	next    uint64
	creates []createCall

	fullUploads   []fullUpload
	regionUploads []regionUpload
	cubeUploads   []cubeUpload
	mipmapCalls   int
	destroyed     []TextureHandle
}

type createCall struct {
	opts   TextureOptions
	width  int
	height int
	cube   bool
}

type fullUpload struct {
	h             TextureHandle
	width, height int
	data          []byte
}

type regionUpload struct {
	h      TextureHandle
	y0, y1 int
	width  int
	data   []byte
}

type cubeUpload struct {
	h    TextureHandle
	face CubeFace
	size int
	data []byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{caps: Capabilities{MaxTextureSize: 4096, NPOT: true}}
}

func (d *fakeDriver) Capabilities() Capabilities { return d.caps }

func (d *fakeDriver) CreateTexture(opts TextureOptions, width, height int) (TextureHandle, error) {
	d.next++
	d.creates = append(d.creates, createCall{opts, width, height, false})
	return TextureHandle(d.next), nil
}

func (d *fakeDriver) CreateTextureCube(opts TextureOptions, size int) (TextureHandle, error) {
	d.next++
	d.creates = append(d.creates, createCall{opts, size, size, true})
	return TextureHandle(d.next), nil
}

func (d *fakeDriver) UploadFull(h TextureHandle, width, height int, data []byte) {
	d.fullUploads = append(d.fullUploads, fullUpload{h, width, height, append([]byte(nil), data...)})
}

func (d *fakeDriver) UploadRegion(h TextureHandle, y0, y1, width int, data []byte) {
	d.regionUploads = append(d.regionUploads, regionUpload{h, y0, y1, width, append([]byte(nil), data...)})
}

func (d *fakeDriver) UploadCubeFace(h TextureHandle, face CubeFace, size int, data []byte) {
	d.cubeUploads = append(d.cubeUploads, cubeUpload{h, face, size, append([]byte(nil), data...)})
}

func (d *fakeDriver) GenerateMipmaps(h TextureHandle) { d.mipmapCalls++ }

func (d *fakeDriver) DestroyTexture(h TextureHandle) { d.destroyed = append(d.destroyed, h) }

// callCount sums all GPU-touching calls, for no-op assertions.
func (d *fakeDriver) callCount() int {
	return len(d.creates) + len(d.fullUploads) + len(d.regionUploads) +
		len(d.cubeUploads) + d.mipmapCalls + len(d.destroyed)
}

func solidPixels(w, h, bpp int, v byte) []byte {
	data := make([]byte, w*h*bpp)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestNewTexture_InvalidOptionsFallBack(t *testing.T) {
	opts := DefaultTextureOptions()
	opts.Filtering.Min = FilterLinearMipmapLinear // without GenerateMipmaps

	tex := NewTexture(4, 4, opts)
	if got := tex.Options(); got != DefaultTextureOptions() {
		t.Errorf("options = %+v, want defaults", got)
	}
}

func TestNewTexture_NegativeDimensionsClamped(t *testing.T) {
	tex := NewTexture(-3, -7, DefaultTextureOptions())
	if tex.Width() != 0 || tex.Height() != 0 {
		t.Errorf("dimensions = %dx%d, want 0x0", tex.Width(), tex.Height())
	}
}

func TestTexture_FirstUpdateCreatesAndUploads(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(4, 4, DefaultTextureOptions())
	pixels := solidPixels(4, 4, 4, 0xAB)
	tex.SetData(pixels)

	if !tex.NeedsUpload() {
		t.Fatal("texture with data should need upload")
	}
	if err := tex.Update(rs, 0); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if len(drv.creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(drv.creates))
	}
	if c := drv.creates[0]; c.width != 4 || c.height != 4 || c.cube {
		t.Errorf("create = %+v, want 4x4 2D", c)
	}
	if len(drv.fullUploads) != 1 {
		t.Fatalf("full uploads = %d, want 1", len(drv.fullUploads))
	}
	if !bytes.Equal(drv.fullUploads[0].data, pixels) {
		t.Error("uploaded data differs from mirror")
	}
	if tex.Handle() == 0 {
		t.Error("handle should be set after Update")
	}
	if tex.NeedsUpload() {
		t.Error("nothing should be pending after Update")
	}
	if !tex.IsValid(rs) {
		t.Error("texture should be valid after Update")
	}
}

func TestTexture_CleanUpdateIsNoop(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(4, 4, DefaultTextureOptions())
	tex.SetData(solidPixels(4, 4, 4, 1))
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}

	before := drv.callCount()
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	if drv.callCount() != before {
		t.Error("clean Update should not touch the driver")
	}
}

func TestTexture_SubDataIssuesOneUploadPerMergedInterval(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(8, 32, DefaultTextureOptions())
	if err := tex.Update(rs, 0); err != nil { // allocate storage
		t.Fatal(err)
	}

	// Two disjoint writes and one that merges with the first.
	tex.SetSubData(solidPixels(8, 2, 4, 1), 0, 2, 8, 2, 8)  // rows [2,4)
	tex.SetSubData(solidPixels(8, 3, 4, 2), 0, 20, 8, 3, 8) // rows [20,23)
	tex.SetSubData(solidPixels(8, 2, 4, 3), 0, 4, 8, 2, 8)  // rows [4,6), touches [2,4)

	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}

	if len(drv.regionUploads) != 2 {
		t.Fatalf("region uploads = %d, want 2: %+v", len(drv.regionUploads), drv.regionUploads)
	}
	first, second := drv.regionUploads[0], drv.regionUploads[1]
	if first.y0 != 2 || first.y1 != 6 {
		t.Errorf("first upload rows [%d,%d), want [2,6)", first.y0, first.y1)
	}
	if second.y0 != 20 || second.y1 != 23 {
		t.Errorf("second upload rows [%d,%d), want [20,23)", second.y0, second.y1)
	}

	rowBytes := 8 * 4
	if len(first.data) != 4*rowBytes {
		t.Errorf("first upload size = %d, want %d", len(first.data), 4*rowBytes)
	}
	// Row 4 carries the later write's value.
	if first.data[2*rowBytes] != 3 {
		t.Errorf("row 4 byte = %d, want 3", first.data[2*rowBytes])
	}
	if tex.NeedsUpload() {
		t.Error("dirty set should drain after Update")
	}
}

func TestTexture_SubDataMirrorRoundTrip(t *testing.T) {
	tex := NewTexture(4, 4, DefaultTextureOptions())

	block := []byte{
		1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4,
	}
	tex.SetSubData(block, 1, 1, 2, 2, 2)

	data := tex.Data()
	rowBytes := 4 * 4
	if data[1*rowBytes+4] != 1 || data[1*rowBytes+8] != 2 {
		t.Error("first block row not at (1,1)")
	}
	if data[2*rowBytes+4] != 3 || data[2*rowBytes+8] != 4 {
		t.Error("second block row not at (1,2)")
	}
	if data[0] != 0 {
		t.Error("pixels outside the block should stay zero")
	}

	ranges := tex.DirtyRanges()
	if len(ranges) != 1 || ranges[0] != (RowRange{1, 3}) {
		t.Errorf("dirty ranges = %v, want [{1 3}]", ranges)
	}
}

func TestTexture_SubDataRejectsNegative(t *testing.T) {
	tex := NewTexture(4, 4, DefaultTextureOptions())
	tex.SetSubData([]byte{1, 2, 3, 4}, -1, 0, 1, 1, 1)
	if len(tex.DirtyRanges()) != 0 {
		t.Error("rejected write should not mark rows dirty")
	}
}

func TestTexture_SubDataClampsToBounds(t *testing.T) {
	tex := NewTexture(4, 4, DefaultTextureOptions())
	// 3x3 block at (2,2) exceeds the 4x4 buffer; it clamps to 2x2.
	tex.SetSubData(solidPixels(3, 3, 4, 9), 2, 2, 3, 3, 3)

	ranges := tex.DirtyRanges()
	if len(ranges) != 1 || ranges[0] != (RowRange{2, 4}) {
		t.Errorf("dirty ranges = %v, want [{2 4}]", ranges)
	}
	rowBytes := 4 * 4
	data := tex.Data()
	if data[3*rowBytes+3*4] != 9 {
		t.Error("clamped write should still land inside the buffer")
	}
}

func TestTexture_ResizeForcesReallocation(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(4, 4, DefaultTextureOptions())
	tex.SetData(solidPixels(4, 4, 4, 1))
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}

	tex.SetSubData(solidPixels(4, 1, 4, 2), 0, 0, 4, 1, 4)
	tex.Resize(8, 8)

	if len(tex.DirtyRanges()) != 0 {
		t.Error("resize should discard pending partial updates")
	}
	if tex.Data() != nil {
		t.Error("resize should drop the stale mirror")
	}
	if !tex.NeedsUpload() {
		t.Error("resize should schedule a reallocation")
	}

	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	up := drv.fullUploads[len(drv.fullUploads)-1]
	if up.width != 8 || up.height != 8 {
		t.Errorf("upload dims = %dx%d, want 8x8", up.width, up.height)
	}
	if len(up.data) != 8*8*4 {
		t.Errorf("upload size = %d, want %d (zero-filled mirror)", len(up.data), 8*8*4)
	}
	if len(drv.regionUploads) != 0 {
		t.Error("no region uploads should survive a resize")
	}
}

func TestTexture_ContextLossRecreatesFromMirror(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(4, 4, DefaultTextureOptions())
	pixels := solidPixels(4, 4, 4, 7)
	tex.SetData(pixels)
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	oldHandle := tex.Handle()

	rs.InvalidateContext()
	if tex.IsValid(rs) {
		t.Error("texture should be invalid after context loss")
	}

	// No new pixels supplied: recovery re-uploads the retained mirror.
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	if len(drv.creates) != 2 {
		t.Fatalf("creates = %d, want 2 (recreate after loss)", len(drv.creates))
	}
	if tex.Handle() == oldHandle || tex.Handle() == 0 {
		t.Errorf("handle = %d, want fresh nonzero handle", tex.Handle())
	}
	last := drv.fullUploads[len(drv.fullUploads)-1]
	if !bytes.Equal(last.data, pixels) {
		t.Error("recovery upload should carry the mirror contents")
	}
	if !tex.IsValid(rs) {
		t.Error("texture should be valid after recovery")
	}
}

func TestTexture_DeleteClearsBindingAndKeepsMirror(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	tex := NewTexture(4, 4, DefaultTextureOptions())
	tex.SetData(solidPixels(4, 4, 4, 5))
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	h := tex.Handle()
	if rs.BoundTexture(Target2D) != h {
		t.Fatal("texture should be recorded as bound after Update")
	}

	tex.Delete(rs)
	if len(drv.destroyed) != 1 || drv.destroyed[0] != h {
		t.Errorf("destroyed = %v, want [%d]", drv.destroyed, h)
	}
	if rs.BoundTexture(Target2D) != 0 {
		t.Error("binding record should be scrubbed on delete")
	}
	if tex.Handle() != 0 {
		t.Error("handle should be zero after delete")
	}
	if tex.Data() == nil {
		t.Error("mirror should survive delete")
	}

	// Deleting again is a no-op.
	tex.Delete(rs)
	if len(drv.destroyed) != 1 {
		t.Error("second delete should not call the driver")
	}

	// And the texture can come back.
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	if tex.Handle() == 0 {
		t.Error("texture should be resident again after Update")
	}
}

func TestTexture_NPOTFallbackDowngradesSampling(t *testing.T) {
	drv := newFakeDriver()
	drv.caps.NPOT = false
	rs := NewRenderState(drv)

	opts := DefaultTextureOptions()
	opts.Wrapping = Wrapping{S: WrapRepeat, T: WrapRepeat}
	opts.GenerateMipmaps = true
	opts.Filtering.Min = FilterLinearMipmapLinear

	tex := NewTexture(10, 10, opts) // not power of two
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}

	got := tex.Options()
	if got.Wrapping != (Wrapping{S: WrapClampToEdge, T: WrapClampToEdge}) {
		t.Errorf("wrapping = %+v, want clamp-to-edge", got.Wrapping)
	}
	if got.Filtering != (Filtering{Min: FilterLinear, Mag: FilterLinear}) {
		t.Errorf("filtering = %+v, want bilinear", got.Filtering)
	}
	if got.GenerateMipmaps {
		t.Error("mipmaps should be disabled on NPOT fallback")
	}
	if drv.creates[0].opts.GenerateMipmaps {
		t.Error("driver should see the downgraded options")
	}
}

func TestTexture_NPOTHardwareKeepsPowerOfTwoOptions(t *testing.T) {
	drv := newFakeDriver()
	drv.caps.NPOT = false
	rs := NewRenderState(drv)

	opts := DefaultTextureOptions()
	opts.Wrapping = Wrapping{S: WrapRepeat, T: WrapRepeat}

	tex := NewTexture(16, 16, opts)
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	if tex.Options().Wrapping.S != WrapRepeat {
		t.Error("power-of-two texture should keep repeat wrapping")
	}
}

func TestTexture_MarkDirtyRowsClamps(t *testing.T) {
	tex := NewTexture(8, 8, DefaultTextureOptions())
	tex.MarkDirtyRows(-2, 4) // clamps to [0,2)
	tex.MarkDirtyRows(6, 10) // clamps to [6,8)

	want := []RowRange{{0, 2}, {6, 8}}
	got := tex.DirtyRanges()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("dirty ranges = %v, want %v", got, want)
	}

	tex.MarkDirtyRows(5, 0)
	if len(tex.DirtyRanges()) != 2 {
		t.Error("empty mark should be a no-op")
	}
}

func TestTexture_GenerateMipmapsOnFullUpload(t *testing.T) {
	drv := newFakeDriver()
	rs := NewRenderState(drv)

	opts := DefaultTextureOptions()
	opts.GenerateMipmaps = true

	tex := NewTexture(8, 8, opts)
	tex.SetData(solidPixels(8, 8, 4, 1))
	if err := tex.Update(rs, 0); err != nil {
		t.Fatal(err)
	}
	if drv.mipmapCalls != 1 {
		t.Errorf("mipmap calls = %d, want 1", drv.mipmapCalls)
	}
}
