package texatlas

import "sync"

// RenderState is the injected render-thread context: it couples the GPU
// Driver with the process-wide state the texture layer reads and writes,
// namely the per-target binding cache and the GPU context generation
// counter.
//
// Exactly one RenderState exists per GPU context. All methods except
// InvalidateContext are meant to be called from the render thread;
// InvalidateContext may be called from platform callbacks (surface lost,
// app backgrounded) and is safe for concurrent use.
type RenderState struct {
	mu sync.Mutex

	driver Driver

	// generation identifies the current GPU context epoch. It starts at 1
	// so that a zero generation stamp on a texture is never valid.
	generation int64

	// bound caches the handle currently bound per target, so redundant
	// bind calls can be skipped and deleted textures can scrub their
	// binding record.
	bound [numTargets]TextureHandle

	// activeUnit is the currently active texture unit.
	activeUnit int
}

// NewRenderState creates the render state for a GPU context.
func NewRenderState(driver Driver) *RenderState {
	return &RenderState{
		driver:     driver,
		generation: 1,
	}
}

// Driver returns the GPU driver this state was created with.
func (s *RenderState) Driver() Driver {
	return s.driver
}

// Generation returns the current GPU context generation.
func (s *RenderState) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// IsValidGeneration reports whether a resource stamped with gen belongs
// to the current GPU context.
func (s *RenderState) IsValidGeneration(gen int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// InvalidateContext records a GPU context loss: every handle allocated so
// far is now dangling. The generation is bumped so resources detect the
// mismatch and recreate themselves on next update, and the binding cache
// is reset.
func (s *RenderState) InvalidateContext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.bound {
		s.bound[i] = 0
	}
	s.activeUnit = 0
}

// SetTextureUnit records the active texture unit.
func (s *RenderState) SetTextureUnit(unit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeUnit = unit
}

// TextureUnit returns the active texture unit.
func (s *RenderState) TextureUnit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeUnit
}

// BindTexture records h as bound to the target. It returns false when the
// handle was already bound and the bind could be skipped.
func (s *RenderState) BindTexture(target Target, h TextureHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound[target] == h {
		return false
	}
	s.bound[target] = h
	return true
}

// BoundTexture returns the handle currently recorded as bound to target.
func (s *RenderState) BoundTexture(target Target) TextureHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound[target]
}

// clearBinding scrubs the binding record if h is the bound texture for
// target. Deleting a bound texture resets the binding to zero on the GPU,
// so the cache must not keep claiming it is still bound.
func (s *RenderState) clearBinding(target Target, h TextureHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound[target] == h {
		s.bound[target] = 0
	}
}
