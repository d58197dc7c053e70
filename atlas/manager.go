// Package atlas packs dynamically rasterized glyph bitmaps into a bounded
// pool of texture pages with reference-counted lifetime.
//
// Placement is decided by an external packer (ShelfPacker is the default);
// the manager's job is page lifetime and GPU sync, not bin-packing
// geometry. Worker threads add glyphs concurrently; the render thread
// drains dirty pages once per frame through UpdateTextures. Both sides
// serialize on the manager's lock, which is what guarantees that every
// glyph written before an UpdateTextures call is visible to that call's
// uploads.
package atlas

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/texatlas"
)

// Config holds atlas manager configuration.
type Config struct {
	// PageSize is the edge length of each page texture in pixels.
	// Default: 256
	PageSize int

	// MaxPages limits the page pool. Default: 64, which is also the hard
	// cap (the width of PageSet).
	MaxPages int
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: PageSize,
		MaxPages: MaxPages,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageSize < 16 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 16"}
	}
	if c.PageSize > 4096 {
		return &ConfigError{Field: "PageSize", Reason: "must be at most 4096"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at least 1"}
	}
	if c.MaxPages > MaxPages {
		return &ConfigError{Field: "MaxPages", Reason: fmt.Sprintf("must be at most %d", MaxPages)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// PoolFullError is returned when a glyph needs a page beyond the pool cap.
// It is a degraded-but-non-fatal condition: the glyph is simply not
// rendered, and the caller decides whether to retry or substitute.
type PoolFullError struct {
	MaxPages int
}

func (e *PoolFullError) Error() string {
	return fmt.Sprintf("atlas: all %d pages are full", e.MaxPages)
}

// Manager owns the bounded pool of glyph pages. It routes new-glyph
// requests to their target page (creating the page if the id is new and
// the pool has capacity), merges glyph pixels into the page's mirror, and
// manages page lifetime via Lock/Release reference counting.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	config Config
	pages  []*Page

	// Statistics (atomic for lock-free reads)
	glyphsPlaced atomic.Uint64
	glyphsFailed atomic.Uint64
}

// NewManager creates a manager with the given configuration.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		config: config,
		pages:  make([]*Page, 0, config.MaxPages),
	}, nil
}

// NewManagerDefault creates a manager with the default configuration.
func NewManagerDefault() *Manager {
	m, _ := NewManager(DefaultConfig())
	return m
}

// Config returns the manager configuration.
func (m *Manager) Config() Config {
	return m.config
}

// AddPage creates the page with the given id. Page ids are assigned
// densely by the packer, so id must equal the current page count. Called
// implicitly by AddGlyph for unseen ids; exported for pre-warming.
func (m *Manager) AddPage(id PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensurePage(id)
}

// ensurePage creates pages up to and including id. Caller holds m.mu.
func (m *Manager) ensurePage(id PageID) error {
	if id < 0 {
		return fmt.Errorf("atlas: invalid page id %d", id)
	}
	if int(id) >= m.config.MaxPages {
		return &PoolFullError{MaxPages: m.config.MaxPages}
	}
	for len(m.pages) <= int(id) {
		p := newPage(PageID(len(m.pages)), m.config.PageSize, m.config.PageSize)
		m.pages = append(m.pages, p)
		texatlas.Logger().Debug("glyph page created",
			"page", p.id, "size", m.config.PageSize)
	}
	return nil
}

// AddGlyph merges a glyph coverage bitmap into the page id at (x, y),
// creating the page first if needed. src holds h rows of w bytes each,
// stride bytes apart (stride >= w). pad is the blank border around the
// glyph that the packer reserved to prevent bilinear bleed; the rows
// spanning the border are marked dirty along with the glyph so the blank
// pixels upload too.
//
// The packer has already decided id, x and y; the manager trusts the
// coordinates and only performs the copy and dirty marking. Out-of-range
// coordinates are clamped by the page texture with a logged warning.
func (m *Manager) AddGlyph(id PageID, x, y, w, h int, src []byte, stride, pad int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensurePage(id); err != nil {
		m.glyphsFailed.Add(1)
		return err
	}

	page := m.pages[id]
	page.tex.SetSubData(src, x, y, w, h, stride)
	page.tex.MarkDirtyRows(y-pad, h+2*pad)
	page.dirty = true
	page.glyphs++
	m.glyphsPlaced.Add(1)
	return nil
}

// Lock increments the reference count of every page in the set,
// guaranteeing they stay resident while the referencing batch is in
// flight. Pages that do not exist yet are a call-site defect and panic.
func (m *Manager) Lock(set PageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range set.Pages() {
		if int(id) >= len(m.pages) {
			panic(fmt.Sprintf("atlas: lock of nonexistent page %d", id))
		}
		m.pages[id].refCount++
	}
}

// Release decrements the reference count of every page in the set.
// Releasing a page whose count is already zero is a logic error at the
// call site and panics rather than silently wrapping.
func (m *Manager) Release(set PageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range set.Pages() {
		if int(id) >= len(m.pages) {
			panic(fmt.Sprintf("atlas: release of nonexistent page %d", id))
		}
		p := m.pages[id]
		if p.refCount == 0 {
			panic(fmt.Sprintf("atlas: release of unlocked page %d", id))
		}
		p.refCount--
	}
}

// UpdateTextures drains every page's dirty state to the GPU. This is the
// single point where glyph-pixel writes become GPU-visible; call it once
// per frame on the render thread before any draw samples a glyph page.
//
// Glyph writes observed before this call (under the manager's lock) are
// reflected in its uploads; writes issued after are deferred to the next
// call.
func (m *Manager) UpdateTextures(rs *texatlas.RenderState, unit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pages {
		if err := p.tex.Update(rs, unit); err != nil {
			return fmt.Errorf("atlas: updating page %d: %w", p.id, err)
		}
		p.dirty = false
	}
	return nil
}

// DeleteTextures releases every page's GPU resource, keeping the CPU
// mirrors so a later UpdateTextures restores them. For context teardown.
func (m *Manager) DeleteTextures(rs *texatlas.RenderState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pages {
		p.tex.Delete(rs)
	}
}

// PageCount returns the number of pages currently in the pool.
func (m *Manager) PageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

// Page returns the page with the given id, or nil if it does not exist.
func (m *Manager) Page(id PageID) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || int(id) >= len(m.pages) {
		return nil
	}
	return m.pages[id]
}

// PageRefCount returns the reference count of a page and whether the page
// exists. External eviction policies use this to find reclaimable pages.
func (m *Manager) PageRefCount(id PageID) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || int(id) >= len(m.pages) {
		return 0, false
	}
	return m.pages[id].refCount, true
}

// Stats returns the number of glyphs placed and failed placements.
func (m *Manager) Stats() (placed, failed uint64) {
	return m.glyphsPlaced.Load(), m.glyphsFailed.Load()
}

// MemoryUsage returns the total CPU mirror memory held by all pages.
func (m *Manager) MemoryUsage() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, p := range m.pages {
		total += int64(len(p.tex.Data()))
	}
	return total
}
