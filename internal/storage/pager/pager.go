package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ───────────────────────────────────────────────────────────────────────────
// Pager
// ───────────────────────────────────────────────────────────────────────────
//
// The Pager owns the database file and a fixed array of page slots. Pages
// are loaded on first demand and stay resident until Close; there is no
// eviction. All reads and writes of page data go through the Pager.

// Sentinel errors for the conditions callers branch on. All pager errors
// are fatal for the engine: there is no journal to roll back to, so the
// process must not continue past them.
var (
	// ErrCorruptFile means the file length is not a whole number of
	// pages.
	ErrCorruptFile = errors.New("db file size is not a whole number of pages")

	// ErrPageBounds means a page number at or past MaxPages was
	// requested.
	ErrPageBounds = errors.New("page number out of bounds")

	// ErrPageNotResident means a flush was requested for an empty slot.
	ErrPageNotResident = errors.New("page not resident")
)

// Pager owns the backing file and the in-memory page cache.
type Pager struct {
	file       *os.File
	path       string
	fileLength int64
	numPages   uint32
	pages      [MaxPages][]byte
}

// Open opens or creates the database file at path. The file is created
// with mode 0600 if absent. A file whose length is not a multiple of
// PageSize is refused with ErrCorruptFile.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}
	length, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("seek db file: %w", err)
	}
	if length%PageSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptFile)
	}
	return &Pager{
		file:       f,
		path:       path,
		fileLength: length,
		numPages:   uint32(length / PageSize),
	}, nil
}

// GetPage returns the buffer for page n, loading it from the file on the
// first request. A page past the end of the file is materialized as a
// zeroed buffer and counted in NumPages. The returned slice is owned by
// the pager and stays valid until Close.
func (p *Pager) GetPage(n uint32) ([]byte, error) {
	if n >= MaxPages {
		return nil, fmt.Errorf("page %d: %w (max %d)", n, ErrPageBounds, MaxPages)
	}
	if buf := p.pages[n]; buf != nil {
		return buf, nil
	}
	buf := make([]byte, PageSize)
	pagesOnDisk := uint32((p.fileLength + PageSize - 1) / PageSize)
	if n < pagesOnDisk {
		// A short read at EOF leaves the tail of the buffer zeroed.
		if _, err := p.file.ReadAt(buf, int64(n)*PageSize); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read page %d: %w", n, err)
		}
	}
	p.pages[n] = buf
	if n >= p.numPages {
		p.numPages = n + 1
	}
	return buf, nil
}

// Flush writes page n back to the file. The slot must be resident.
func (p *Pager) Flush(n uint32) error {
	if n >= MaxPages {
		return fmt.Errorf("flush page %d: %w (max %d)", n, ErrPageBounds, MaxPages)
	}
	buf := p.pages[n]
	if buf == nil {
		return fmt.Errorf("flush page %d: %w", n, ErrPageNotResident)
	}
	if _, err := p.file.WriteAt(buf, int64(n)*PageSize); err != nil {
		return fmt.Errorf("write page %d: %w", n, err)
	}
	if end := int64(n+1) * PageSize; end > p.fileLength {
		p.fileLength = end
	}
	return nil
}

// FlushAll writes every resident page to the file and syncs it. The
// pages stay resident; use this for autosave-style checkpoints where the
// pager keeps serving requests afterwards.
func (p *Pager) FlushAll() error {
	for i := uint32(0); i < p.numPages; i++ {
		if p.pages[i] == nil {
			continue
		}
		if err := p.Flush(i); err != nil {
			return err
		}
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("sync db file: %w", err)
	}
	return nil
}

// Close flushes every resident page, releases the page buffers, and
// closes the file. The pager must not be used afterwards.
func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		p.file.Close()
		return err
	}
	for i := range p.pages {
		p.pages[i] = nil
	}
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("close db file: %w", err)
	}
	return nil
}

// NumPages returns the number of pages the database currently spans,
// counting pages materialized in memory but not yet flushed.
func (p *Pager) NumPages() uint32 { return p.numPages }

// FileLength returns the current length of the backing file in bytes.
func (p *Pager) FileLength() int64 { return p.fileLength }

// Path returns the database file path.
func (p *Pager) Path() string { return p.path }

// Resident reports whether page n is held in memory. Used by tests to
// check the release-on-close discipline.
func (p *Pager) Resident(n uint32) bool {
	return n < MaxPages && p.pages[n] != nil
}
