// Package pager implements the page-based backing store for nanoDB.
//
// The storage format is a single database file made of fixed-size 4 KiB
// pages. Page 0 is the root of the table's B-tree and is always a leaf in
// the current format. A leaf page carries a 10-byte header (node type,
// root marker, parent pointer, cell count) followed by an array of
// fixed-size cells; each cell is a 4-byte key and a 291-byte serialized
// row. All multi-byte integers on disk are little-endian.
package pager

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Constants
// ───────────────────────────────────────────────────────────────────────────

const (
	// PageSize is the size of every page in bytes. It matches the virtual
	// memory page size of mainstream architectures, so one database page
	// maps to one OS page.
	PageSize = 4096

	// MaxPages is the number of page slots the pager can hold. The file
	// may never grow past MaxPages pages.
	MaxPages = 100
)

// Common node header layout. Every node stores its type, a root marker,
// and the page number of its parent at fixed offsets.
const (
	nodeTypeOffset  = 0
	nodeTypeSize    = 1
	isRootOffset    = nodeTypeOffset + nodeTypeSize
	isRootSize      = 1
	parentPtrOffset = isRootOffset + isRootSize
	parentPtrSize   = 4

	// CommonNodeHeaderSize is the size of the header shared by all node
	// types.
	CommonNodeHeaderSize = nodeTypeSize + isRootSize + parentPtrSize
)

// Leaf node header and body layout. The body is an array of cells; each
// cell is a key followed by a serialized row.
const (
	leafNumCellsOffset = CommonNodeHeaderSize
	leafNumCellsSize   = 4

	// LeafNodeHeaderSize is the size of a leaf page header.
	LeafNodeHeaderSize = CommonNodeHeaderSize + leafNumCellsSize

	// LeafNodeKeySize is the size of a cell key.
	LeafNodeKeySize = 4

	// LeafNodeValueSize is the size of a cell value (one serialized row).
	LeafNodeValueSize = RowSize

	// LeafNodeCellSize is the size of one cell.
	LeafNodeCellSize = LeafNodeKeySize + LeafNodeValueSize

	// LeafNodeSpaceForCells is the page space available for cells.
	LeafNodeSpaceForCells = PageSize - LeafNodeHeaderSize

	// LeafNodeMaxCells is the number of cells a leaf can hold.
	LeafNodeMaxCells = LeafNodeSpaceForCells / LeafNodeCellSize
)

// ErrLeafFull is returned by InsertCellAt when the leaf already holds
// LeafNodeMaxCells cells. Splitting a full leaf is not implemented; the
// table layer reports this as table-full.
var ErrLeafFull = errors.New("leaf node full")

// ───────────────────────────────────────────────────────────────────────────
// Node types
// ───────────────────────────────────────────────────────────────────────────

// NodeType identifies how a page's bytes are interpreted.
type NodeType uint8

const (
	// NodeLeaf is a B-tree leaf. It is the zero value, so a freshly
	// zeroed page reads back as a leaf.
	NodeLeaf NodeType = 0

	// NodeInternal is a B-tree internal node. Reserved for the split
	// extension; never written by the current engine.
	NodeInternal NodeType = 1
)

// String returns a human-readable label for the node type.
func (nt NodeType) String() string {
	switch nt {
	case NodeLeaf:
		return "leaf"
	case NodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(nt))
	}
}

// ───────────────────────────────────────────────────────────────────────────
// Leaf node view
// ───────────────────────────────────────────────────────────────────────────

// LeafNode is a typed view over a page buffer interpreted as a B-tree
// leaf. It does not own the buffer; the pager does. All accessors read
// and write the underlying page bytes directly.
type LeafNode struct {
	page []byte
}

// WrapLeaf wraps an existing page buffer as a leaf view.
func WrapLeaf(page []byte) LeafNode {
	if len(page) < PageSize {
		panic("buffer too small for leaf page")
	}
	return LeafNode{page: page}
}

// InitLeaf formats a page buffer as an empty leaf and returns its view.
// The buffer is expected to be zeroed (freshly allocated by the pager);
// the node type and cell count are written explicitly anyway.
func InitLeaf(page []byte) LeafNode {
	l := WrapLeaf(page)
	l.SetType(NodeLeaf)
	l.SetNumCells(0)
	return l
}

// Type returns the node type discriminator.
func (l LeafNode) Type() NodeType {
	return NodeType(l.page[nodeTypeOffset])
}

// SetType writes the node type discriminator.
func (l LeafNode) SetType(nt NodeType) {
	l.page[nodeTypeOffset] = byte(nt)
}

// IsRoot reports whether the root marker is set.
func (l LeafNode) IsRoot() bool {
	return l.page[isRootOffset] != 0
}

// SetRoot writes the root marker.
func (l LeafNode) SetRoot(root bool) {
	if root {
		l.page[isRootOffset] = 1
	} else {
		l.page[isRootOffset] = 0
	}
}

// Parent returns the parent page number. Unused while the tree is a
// single leaf.
func (l LeafNode) Parent() uint32 {
	return binary.LittleEndian.Uint32(l.page[parentPtrOffset:])
}

// SetParent writes the parent page number.
func (l LeafNode) SetParent(page uint32) {
	binary.LittleEndian.PutUint32(l.page[parentPtrOffset:], page)
}

// NumCells returns the number of occupied cells.
func (l LeafNode) NumCells() uint32 {
	return binary.LittleEndian.Uint32(l.page[leafNumCellsOffset:])
}

// SetNumCells writes the cell count.
func (l LeafNode) SetNumCells(n uint32) {
	binary.LittleEndian.PutUint32(l.page[leafNumCellsOffset:], n)
}

func cellOffset(i uint32) int {
	return LeafNodeHeaderSize + int(i)*LeafNodeCellSize
}

// Cell returns the full byte region of cell i (key plus value).
func (l LeafNode) Cell(i uint32) []byte {
	off := cellOffset(i)
	return l.page[off : off+LeafNodeCellSize]
}

// Key returns the key of cell i.
func (l LeafNode) Key(i uint32) uint32 {
	return binary.LittleEndian.Uint32(l.Cell(i))
}

// SetKey writes the key of cell i.
func (l LeafNode) SetKey(i uint32, key uint32) {
	binary.LittleEndian.PutUint32(l.Cell(i), key)
}

// Value returns the value region of cell i (the cell minus its key).
func (l LeafNode) Value(i uint32) []byte {
	off := cellOffset(i) + LeafNodeKeySize
	return l.page[off : off+LeafNodeValueSize]
}

// InsertCellAt inserts key and row at cell index i, shifting cells
// [i, NumCells) one slot to the right. Returns ErrLeafFull when the leaf
// already holds LeafNodeMaxCells cells. i must be at most NumCells.
func (l LeafNode) InsertCellAt(i uint32, key uint32, row *Row) error {
	n := l.NumCells()
	if n >= LeafNodeMaxCells {
		return ErrLeafFull
	}
	if i > n {
		return fmt.Errorf("insert at cell %d with %d cells", i, n)
	}
	if i < n {
		copy(l.page[cellOffset(i+1):cellOffset(n+1)], l.page[cellOffset(i):cellOffset(n)])
	}
	l.SetKey(i, key)
	row.SerializeInto(l.Value(i))
	l.SetNumCells(n + 1)
	return nil
}
