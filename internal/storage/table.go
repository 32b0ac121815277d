// Package storage exposes the engine-facing view of the backing store: a
// single table bound to the root page of its B-tree, and cursors over it.
package storage

import (
	"errors"
	"fmt"

	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

// ErrTableFull is returned by Insert when the root leaf cannot accept
// another cell. Leaf splitting is an anticipated extension; until it
// exists the table's capacity is one leaf.
var ErrTableFull = errors.New("table full")

// rootPageNum is the page number of the B-tree root. The current format
// pins it to page 0.
const rootPageNum = 0

// Table binds a pager to the root page of the table's B-tree.
type Table struct {
	pager    *pager.Pager
	rootPage uint32
}

// Open opens or creates the database at path. A brand-new file is given
// an empty root leaf on page 0, so the root exists as soon as Open
// returns.
func Open(path string) (*Table, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}
	t := &Table{pager: p, rootPage: rootPageNum}
	if p.NumPages() == 0 {
		buf, err := p.GetPage(rootPageNum)
		if err != nil {
			p.Close()
			return nil, err
		}
		pager.InitLeaf(buf)
	}
	return t, nil
}

// Close flushes every resident page and closes the backing file. Rows
// are durable only after Close (or Flush) returns.
func (t *Table) Close() error {
	return t.pager.Close()
}

// Flush writes all resident pages to disk without closing the table.
func (t *Table) Flush() error {
	return t.pager.FlushAll()
}

// Root returns the leaf view of the root page.
func (t *Table) Root() (pager.LeafNode, error) {
	buf, err := t.pager.GetPage(t.rootPage)
	if err != nil {
		return pager.LeafNode{}, err
	}
	return pager.WrapLeaf(buf), nil
}

// NumRows returns the number of rows stored in the table.
func (t *Table) NumRows() (uint32, error) {
	root, err := t.Root()
	if err != nil {
		return 0, err
	}
	return root.NumCells(), nil
}

// Insert appends the row at the end of the table. The row's id becomes
// the cell key; keys are stored in insertion order, not sorted. Returns
// ErrTableFull when the root leaf already holds its maximum cell count.
func (t *Table) Insert(r pager.Row) error {
	root, err := t.Root()
	if err != nil {
		return err
	}
	if root.NumCells() >= pager.LeafNodeMaxCells {
		return ErrTableFull
	}
	cur, err := t.End()
	if err != nil {
		return err
	}
	if err := root.InsertCellAt(cur.cellNum, r.ID, &r); err != nil {
		return fmt.Errorf("insert row %d: %w", r.ID, err)
	}
	return nil
}

// Scan walks the table from the start and calls fn for every row in
// storage order. Iteration stops early if fn returns false.
func (t *Table) Scan(fn func(pager.Row) bool) error {
	cur, err := t.Start()
	if err != nil {
		return err
	}
	for !cur.EndOfTable() {
		row, err := cur.Row()
		if err != nil {
			return err
		}
		if !fn(row) {
			return nil
		}
		if err := cur.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file path.
func (t *Table) Path() string {
	return t.pager.Path()
}
