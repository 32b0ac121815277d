package storage

import (
	"fmt"

	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

// Cursor is a position within the table: a page number, a cell index
// within that page, and an end-of-table flag. Cursors are cheap,
// short-lived values created per operation; they borrow the table and
// must not outlive it.
type Cursor struct {
	table      *Table
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// Start positions a cursor at the first row. On an empty table the
// cursor starts at end-of-table.
func (t *Table) Start() (*Cursor, error) {
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	return &Cursor{
		table:      t,
		pageNum:    t.rootPage,
		cellNum:    0,
		endOfTable: root.NumCells() == 0,
	}, nil
}

// End positions a cursor one past the last row.
func (t *Table) End() (*Cursor, error) {
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	return &Cursor{
		table:      t,
		pageNum:    t.rootPage,
		cellNum:    root.NumCells(),
		endOfTable: true,
	}, nil
}

// EndOfTable reports whether the cursor is past the last row.
func (c *Cursor) EndOfTable() bool {
	return c.endOfTable
}

// Value returns the serialized row region the cursor points at. The
// slice aliases the page buffer owned by the pager.
func (c *Cursor) Value() ([]byte, error) {
	buf, err := c.table.pager.GetPage(c.pageNum)
	if err != nil {
		return nil, err
	}
	leaf := pager.WrapLeaf(buf)
	if c.cellNum >= leaf.NumCells() {
		return nil, fmt.Errorf("cursor at cell %d past %d cells on page %d", c.cellNum, leaf.NumCells(), c.pageNum)
	}
	return leaf.Value(c.cellNum), nil
}

// Row deserializes the row the cursor points at.
func (c *Cursor) Row() (pager.Row, error) {
	val, err := c.Value()
	if err != nil {
		return pager.Row{}, err
	}
	return pager.DeserializeRow(val), nil
}

// Advance moves the cursor to the next cell. Reaching the cell count of
// the current page sets end-of-table; the tree is a single leaf, so
// there is no next page to step into.
func (c *Cursor) Advance() error {
	buf, err := c.table.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}
	leaf := pager.WrapLeaf(buf)
	c.cellNum++
	if c.cellNum >= leaf.NumCells() {
		c.endOfTable = true
	}
	return nil
}
