package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

func newTestTable(t *testing.T) (*Table, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return table, path
}

func testRow(id uint32) pager.Row {
	return pager.Row{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Email:    fmt.Sprintf("person%d@example.com", id),
	}
}

func TestOpen_InitializesRootLeaf(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	root, err := table.Root()
	if err != nil {
		t.Fatal(err)
	}
	if root.Type() != pager.NodeLeaf {
		t.Fatalf("root type: %s", root.Type())
	}
	if root.NumCells() != 0 {
		t.Fatalf("root cells: %d", root.NumCells())
	}
	n, err := table.NumRows()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows: %d", n)
	}
}

func TestInsert_AppendsInInsertionOrder(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	for _, id := range []uint32{3, 1, 2} {
		if err := table.Insert(testRow(id)); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}
	var got []uint32
	err := table.Scan(func(r pager.Row) bool {
		got = append(got, r.ID)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan order: got %v want %v", got, want)
		}
	}
}

func TestInsert_TableFullAtCapacity(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	for id := uint32(1); id <= pager.LeafNodeMaxCells; id++ {
		if err := table.Insert(testRow(id)); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}
	err := table.Insert(testRow(pager.LeafNodeMaxCells + 1))
	if !errors.Is(err, ErrTableFull) {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
	n, _ := table.NumRows()
	if n != pager.LeafNodeMaxCells {
		t.Fatalf("rows after failed insert: %d", n)
	}
}

func TestPersistence_CloseAndReopen(t *testing.T) {
	table, path := newTestTable(t)
	rows := []pager.Row{testRow(1), testRow(2), testRow(3)}
	for _, r := range rows {
		if err := table.Insert(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := table.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	table2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer table2.Close()
	var got []pager.Row
	if err := table2.Scan(func(r pager.Row) bool {
		got = append(got, r)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(rows) {
		t.Fatalf("rows after reopen: got %d want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Fatalf("row %d: got %+v want %+v", i, got[i], rows[i])
		}
	}
}

func TestCursor_StartOnEmptyTable(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	cur, err := table.Start()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.EndOfTable() {
		t.Fatal("cursor on empty table should start at end")
	}
}

func TestCursor_WalkAndAdvance(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	for id := uint32(1); id <= 3; id++ {
		if err := table.Insert(testRow(id)); err != nil {
			t.Fatal(err)
		}
	}
	cur, err := table.Start()
	if err != nil {
		t.Fatal(err)
	}
	var seen int
	for !cur.EndOfTable() {
		row, err := cur.Row()
		if err != nil {
			t.Fatal(err)
		}
		seen++
		if row.ID != uint32(seen) {
			t.Fatalf("row %d: id %d", seen, row.ID)
		}
		if err := cur.Advance(); err != nil {
			t.Fatal(err)
		}
	}
	if seen != 3 {
		t.Fatalf("walked %d rows", seen)
	}
}

func TestCursor_EndMatchesNumRows(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	for id := uint32(1); id <= 5; id++ {
		table.Insert(testRow(id))
	}
	cur, err := table.End()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.EndOfTable() {
		t.Fatal("end cursor must be at end of table")
	}
	if cur.cellNum != 5 {
		t.Fatalf("end cursor cell: %d", cur.cellNum)
	}
}

func TestScan_EarlyStop(t *testing.T) {
	table, _ := newTestTable(t)
	defer table.Close()
	for id := uint32(1); id <= 5; id++ {
		table.Insert(testRow(id))
	}
	var count int
	err := table.Scan(func(r pager.Row) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("scan visited %d rows, want 2", count)
	}
}

func TestFlush_DurableWithoutClose(t *testing.T) {
	table, path := newTestTable(t)
	defer table.Close()
	if err := table.Insert(testRow(9)); err != nil {
		t.Fatal(err)
	}
	if err := table.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	info, err := pager.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.RootCells != 1 {
		t.Fatalf("on-disk cells after flush: %d", info.RootCells)
	}
	if info.FileSize%pager.PageSize != 0 {
		t.Fatalf("file size %d not page-aligned", info.FileSize)
	}
}
