package pager

import (
	"fmt"
	"io"
	"os"
)

// ───────────────────────────────────────────────────────────────────────────
// Offline inspection
// ───────────────────────────────────────────────────────────────────────────
//
// Inspect and Verify open the database file read-only and report on it
// without going through a Pager. They are used by tooling and tests to
// check a file after shutdown.

// DBInfo summarizes a database file.
type DBInfo struct {
	Path      string
	FileSize  int64
	NumPages  uint32
	RootType  NodeType
	RootCells uint32
}

// Inspect reads the file header state of the database at path. A
// zero-length file reports zero pages and zero cells.
func Inspect(path string) (*DBInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat db file: %w", err)
	}
	info := &DBInfo{
		Path:     path,
		FileSize: fi.Size(),
		NumPages: uint32(fi.Size() / PageSize),
	}
	if fi.Size() < PageSize {
		return info, nil
	}

	buf := make([]byte, PageSize)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read root page: %w", err)
	}
	root := WrapLeaf(buf)
	info.RootType = root.Type()
	info.RootCells = root.NumCells()
	return info, nil
}

// Verify checks the structural invariants of the database at path and
// returns a list of issues found. An empty list means the file is clean.
func Verify(path string) ([]string, error) {
	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	var issues []string
	if info.FileSize%PageSize != 0 {
		issues = append(issues, fmt.Sprintf("file size %d is not a multiple of the page size %d", info.FileSize, PageSize))
	}
	if info.FileSize == 0 {
		return issues, nil
	}
	if info.RootType != NodeLeaf {
		issues = append(issues, fmt.Sprintf("root page has node type %s, want leaf", info.RootType))
	}
	if info.RootCells > LeafNodeMaxCells {
		issues = append(issues, fmt.Sprintf("root leaf holds %d cells, max is %d", info.RootCells, LeafNodeMaxCells))
	}
	return issues, nil
}
