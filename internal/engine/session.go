package engine

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SimonWaldherr/nanoDB/internal/storage"
	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

// Session dispatches input lines against one open table and writes the
// results to out. Recoverable conditions (parse errors, table-full) are
// printed and swallowed; anything else is fatal and returned to the
// caller, which is expected to terminate.
type Session struct {
	table *storage.Table
	out   io.Writer
}

// NewSession binds a session to an open table and an output writer.
func NewSession(t *storage.Table, out io.Writer) *Session {
	return &Session{table: t, out: out}
}

// Dispatch handles one input line: a meta-command if it starts with '.',
// a statement otherwise. quit is true after .exit has closed the table.
func (s *Session) Dispatch(line string) (quit bool, err error) {
	if strings.HasPrefix(line, ".") {
		return s.metaCommand(line)
	}
	stmt, err := Prepare(line)
	if err != nil {
		s.reportPrepareError(line, err)
		return false, nil
	}
	return false, s.Execute(stmt)
}

// ── Meta-commands ─────────────────────────────────────────────────────────

func (s *Session) metaCommand(line string) (bool, error) {
	switch line {
	case ".exit":
		return true, s.table.Close()
	case ".constants":
		s.printConstants()
		return false, nil
	case ".btree":
		return false, s.printTree()
	default:
		fmt.Fprintf(s.out, "Unrecognized command '%s'.\n", line)
		return false, nil
	}
}

func (s *Session) printConstants() {
	fmt.Fprintln(s.out, "Constants:")
	fmt.Fprintf(s.out, "ROW_SIZE: %d\n", pager.RowSize)
	fmt.Fprintf(s.out, "COMMON_NODE_HEADER_SIZE: %d\n", pager.CommonNodeHeaderSize)
	fmt.Fprintf(s.out, "LEAF_NODE_HEADER_SIZE: %d\n", pager.LeafNodeHeaderSize)
	fmt.Fprintf(s.out, "LEAF_NODE_CELL_SIZE: %d\n", pager.LeafNodeCellSize)
	fmt.Fprintf(s.out, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", pager.LeafNodeSpaceForCells)
	fmt.Fprintf(s.out, "LEAF_NODE_MAX_CELLS: %d\n", pager.LeafNodeMaxCells)
}

func (s *Session) printTree() error {
	root, err := s.table.Root()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Tree:")
	n := root.NumCells()
	fmt.Fprintf(s.out, "leaf (size %d)\n", n)
	for i := uint32(0); i < n; i++ {
		fmt.Fprintf(s.out, "  - %d : %d\n", i, root.Key(i))
	}
	return nil
}

// ── Statements ────────────────────────────────────────────────────────────

// Execute runs a prepared statement against the table.
func (s *Session) Execute(stmt *Statement) error {
	switch stmt.Type {
	case StatementInsert:
		return s.executeInsert(stmt)
	case StatementSelect:
		return s.executeSelect()
	default:
		return fmt.Errorf("unknown statement type %d", stmt.Type)
	}
}

func (s *Session) executeInsert(stmt *Statement) error {
	err := s.table.Insert(stmt.Row)
	if errors.Is(err, storage.ErrTableFull) {
		fmt.Fprintln(s.out, "Error: Table full.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Executed.")
	return nil
}

func (s *Session) executeSelect() error {
	cur, err := s.table.Start()
	if err != nil {
		return err
	}
	for !cur.EndOfTable() {
		row, err := cur.Row()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, row.String())
		if err := cur.Advance(); err != nil {
			return err
		}
	}
	fmt.Fprintln(s.out, "Executed.")
	return nil
}

func (s *Session) reportPrepareError(line string, err error) {
	switch {
	case errors.Is(err, ErrNegativeID):
		fmt.Fprintln(s.out, "ID must be positive.")
	case errors.Is(err, ErrStringTooLong):
		fmt.Fprintln(s.out, "String is too long.")
	case errors.Is(err, ErrSyntax):
		fmt.Fprintln(s.out, "Syntax error. Could not parse statement.")
	default:
		fmt.Fprintf(s.out, "Unrecognized keyword at start of '%s'.\n", line)
	}
}
