// Package engine maps statement text to storage operations. The grammar
// is two literal verbs: insert with a fixed three-field payload, and
// select as a full scan.
package engine

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

// StatementType discriminates the prepared statement kinds.
type StatementType int

const (
	// StatementInsert appends one row.
	StatementInsert StatementType = iota

	// StatementSelect scans the whole table.
	StatementSelect
)

// Statement is the result of preparing one input line.
type Statement struct {
	Type StatementType

	// Row holds the validated insert payload; unset for select.
	Row pager.Row
}

// Prepare errors. These are the recoverable tier: the session reports
// them and keeps running, and the database state is unchanged.
var (
	// ErrSyntax means a required insert field is missing or the id is
	// not a decimal that fits the 4-byte key.
	ErrSyntax = errors.New("could not parse statement")

	// ErrNegativeID means the insert id parsed as a negative number.
	ErrNegativeID = errors.New("id must be positive")

	// ErrStringTooLong means username or email exceeds its field
	// capacity.
	ErrStringTooLong = errors.New("string is too long")

	// ErrUnrecognizedStatement means the first token is neither verb.
	ErrUnrecognizedStatement = errors.New("unrecognized statement")
)

// Prepare parses one statement line. Tokens after the insert payload are
// ignored, matching the original line format's scan semantics.
func Prepare(line string) (*Statement, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrUnrecognizedStatement
	}
	switch fields[0] {
	case "insert":
		return prepareInsert(fields)
	case "select":
		return &Statement{Type: StatementSelect}, nil
	default:
		return nil, ErrUnrecognizedStatement
	}
}

func prepareInsert(fields []string) (*Statement, error) {
	if len(fields) < 4 {
		return nil, ErrSyntax
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, ErrSyntax
	}
	if id < 0 {
		return nil, ErrNegativeID
	}
	if id > math.MaxUint32 {
		return nil, ErrSyntax
	}
	username, email := fields[2], fields[3]
	if len(username) > pager.UsernameSize {
		return nil, ErrStringTooLong
	}
	if len(email) > pager.EmailSize {
		return nil, ErrStringTooLong
	}
	return &Statement{
		Type: StatementInsert,
		Row:  pager.Row{ID: uint32(id), Username: username, Email: email},
	}, nil
}
