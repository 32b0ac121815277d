package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Row codec
// ───────────────────────────────────────────────────────────────────────────
//
// Rows have a fixed schema and a fixed 291-byte serialized form:
//
//   field    | size | offset
//   ---------+------+-------
//   id       |    4 |      0   (uint32 LE)
//   username |   32 |      4   (zero-padded)
//   email    |  255 |     36   (zero-padded)
//
// The codec is total over any 291-byte region: it preserves whatever
// bytes are present and performs no validation. Length limits are
// enforced by the statement parser before a row reaches the codec.

const (
	// IDSize is the serialized size of the id field.
	IDSize = 4

	// UsernameSize is the capacity of the username field in bytes.
	UsernameSize = 32

	// EmailSize is the capacity of the email field in bytes.
	EmailSize = 255

	idOffset       = 0
	usernameOffset = idOffset + IDSize
	emailOffset    = usernameOffset + UsernameSize

	// RowSize is the total serialized size of a row.
	RowSize = IDSize + UsernameSize + EmailSize
)

// Row is the single logical record type of the engine.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// SerializeInto writes the row's 291-byte form at the start of dst.
// Strings longer than their field are truncated; shorter strings are
// zero-padded to the field size.
func (r *Row) SerializeInto(dst []byte) {
	if len(dst) < RowSize {
		panic("buffer too small for row")
	}
	binary.LittleEndian.PutUint32(dst[idOffset:], r.ID)
	putFixedString(dst[usernameOffset:usernameOffset+UsernameSize], r.Username)
	putFixedString(dst[emailOffset:emailOffset+EmailSize], r.Email)
}

// DeserializeRow reads a row from the 291-byte region at the start of
// src. String fields are cut at their first zero byte.
func DeserializeRow(src []byte) Row {
	if len(src) < RowSize {
		panic("buffer too small for row")
	}
	return Row{
		ID:       binary.LittleEndian.Uint32(src[idOffset:]),
		Username: fixedString(src[usernameOffset : usernameOffset+UsernameSize]),
		Email:    fixedString(src[emailOffset : emailOffset+EmailSize]),
	}
}

// String renders the row in the REPL's select output format.
func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}

// putFixedString copies s into dst and zero-fills the remainder. The
// destination may hold stale bytes from a shifted cell.
func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// fixedString decodes a zero-padded field.
func fixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
