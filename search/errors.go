package search

import "errors"

var (
	ErrIndexNotFound = errors.New("search: index not found")
	ErrIndexExists   = errors.New("search: index already exists")

	// ErrInvalidDocument is returned for documents the index cannot store
	// without losing data.
	ErrInvalidDocument = errors.New("search: invalid document")
)

// Op names the FT/hash command that failed.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHSet        = "HSET"
	OpHGetAll     = "HGETALL"
	OpDel         = "DEL"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
