package todo

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a position does not address an
// element of a store.
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexError describes an invalid position in a store.
type IndexError struct {
	Kind  string // "task" or "category"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Len)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

func checkIndex(kind string, i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Kind: kind, Index: i, Len: n}
	}
	return nil
}
