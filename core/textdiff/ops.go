// Package textdiff computes edit scripts between two character sequences.
//
// It wraps the longest-common-subsequence matcher from pmezard/go-difflib
// with a two-pass strategy: a coarse pass with the junk heuristic enabled
// finds long unique anchors, then an exact pass diffs each anchored segment
// independently. The two-pass split keeps the quadratic cost of the exact
// matcher bounded on large texts.
package textdiff

import "fmt"

// OpKind classifies an edit operation.
type OpKind int

// Edit operation kinds.
const (
	// Equal means a[AStart:AEnd] == b[BStart:BEnd].
	Equal OpKind = iota
	// Replace means a[AStart:AEnd] should be replaced by b[BStart:BEnd].
	Replace
	// Delete means a[AStart:AEnd] should be deleted.
	Delete
	// Insert means b[BStart:BEnd] should be inserted at AStart.
	Insert
)

// String returns the difflib-style tag for the kind.
func (k OpKind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Replace:
		return "replace"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is a single edit operation over two rune sequences. Coordinates are
// rune offsets. Ops are produced in increasing AStart order, tile the full
// coordinate ranges of both sequences and never overlap.
type Op struct {
	Kind   OpKind
	AStart int
	AEnd   int
	BStart int
	BEnd   int
}

func (op Op) String() string {
	return fmt.Sprintf("%s a[%d:%d] b[%d:%d]", op.Kind, op.AStart, op.AEnd, op.BStart, op.BEnd)
}
