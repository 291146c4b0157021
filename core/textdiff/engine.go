package textdiff

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum anchor length used by the coarse pass.
const DefaultThreshold = 20

// Engine computes edit scripts between two strings.
type Engine struct {
	// Threshold is the minimum length of a pass-1 matching block to be
	// used as a segment anchor. Values < 1 fall back to DefaultThreshold.
	Threshold int

	// OnePass skips the coarse pass and diffs the whole inputs exactly.
	// Use it when the inputs are known to be short (one sentence); it
	// avoids pass-1 overhead and false segment boundaries.
	OnePass bool
}

// segment is a pair of anchored sub-sequences with their global offsets.
type segment struct {
	aOff, bOff int
	a, b       []string
}

// explode converts a string to a one-rune-per-element sequence so the
// line-oriented matcher operates at character granularity.
func explode(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// Diff returns the ordered edit operations transforming a into b.
// Coordinates in the result are rune offsets.
func (e *Engine) Diff(a, b string) []Op {
	aSeq := explode(a)
	bSeq := explode(b)

	threshold := e.Threshold
	if threshold < 1 {
		threshold = DefaultThreshold
	}

	var segs []segment
	if e.OnePass {
		segs = []segment{{0, 0, aSeq, bSeq}}
	} else {
		segs = anchorSegments(aSeq, bSeq, threshold)
	}

	var ops []Op
	for _, seg := range segs {
		exact := difflib.NewMatcherWithJunk(seg.a, seg.b, false, nil)
		segOps := exact.GetOpCodes()

		// Merge an equal run that straddles the segment boundary into
		// the previous equal op.
		start := 0
		if len(segOps) > 0 && segOps[0].Tag == 'e' &&
			len(ops) > 0 && ops[len(ops)-1].Kind == Equal {
			last := &ops[len(ops)-1]
			last.AEnd = segOps[0].I2 + seg.aOff
			last.BEnd = segOps[0].J2 + seg.bOff
			start = 1
		}
		for _, oc := range segOps[start:] {
			ops = append(ops, Op{
				Kind:   kindForTag(oc.Tag),
				AStart: oc.I1 + seg.aOff,
				AEnd:   oc.I2 + seg.aOff,
				BStart: oc.J1 + seg.bOff,
				BEnd:   oc.J2 + seg.bOff,
			})
		}
	}
	return ops
}

// anchorSegments runs the coarse pass: a matcher with the junk heuristic
// enabled finds matching blocks, and every block of at least threshold
// runes becomes a cut point. The text before each cut point forms one
// segment; the anchored block itself is re-diffed as part of the following
// segment, where the exact matcher rediscovers it cheaply.
func anchorSegments(aSeq, bSeq []string, threshold int) []segment {
	coarse := difflib.NewMatcherWithJunk(aSeq, bSeq, true, nil)
	blocks := coarse.GetMatchingBlocks()

	var segs []segment
	lastA, lastB := 0, 0
	for _, bl := range blocks {
		if bl.Size >= threshold && bl.A > lastA {
			segs = append(segs, segment{
				aOff: lastA,
				bOff: lastB,
				a:    aSeq[lastA:bl.A],
				b:    bSeq[lastB:bl.B],
			})
			lastA, lastB = bl.A, bl.B
		}
	}
	segs = append(segs, segment{
		aOff: lastA,
		bOff: lastB,
		a:    aSeq[lastA:],
		b:    bSeq[lastB:],
	})
	return segs
}

func kindForTag(tag byte) OpKind {
	switch tag {
	case 'e':
		return Equal
	case 'r':
		return Replace
	case 'd':
		return Delete
	case 'i':
		return Insert
	}
	// difflib emits no other tags
	panic("textdiff: unknown opcode tag " + string(tag))
}

// QuickRatio returns a cheap upper-bound estimate of the similarity of two
// strings: the ratio of matching runes (by multiset intersection) to total
// length, in [0,1]. It is used to guard the expensive diff against
// unrelated inputs.
func QuickRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	m := difflib.NewMatcherWithJunk(explode(a), explode(b), false, nil)
	return m.QuickRatio()
}
