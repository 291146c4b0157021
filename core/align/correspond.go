package align

import (
	"github.com/concordkit/concord/internal/logging"
)

// correspond.go - helpers over a computed correspondence

// IdentityAlign produces the positional 1:1 correspondence of two streams
// already known to share a tokenization. A length mismatch is logged but
// tolerated: the overhang is left unaligned.
func IdentityAlign(aToks, bToks []IDToken) []Entry {
	if len(aToks) != len(bToks) {
		logging.Warn("identity alignment on streams with unequal token counts",
			"a_tokens", len(aToks), "b_tokens", len(bToks))
	}
	n := len(aToks)
	if len(bToks) < n {
		n = len(bToks)
	}
	entries := make([]Entry, 0, len(aToks))
	for i := range aToks {
		if i < n {
			entries = append(entries, Entry{AID: aToks[i].ID, BIDs: []int{bToks[i].ID}})
		} else {
			entries = append(entries, Entry{AID: aToks[i].ID})
		}
	}
	return entries
}

// Reverse indexes a correspondence by b-id, mapping every b-token to the
// a-tokens it was matched with.
func Reverse(entries []Entry) map[int][]int {
	rev := make(map[int][]int)
	for _, e := range entries {
		for _, bid := range e.BIDs {
			rev[bid] = append(rev[bid], e.AID)
		}
	}
	return rev
}

// CarryTags transports per-b-token values onto a-ids through the reverse
// correspondence. A b-token matched with several a-tokens contributes its
// value to each of them.
func CarryTags(entries []Entry, bTags map[int]string) map[int][]string {
	rev := Reverse(entries)
	out := make(map[int][]string)
	for bid, val := range bTags {
		for _, aid := range rev[bid] {
			out[aid] = append(out[aid], val)
		}
	}
	return out
}
