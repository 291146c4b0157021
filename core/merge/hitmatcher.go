// Package merge pairs hits across two concordances and merges annotation
// from one into the other.
package merge

import (
	"strings"

	"github.com/google/uuid"

	"github.com/concordkit/concord/core/concordance"
)

// Strategy names the hit-matching strategies. The set is closed: workflow
// files select a strategy by name through ParseStrategy, never by runtime
// dispatch on arbitrary strings.
type Strategy int

// Matching strategies, in priority order.
const (
	// StrategyStableID matches on the immutable hit UUID.
	StrategyStableID Strategy = iota
	// StrategyReference matches on the reference string, breaking ties by
	// keyword and text similarity.
	StrategyReference
	// StrategyPositional matches hits at the same ordinal position.
	StrategyPositional
)

// ParseStrategy converts a workflow strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "stable-id":
		return StrategyStableID, true
	case "reference":
		return StrategyReference, true
	case "positional":
		return StrategyPositional, true
	}
	return 0, false
}

// String returns the workflow name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyStableID:
		return "stable-id"
	case StrategyReference:
		return "reference"
	case StrategyPositional:
		return "positional"
	}
	return "unknown"
}

// HitMatcher locates the hit in a target concordance that corresponds to a
// probe hit from another concordance. Enabled strategies are tried in
// fixed priority order: stable id, then reference, then position.
type HitMatcher struct {
	UseUUID  bool
	UseRef   bool
	UseOrder bool

	target *concordance.Concordance
	byUUID map[uuid.UUID]int
	byRef  map[string][]int
}

// NewHitMatcher builds a matcher over the target concordance with all
// strategies enabled. Index construction is one-time; the target must not
// be reordered while the matcher is in use (appends are safe).
func NewHitMatcher(target *concordance.Concordance) *HitMatcher {
	m := &HitMatcher{
		UseUUID:  true,
		UseRef:   true,
		UseOrder: true,
		target:   target,
		byUUID:   make(map[uuid.UUID]int),
		byRef:    make(map[string][]int),
	}
	for i, h := range target.Hits {
		m.byUUID[h.UUID] = i
		if h.Ref != "" {
			m.byRef[h.Ref] = append(m.byRef[h.Ref], i)
		}
	}
	return m
}

// ForStrategy returns a matcher with only the strategies implied by s
// enabled: stable-id keeps the full chain, reference disables the UUID
// lookup, positional uses order alone.
func ForStrategy(target *concordance.Concordance, s Strategy) *HitMatcher {
	m := NewHitMatcher(target)
	switch s {
	case StrategyStableID:
	case StrategyReference:
		m.UseUUID = false
	case StrategyPositional:
		m.UseUUID = false
		m.UseRef = false
	}
	return m
}

// Match returns the index of the target hit corresponding to probe, where
// pos is the probe's ordinal position in its own concordance. The second
// return is false when no strategy produced a single unambiguous match.
//
// When the reference strategy is enabled and the probe carries a
// reference, its verdict is final: an unknown or ambiguous reference never
// falls through to positional matching, which would pair unrelated hits.
func (m *HitMatcher) Match(probe *concordance.Hit, pos int) (int, bool) {
	if m.UseUUID {
		if i, ok := m.byUUID[probe.UUID]; ok {
			return i, true
		}
	}
	if m.UseRef && probe.Ref != "" {
		candidates := m.byRef[probe.Ref]
		switch len(candidates) {
		case 0:
			return 0, false
		case 1:
			return candidates[0], true
		default:
			return m.disambiguate(probe, candidates)
		}
	}
	if m.UseOrder && pos >= 0 && pos < len(m.target.Hits) {
		return pos, true
	}
	return 0, false
}

// disambiguate breaks a reference-string tie. Candidates are first
// filtered by keyword-text compatibility, then by whole-text similarity;
// only a single survivor is a match.
func (m *HitMatcher) disambiguate(probe *concordance.Hit, candidates []int) (int, bool) {
	probeKw := probe.Text(concordance.SelKeywords)

	var kwSurvivors []int
	for _, i := range candidates {
		candKw := m.target.Hits[i].Text(concordance.SelKeywords)
		// An empty keyword rendering on either side is compatible with
		// anything.
		if probeKw == "" || candKw == "" || probeKw == candKw {
			kwSurvivors = append(kwSurvivors, i)
		}
	}

	var survivors []int
	for _, i := range kwSurvivors {
		if textCompatible(m.target.Hits[i].Text(concordance.SelAll), probe.Text(concordance.SelAll)) {
			survivors = append(survivors, i)
		}
	}
	if len(survivors) == 1 {
		return survivors[0], true
	}
	return 0, false
}

// textCompatible reports whether two renderings of a hit plausibly show
// the same text modulo minor context trimming or expansion at the edges.
// The longer rendering is trimmed at both ends before the substring test;
// the trim width is capped so gross mismatches still fail.
func textCompatible(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	longer, shorter := ar, br
	if len(ar) < len(br) {
		longer, shorter = br, ar
	}
	k := len(longer) - len(shorter)
	if limit := (len(longer) - len(shorter)/3) / 2; limit < k {
		k = limit
	}
	if k < 0 {
		k = 0
	}
	if 2*k >= len(longer) {
		return false
	}
	trimmed := string(longer[k : len(longer)-k])
	return strings.Contains(string(shorter), trimmed) || strings.Contains(trimmed, string(shorter))
}
