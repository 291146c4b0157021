package merge

import (
	"testing"

	"github.com/concordkit/concord/core/concordance"
)

func mkConcordance(hits ...*concordance.Hit) *concordance.Concordance {
	c := concordance.New()
	for _, h := range hits {
		c.Append(h)
	}
	return c
}

func TestParseStrategy(t *testing.T) {
	for _, want := range []Strategy{StrategyStableID, StrategyReference, StrategyPositional} {
		got, ok := ParseStrategy(want.String())
		if !ok || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", want.String(), got, ok)
		}
	}
	if _, ok := ParseStrategy("fuzzy"); ok {
		t.Error("ParseStrategy accepted an unknown name")
	}
}

func TestMatchByUUID(t *testing.T) {
	h0 := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h0.Ref = "Luke 2:1"
	h1 := concordance.NewHit([]string{"the", "dog", "ran"}, []int{1})
	h1.Ref = "Luke 2:1"
	target := mkConcordance(h0, h1)

	// Probe shares h1's stable id; the shared reference string must not
	// distract the matcher.
	probe := concordance.NewHit([]string{"completely", "different"}, nil)
	probe.UUID = h1.UUID
	probe.Ref = "Luke 2:1"

	m := NewHitMatcher(target)
	idx, ok := m.Match(probe, 0)
	if !ok || idx != 1 {
		t.Errorf("Match = %d, %v; want 1, true", idx, ok)
	}
}

func TestMatchByUniqueRef(t *testing.T) {
	h0 := concordance.NewHit([]string{"en", "icel", "tens"}, []int{1})
	h0.Ref = "strasbourg_42"
	h1 := concordance.NewHit([]string{"que", "noe", "vesquié"}, []int{1})
	h1.Ref = "strasbourg_43"
	target := mkConcordance(h0, h1)

	probe := concordance.NewHit([]string{"que", "noe", "vesquiet"}, []int{1})
	probe.Ref = "strasbourg_43"

	m := ForStrategy(target, StrategyReference)
	idx, ok := m.Match(probe, 0)
	if !ok || idx != 1 {
		t.Errorf("Match = %d, %v; want 1, true", idx, ok)
	}
}

func TestMatchRefTieBrokenByKeywords(t *testing.T) {
	h0 := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h0.Ref = "Luke 2:1"
	h1 := concordance.NewHit([]string{"the", "dog", "ran"}, []int{1})
	h1.Ref = "Luke 2:1"
	target := mkConcordance(h0, h1)

	probe := concordance.NewHit([]string{"the", "dog", "ran"}, []int{1})
	probe.Ref = "Luke 2:1"

	m := ForStrategy(target, StrategyReference)
	idx, ok := m.Match(probe, 0)
	if !ok || idx != 1 {
		t.Errorf("Match = %d, %v; want 1, true", idx, ok)
	}
}

func TestMatchRefVerdictIsFinal(t *testing.T) {
	h0 := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h0.Ref = "Luke 2:1"
	target := mkConcordance(h0)

	// Unknown reference must not fall through to the positional strategy
	// even though position 0 exists.
	probe := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	probe.Ref = "Luke 9:9"

	m := NewHitMatcher(target)
	if idx, ok := m.Match(probe, 0); ok {
		t.Errorf("Match on unknown ref = %d, true; want no match", idx)
	}
}

func TestMatchRefAmbiguousNoSurvivor(t *testing.T) {
	h0 := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h0.Ref = "Luke 2:1"
	h1 := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h1.Ref = "Luke 2:1"
	target := mkConcordance(h0, h1)

	probe := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	probe.Ref = "Luke 2:1"

	m := ForStrategy(target, StrategyReference)
	if idx, ok := m.Match(probe, 0); ok {
		t.Errorf("Match with two identical candidates = %d, true; want no match", idx)
	}
}

func TestMatchPositional(t *testing.T) {
	h0 := concordance.NewHit([]string{"a"}, nil)
	h1 := concordance.NewHit([]string{"b"}, nil)
	target := mkConcordance(h0, h1)

	probe := concordance.NewHit([]string{"x"}, nil)
	m := ForStrategy(target, StrategyPositional)

	if idx, ok := m.Match(probe, 1); !ok || idx != 1 {
		t.Errorf("Match(pos=1) = %d, %v; want 1, true", idx, ok)
	}
	if _, ok := m.Match(probe, 5); ok {
		t.Error("Match past the end of the target should fail")
	}
}

func TestTextCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "the cat sat on the mat", "the cat sat on the mat", true},
		{"wider context", "and so the cat sat on the mat indeed", "the cat sat on the mat", true},
		{"different text", "the cat sat on the mat", "a dog ran in the park", false},
		{"same length different text", "aaaa", "zzzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textCompatible(tt.a, tt.b); got != tt.want {
				t.Errorf("textCompatible(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
