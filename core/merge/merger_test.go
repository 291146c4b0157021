package merge

import (
	"errors"
	"testing"

	"github.com/concordkit/concord/core/align"
	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
)

// testTokenMerger disables the aligner's similarity guard so short
// synthetic hits can be merged.
func testTokenMerger() *TokenMerger {
	al := align.New()
	al.Ratio = 0
	return &TokenMerger{Aligner: al}
}

func TestMergeTags(t *testing.T) {
	target := map[string]string{"pos": "NOUN", "lemma": "cat"}
	source := map[string]string{"pos": "VERB", "gloss": "feline"}

	got := MergeTags(copyTags(target), source, false)
	if got["pos"] != "NOUN" {
		t.Errorf("add-only merge overwrote pos: %q", got["pos"])
	}
	if got["gloss"] != "feline" {
		t.Errorf("add-only merge dropped new key: %q", got["gloss"])
	}

	got = MergeTags(copyTags(target), source, true)
	if got["pos"] != "VERB" {
		t.Errorf("overwrite merge kept pos: %q", got["pos"])
	}
	if got["lemma"] != "cat" {
		t.Errorf("overwrite merge dropped unrelated key: %q", got["lemma"])
	}

	if got := MergeTags(nil, source, false); got["gloss"] != "feline" {
		t.Errorf("merge into nil map = %v", got)
	}
}

func TestMergeTagsIdempotent(t *testing.T) {
	target := map[string]string{"pos": "NOUN"}
	source := map[string]string{"pos": "VERB", "gloss": "feline"}

	once := MergeTags(copyTags(target), source, false)
	twice := MergeTags(copyTags(once), source, false)
	if len(once) != len(twice) {
		t.Fatalf("second merge changed size: %d then %d", len(once), len(twice))
	}
	for k, v := range once {
		if twice[k] != v {
			t.Errorf("second merge changed %q: %q then %q", k, v, twice[k])
		}
	}
}

func TestTokenMergerIDTag(t *testing.T) {
	a := concordance.NewHit([]string{"li", "chevaliers"}, []int{1})
	a.Tokens[0].SetTag("w_id", "w101")
	a.Tokens[1].SetTag("w_id", "w102")

	b := concordance.NewHit([]string{"chevaliers", "li"}, nil)
	b.Tokens[0].SetTag("w_id", "w102")
	b.Tokens[0].SetTag("pos", "NOUN")
	b.Tokens[1].SetTag("w_id", "w101")
	b.Tokens[1].SetTag("pos", "DET")

	tm := &TokenMerger{IDTag: "w_id"}
	notes, err := tm.MergeHit(a, b)
	if err != nil {
		t.Fatalf("MergeHit failed: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("unexpected notes: %v", notes)
	}
	if got, _ := a.Tokens[0].Tag("pos"); got != "DET" {
		t.Errorf("token 0 pos = %q, want DET", got)
	}
	if got, _ := a.Tokens[1].Tag("pos"); got != "NOUN" {
		t.Errorf("token 1 pos = %q, want NOUN", got)
	}
}

func TestTokenMergerAlignedTags(t *testing.T) {
	a := concordance.NewHit([]string{"The", "cat", "sat"}, []int{1})
	b := concordance.NewHit([]string{"The", "big", "cat", "sat"}, []int{2})
	for i, pos := range []string{"DET", "ADJ", "NOUN", "VERB"} {
		b.Tokens[i].SetTag("pos", pos)
	}

	tm := testTokenMerger()
	if _, err := tm.MergeHit(a, b); err != nil {
		t.Fatalf("MergeHit failed: %v", err)
	}

	// "cat" gets its annotation from b's "cat", not from the inserted
	// "big" that precedes it.
	want := []string{"DET", "NOUN", "VERB"}
	for i, w := range want {
		if got, _ := a.Tokens[i].Tag("pos"); got != w {
			t.Errorf("token %d pos = %q, want %q", i, got, w)
		}
	}
	if len(a.Tokens) != 3 {
		t.Errorf("merge changed token count: %d", len(a.Tokens))
	}
}

func TestTokenMergerSplit(t *testing.T) {
	a := concordance.NewHit([]string{"I", "don't", "know"}, []int{1})
	b := concordance.NewHit([]string{"I", "do", "n't", "know"}, nil)
	for i, pos := range []string{"PRON", "AUX", "PART", "VERB"} {
		b.Tokens[i].SetTag("pos", pos)
	}

	tm := testTokenMerger()
	if _, err := tm.MergeHit(a, b); err != nil {
		t.Fatalf("MergeHit failed: %v", err)
	}

	if len(a.Tokens) != 4 {
		t.Fatalf("got %d tokens after split, want 4", len(a.Tokens))
	}
	wantForms := []string{"I", "do", "n't", "know"}
	wantPos := []string{"PRON", "AUX", "PART", "VERB"}
	for i := range wantForms {
		if a.Tokens[i].Form != wantForms[i] {
			t.Errorf("token %d form = %q, want %q", i, a.Tokens[i].Form, wantForms[i])
		}
		if got, _ := a.Tokens[i].Tag("pos"); got != wantPos[i] {
			t.Errorf("token %d pos = %q, want %q", i, got, wantPos[i])
		}
	}

	// The head keeps the original display form and covers both siblings.
	if a.Tokens[1].Display != "don't" || a.Tokens[1].Span != 2 {
		t.Errorf("head token = %+v, want display don't span 2", a.Tokens[1])
	}
	if a.Tokens[2].Display != "" {
		t.Errorf("sibling display = %q, want empty", a.Tokens[2].Display)
	}
	if got := a.DisplayText(concordance.SelAll); got != "I don't know" {
		t.Errorf("DisplayText = %q, want unchanged rendering", got)
	}
	// Keyword status stays with the head.
	if !a.IsKeyword(1) || a.IsKeyword(2) {
		t.Errorf("keywords after split = %v", a.Keywords)
	}
}

func TestTokenMergerNeverOverwritesFormOneToOne(t *testing.T) {
	a := concordance.NewHit([]string{"li", "chevaliers", "sunt"}, []int{1})
	b := concordance.NewHit([]string{"le", "chevaliers", "sont"}, []int{1})
	b.Tokens[2].SetTag("pos", "AUX")

	tm := testTokenMerger()
	if _, err := tm.MergeHit(a, b); err != nil {
		t.Fatalf("MergeHit failed: %v", err)
	}

	if a.Tokens[0].Form != "li" || a.Tokens[2].Form != "sunt" {
		t.Errorf("1:1 merge rewrote forms: %v", a.Forms())
	}
	if got, _ := a.Tokens[2].Tag("pos"); got != "AUX" {
		t.Errorf("token 2 pos = %q, want AUX", got)
	}
}

func TestTokenMergerSkipsAlreadySplitToken(t *testing.T) {
	a := concordance.NewHit([]string{"don't"}, nil)
	a.SplitToken(0, []string{"do", "n't"})
	// Re-fuse the forms so the aligner maps the head to two b-tokens
	// again while the head still carries its split width.
	a.Tokens = a.Tokens[:1]
	a.Tokens[0].Form = "don't"

	b := concordance.NewHit([]string{"do", "n't"}, nil)

	tm := testTokenMerger()
	notes, err := tm.MergeHit(a, b)
	if err != nil {
		t.Fatalf("MergeHit failed: %v", err)
	}
	if len(notes) == 0 {
		t.Error("skipped split produced no diagnostic note")
	}
	if len(a.Tokens) != 1 {
		t.Errorf("skip still split the token: %v", a.Forms())
	}
}

func TestConcordanceMergerUpdatesMatchedHits(t *testing.T) {
	h := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h.Ref = "r1"
	cnc := mkConcordance(h)

	probe := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	probe.Ref = "r1"
	probe.Tags["genre"] = "prose"
	probe.Tokens[1].SetTag("pos", "NOUN")
	other := mkConcordance(probe)

	m := &ConcordanceMerger{
		Strategy:    StrategyReference,
		TokenMerger: testTokenMerger(),
	}
	if _, err := m.Merge(cnc, other); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if cnc.Len() != 1 {
		t.Fatalf("hit count changed: %d", cnc.Len())
	}
	if got := cnc.Hits[0].Tags["genre"]; got != "prose" {
		t.Errorf("hit tag genre = %q, want prose", got)
	}
	if got, _ := cnc.Hits[0].Tokens[1].Tag("pos"); got != "NOUN" {
		t.Errorf("token pos = %q, want NOUN", got)
	}
}

func TestConcordanceMergerIdempotent(t *testing.T) {
	h := concordance.NewHit([]string{"the", "cat"}, []int{1})
	h.Ref = "r1"
	h.Tags["genre"] = "verse"
	cnc := mkConcordance(h)

	probe := concordance.NewHit([]string{"the", "cat"}, []int{1})
	probe.Ref = "r1"
	probe.Tags["genre"] = "prose"
	probe.Tags["lang"] = "fro"
	probe.Tokens[1].SetTag("pos", "NOUN")
	other := mkConcordance(probe)

	m := &ConcordanceMerger{
		Strategy:    StrategyReference,
		TokenMerger: testTokenMerger(),
	}
	if _, err := m.Merge(cnc, other); err != nil {
		t.Fatalf("first Merge failed: %v", err)
	}
	first := copyTags(cnc.Hits[0].Tags)

	if _, err := m.Merge(cnc, other); err != nil {
		t.Fatalf("second Merge failed: %v", err)
	}
	second := cnc.Hits[0].Tags
	if len(first) != len(second) {
		t.Fatalf("second merge changed tag count: %d then %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("second merge changed %q: %q then %q", k, v, second[k])
		}
	}
	if second["genre"] != "verse" {
		t.Errorf("add-only merge overwrote genre: %q", second["genre"])
	}
}

func TestConcordanceMergerAddAndDelete(t *testing.T) {
	h0 := concordance.NewHit([]string{"a"}, nil)
	h0.Ref = "r1"
	h1 := concordance.NewHit([]string{"b"}, nil)
	h1.Ref = "r2"
	cnc := mkConcordance(h0, h1)

	p0 := concordance.NewHit([]string{"b"}, nil)
	p0.Ref = "r2"
	p1 := concordance.NewHit([]string{"c"}, nil)
	p1.Ref = "r3"
	other := mkConcordance(p0, p1)

	m := &ConcordanceMerger{
		Strategy: StrategyReference,
		AddHits:  true,
		DelHits:  true,
	}
	if _, err := m.Merge(cnc, other); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if cnc.Len() != 2 {
		t.Fatalf("got %d hits, want 2", cnc.Len())
	}
	if cnc.Hits[0].Ref != "r2" || cnc.Hits[1].Ref != "r3" {
		t.Errorf("refs after merge = %q, %q; want r2, r3", cnc.Hits[0].Ref, cnc.Hits[1].Ref)
	}
}

func TestConcordanceMergerDissimilarHitFails(t *testing.T) {
	h := concordance.NewHit([]string{"aaa", "aaa"}, nil)
	cnc := mkConcordance(h)
	probe := concordance.NewHit([]string{"zzz", "zzz"}, nil)
	other := mkConcordance(probe)

	m := &ConcordanceMerger{
		Strategy:    StrategyPositional,
		TokenMerger: &TokenMerger{}, // default aligner, guard active
	}
	_, err := m.Merge(cnc, other)
	if err == nil {
		t.Fatal("Merge of dissimilar hits should fail")
	}
	if !errors.Is(err, cerrors.ErrTooDissimilar) {
		t.Errorf("err = %v, want ErrTooDissimilar", err)
	}
}

func copyTags(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
