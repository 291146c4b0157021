package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/concordkit/concord/core/concordance"
)

func TestReadTable(t *testing.T) {
	input := `uuid,ref,lcx,keywords,rcx,tags
,strasbourg_1,en icel,tens,que noe vesquié,genre=verse;lang=fro
,strasbourg_2,,chevaliers,,
`
	cnc, err := ReadTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if cnc.Len() != 2 {
		t.Fatalf("got %d hits, want 2", cnc.Len())
	}

	h := cnc.Hits[0]
	if h.Ref != "strasbourg_1" {
		t.Errorf("ref = %q", h.Ref)
	}
	wantForms := []string{"en", "icel", "tens", "que", "noe", "vesquié"}
	forms := h.Forms()
	if len(forms) != len(wantForms) {
		t.Fatalf("forms = %v, want %v", forms, wantForms)
	}
	for i := range wantForms {
		if forms[i] != wantForms[i] {
			t.Errorf("forms = %v, want %v", forms, wantForms)
			break
		}
	}
	if len(h.Keywords) != 1 || h.Keywords[0] != 2 {
		t.Errorf("keywords = %v, want [2]", h.Keywords)
	}
	if h.Tags["genre"] != "verse" || h.Tags["lang"] != "fro" {
		t.Errorf("tags = %v", h.Tags)
	}

	// Second hit: keyword only, no context.
	if got := cnc.Hits[1].Text(concordance.SelKeywords); got != "chevaliers" {
		t.Errorf("keyword text = %q", got)
	}
}

func TestReadTableRejectsMissingKeywordsColumn(t *testing.T) {
	input := "ref,text\nr1,hello world\n"
	if _, err := ReadTable(strings.NewReader(input)); err == nil {
		t.Error("ReadTable should reject a file without a keywords column")
	}
}

func TestReadTableExtraColumnsBecomeTags(t *testing.T) {
	input := "ref,keywords,genre\nr1,cat,prose\n"
	cnc, err := ReadTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if got := cnc.Hits[0].Tags["genre"]; got != "prose" {
		t.Errorf("genre tag = %q, want prose", got)
	}
}

func TestTableRoundTrip(t *testing.T) {
	h := concordance.NewHit([]string{"the", "cat", "sat"}, []int{1})
	h.Ref = "r1"
	h.Tags["genre"] = "prose"
	noKw := concordance.NewHit([]string{"just", "tokens"}, nil)
	noKw.Ref = "r2"
	cnc := concordance.New()
	cnc.Append(h)
	cnc.Append(noKw)

	var buf bytes.Buffer
	if err := WriteTable(&buf, cnc); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}

	if got.Len() != 2 {
		t.Fatalf("got %d hits, want 2", got.Len())
	}
	if got.Hits[0].UUID != h.UUID {
		t.Errorf("uuid not preserved: %v", got.Hits[0].UUID)
	}
	if got.Hits[0].Text(concordance.SelAll) != "the cat sat" {
		t.Errorf("text = %q", got.Hits[0].Text(concordance.SelAll))
	}
	if len(got.Hits[0].Keywords) != 1 || got.Hits[0].Keywords[0] != 1 {
		t.Errorf("keywords = %v, want [1]", got.Hits[0].Keywords)
	}
	if got.Hits[0].Tags["genre"] != "prose" {
		t.Errorf("tags = %v", got.Hits[0].Tags)
	}
	if got.Hits[1].Text(concordance.SelAll) != "just tokens" {
		t.Errorf("keywordless hit text = %q", got.Hits[1].Text(concordance.SelAll))
	}
	if len(got.Hits[1].Keywords) != 0 {
		t.Errorf("keywordless hit grew keywords: %v", got.Hits[1].Keywords)
	}
}

func TestEncodeParseTags(t *testing.T) {
	tags := map[string]string{"b": "2", "a": "1"}
	encoded := encodeTags(tags)
	if encoded != "a=1;b=2" {
		t.Errorf("encodeTags = %q, want sorted a=1;b=2", encoded)
	}
	back := parseTags(encoded)
	if back["a"] != "1" || back["b"] != "2" {
		t.Errorf("parseTags = %v", back)
	}
	if got := parseTags(""); len(got) != 0 {
		t.Errorf("parseTags(\"\") = %v, want empty", got)
	}
}
