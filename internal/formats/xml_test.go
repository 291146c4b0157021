package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/concordkit/concord/core/concordance"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<concordance>
  <hit ref="strasbourg_1" genre="verse">
    <token lemma="en">En</token>
    <token kw="true" lemma="icel">icel</token>
    <token>tens</token>
  </hit>
  <hit ref="strasbourg_2">
    <token kw="1">chevaliers</token>
  </hit>
</concordance>
`

func TestXMLReaderRead(t *testing.T) {
	xr := &XMLReader{}
	cnc, err := xr.Read(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cnc.Len() != 2 {
		t.Fatalf("got %d hits, want 2", cnc.Len())
	}

	h := cnc.Hits[0]
	if h.Ref != "strasbourg_1" {
		t.Errorf("ref = %q", h.Ref)
	}
	if h.Tags["genre"] != "verse" {
		t.Errorf("hit tags = %v", h.Tags)
	}
	if got := h.Text(concordance.SelAll); got != "En icel tens" {
		t.Errorf("text = %q", got)
	}
	if len(h.Keywords) != 1 || h.Keywords[0] != 1 {
		t.Errorf("keywords = %v, want [1]", h.Keywords)
	}
	if got, _ := h.Tokens[1].Tag("lemma"); got != "icel" {
		t.Errorf("token lemma = %q", got)
	}

	// kw="1" is accepted too.
	if len(cnc.Hits[1].Keywords) != 1 {
		t.Errorf("hit 2 keywords = %v", cnc.Hits[1].Keywords)
	}
}

func TestXMLReaderCustomXPath(t *testing.T) {
	doc := `<export><results><hit><token kw="true">cat</token></hit></results></export>`
	xr := &XMLReader{HitXPath: "//results/hit"}
	cnc, err := xr.Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cnc.Len() != 1 {
		t.Errorf("got %d hits, want 1", cnc.Len())
	}

	xr = &XMLReader{HitXPath: "//["}
	if _, err := xr.Read(strings.NewReader(doc)); err == nil {
		t.Error("invalid xpath should be rejected")
	}
}

func TestXMLRoundTrip(t *testing.T) {
	h := concordance.NewHit([]string{"the", "don't", "sat"}, []int{1})
	h.Ref = "r1"
	h.Tags["genre"] = "prose"
	h.Tokens[1].SetTag("pos", "VERB")
	h.SplitToken(1, []string{"do", "n't"})
	cnc := concordance.New()
	cnc.Append(h)

	var buf bytes.Buffer
	if err := WriteXML(&buf, cnc); err != nil {
		t.Fatalf("WriteXML failed: %v", err)
	}

	xr := &XMLReader{}
	got, err := xr.Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("got %d hits, want 1", got.Len())
	}

	gh := got.Hits[0]
	if gh.UUID != h.UUID {
		t.Errorf("uuid not preserved")
	}
	if gh.Text(concordance.SelAll) != "the do n't sat" {
		t.Errorf("text = %q", gh.Text(concordance.SelAll))
	}
	// The split survives the round trip: head keeps display and span,
	// the sibling stays suppressed.
	if gh.Tokens[1].Display != "don't" || gh.Tokens[1].Span != 2 {
		t.Errorf("head token = %+v", gh.Tokens[1])
	}
	if gh.Tokens[2].Display != "" {
		t.Errorf("sibling display = %q, want empty", gh.Tokens[2].Display)
	}
	if gh.DisplayText(concordance.SelAll) != "the don't sat" {
		t.Errorf("DisplayText = %q", gh.DisplayText(concordance.SelAll))
	}
	if len(gh.Keywords) != 1 || gh.Keywords[0] != 1 {
		t.Errorf("keywords = %v, want [1]", gh.Keywords)
	}
	if got, _ := gh.Tokens[1].Tag("pos"); got != "VERB" {
		t.Errorf("token pos = %q", got)
	}
}
