package concordance

// types.go - Consolidated concordance type definitions
// All importers, exporters and mergers should use these types rather than
// defining their own.

import (
	"github.com/google/uuid"
)

// Selector specifies which tokens of a hit an operation applies to.
type Selector int

// Selector constants.
const (
	// SelAll selects every token of the hit.
	SelAll Selector = iota
	// SelLeft selects the tokens before the first keyword.
	SelLeft
	// SelRight selects the tokens after the last keyword.
	SelRight
	// SelKeywords selects the keyword tokens only.
	SelKeywords
)

// Token represents a single orthographic unit within a hit.
//
// Index is the token's identity within its owning hit and never changes
// across merges; Form, Display and Tags are mutable annotation state.
type Token struct {
	// Index is the position in the hit's token sequence (0-indexed).
	Index int `json:"index"`

	// Form is the surface form (the underlying data string).
	Form string `json:"form"`

	// Display is the rendering form. After a token split only the first
	// sibling keeps a non-empty Display so downstream renderers emit one
	// display form per original surface form.
	Display string `json:"display,omitempty"`

	// Span is the number of data tokens this display form covers
	// (1 for an ordinary token, N for the head of an N-way split).
	Span int `json:"span,omitempty"`

	// Tags contains the token-level annotation.
	Tags map[string]string `json:"tags,omitempty"`
}

// NewToken creates a token with the given index and form. Display defaults
// to the form and Span to 1.
func NewToken(index int, form string) *Token {
	return &Token{
		Index:   index,
		Form:    form,
		Display: form,
		Span:    1,
		Tags:    make(map[string]string),
	}
}

// Width returns the display span width of the token, treating the zero
// value as 1.
func (t *Token) Width() int {
	if t.Span < 1 {
		return 1
	}
	return t.Span
}

// SetTag sets a tag value, allocating the map if needed.
func (t *Token) SetTag(key, value string) {
	if t.Tags == nil {
		t.Tags = make(map[string]string)
	}
	t.Tags[key] = value
}

// Tag returns a tag value and whether it was present.
func (t *Token) Tag(key string) (string, bool) {
	if t.Tags == nil {
		return "", false
	}
	v, ok := t.Tags[key]
	return v, ok
}

// Hit represents one text excerpt: an ordered sequence of tokens plus
// record-level metadata. Token order is text order and is semantically
// significant.
type Hit struct {
	// UUID is the process-wide-unique stable identifier of the hit.
	UUID uuid.UUID `json:"uuid"`

	// Ref is the free-form provenance reference string.
	Ref string `json:"ref,omitempty"`

	// Tags contains hit-level annotation (metadata).
	Tags map[string]string `json:"tags,omitempty"`

	// Tokens is the ordered token sequence. The hit is the sole owner of
	// its tokens; tokens refer back to the hit by index only.
	Tokens []*Token `json:"tokens"`

	// Keywords holds the indices of the keyword tokens within Tokens.
	Keywords []int `json:"keywords,omitempty"`
}

// NewHit creates a hit with a fresh UUID from the given token forms.
func NewHit(forms []string, keywords []int) *Hit {
	h := &Hit{
		UUID:     uuid.New(),
		Tags:     make(map[string]string),
		Keywords: append([]int(nil), keywords...),
	}
	for i, form := range forms {
		h.Tokens = append(h.Tokens, NewToken(i, form))
	}
	return h
}

// Concordance is an ordered collection of hits. Order is preserved across
// merges unless hits are explicitly appended or removed.
type Concordance struct {
	Hits []*Hit `json:"hits"`
}

// New creates an empty concordance.
func New() *Concordance {
	return &Concordance{}
}

// Append adds a hit to the end of the concordance.
func (c *Concordance) Append(h *Hit) {
	c.Hits = append(c.Hits, h)
}

// Len returns the number of hits.
func (c *Concordance) Len() int {
	return len(c.Hits)
}
