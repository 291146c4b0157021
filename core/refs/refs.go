// Package refs parses the structured form of hit reference strings.
//
// References are free-form provenance keys; many corpora follow the
// convention `text_id[, locus]* [: position[-end]]` and parsing them gives
// importers validation and reporting a sort key. Parsing is best-effort:
// a reference that does not follow the convention stays opaque.
package refs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	cerrors "github.com/concordkit/concord/core/errors"
)

// Ref is the structured form of a reference string.
type Ref struct {
	// TextID identifies the source text (e.g. "strasbourg", "aucassin_12").
	TextID string `json:"text_id"`

	// Loci are the intermediate location segments (page, column, line),
	// in order of appearance.
	Loci []string `json:"loci,omitempty"`

	// Position is the token or character position within the locus
	// (0 when absent).
	Position int `json:"position,omitempty"`

	// End is the end of a position range (0 for a single position).
	End int `json:"end,omitempty"`

	// Raw is the reference string as parsed.
	Raw string `json:"raw,omitempty"`
}

// refGrammar is the participle grammar for conventional references.
// Examples: "strasbourg", "strasbourg, 42", "Luke 2:1", "aucassin, 12, 3: 45-47"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	TextID string        `@Ident`
	Loci   []string      `( ","? @(Ident | Int) )*`
	Pos    *positionPart `( ":" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type positionPart struct {
	Start int  `@Int`
	End   *int `( "-" @Int )?`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_.']*`},
	{Name: "Punct", Pattern: `[,:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a conventional reference string. Callers treating references
// as opaque keys should ignore the error and keep the raw string.
func Parse(s string) (*Ref, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, cerrors.NewParse("ref", "", "empty reference string")
	}

	parsed, err := refParser.ParseString("", trimmed)
	if err != nil {
		return nil, &cerrors.ParseError{Format: "ref", Message: fmt.Sprintf("%q", trimmed), Err: err}
	}

	ref := &Ref{
		TextID: parsed.TextID,
		Loci:   parsed.Loci,
		Raw:    trimmed,
	}
	if parsed.Pos != nil {
		ref.Position = parsed.Pos.Start
		if parsed.Pos.End != nil {
			ref.End = *parsed.Pos.End
		}
	}
	return ref, nil
}

// Valid reports whether the string parses as a conventional reference.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the canonical rendering of the reference.
func (r *Ref) String() string {
	var sb strings.Builder
	sb.WriteString(r.TextID)
	for _, locus := range r.Loci {
		sb.WriteString(", ")
		sb.WriteString(locus)
	}
	if r.Position > 0 {
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(r.Position))
		if r.End > 0 {
			sb.WriteString("-")
			sb.WriteString(strconv.Itoa(r.End))
		}
	}
	return sb.String()
}

// IsRange reports whether the reference spans a position range.
func (r *Ref) IsRange() bool {
	return r.End > 0 && r.End > r.Position
}

// SameText reports whether two references point into the same source text.
func (r *Ref) SameText(other *Ref) bool {
	return other != nil && r.TextID == other.TextID
}

// Before orders references for reporting: by text id, then loci
// lexicographically, then position. It is a total order over parsed refs.
func (r *Ref) Before(other *Ref) bool {
	if r.TextID != other.TextID {
		return r.TextID < other.TextID
	}
	n := len(r.Loci)
	if len(other.Loci) < n {
		n = len(other.Loci)
	}
	for i := 0; i < n; i++ {
		if r.Loci[i] != other.Loci[i] {
			return locusLess(r.Loci[i], other.Loci[i])
		}
	}
	if len(r.Loci) != len(other.Loci) {
		return len(r.Loci) < len(other.Loci)
	}
	return r.Position < other.Position
}

// locusLess compares two locus segments, numerically when both are numbers.
func locusLess(a, b string) bool {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}
