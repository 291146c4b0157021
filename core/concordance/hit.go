package concordance

// hit.go - Hit selector, rendering and token-splitting helpers
// Note: Type definitions are in types.go

import (
	"sort"
	"strings"
)

// IsKeyword returns true if the token at index i is a keyword of the hit.
// Keyword status is a capability of the index, not of the token value.
func (h *Hit) IsKeyword(i int) bool {
	for _, k := range h.Keywords {
		if k == i {
			return true
		}
	}
	return false
}

// TokensFor returns the tokens selected by sel, in text order.
// Left and right context are only defined when the hit has keywords;
// without keywords they are empty.
func (h *Hit) TokensFor(sel Selector) []*Token {
	switch sel {
	case SelAll:
		return append([]*Token(nil), h.Tokens...)
	case SelKeywords:
		ks := append([]int(nil), h.Keywords...)
		sort.Ints(ks)
		var out []*Token
		for _, k := range ks {
			if k >= 0 && k < len(h.Tokens) {
				out = append(out, h.Tokens[k])
			}
		}
		return out
	case SelLeft:
		if len(h.Keywords) == 0 {
			return nil
		}
		var out []*Token
		for _, tok := range h.Tokens {
			if h.IsKeyword(tok.Index) {
				break
			}
			out = append(out, tok)
		}
		return out
	case SelRight:
		if len(h.Keywords) == 0 {
			return nil
		}
		var out []*Token
		for i := len(h.Tokens) - 1; i >= 0; i-- {
			if h.IsKeyword(h.Tokens[i].Index) {
				break
			}
			out = append(out, h.Tokens[i])
		}
		// collected back-to-front
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
		return out
	}
	return nil
}

// Text renders the selected tokens as a space-delimited string of forms.
func (h *Hit) Text(sel Selector) string {
	toks := h.TokensFor(sel)
	forms := make([]string, len(toks))
	for i, tok := range toks {
		forms[i] = tok.Form
	}
	return strings.Join(forms, " ")
}

// DisplayText renders the selected tokens as a space-delimited string of
// display forms, skipping tokens whose display form was suppressed by a
// split.
func (h *Hit) DisplayText(sel Selector) string {
	var forms []string
	for _, tok := range h.TokensFor(sel) {
		if tok.Display != "" {
			forms = append(forms, tok.Display)
		}
	}
	return strings.Join(forms, " ")
}

// SplitToken splits the token at index i into len(forms) sibling tokens.
// The original token keeps its display form and becomes the head of the
// split (Span = len(forms)); the inserted siblings carry an empty display
// form. All token indices and keyword indices after i are shifted.
// Keyword status stays with the head token only.
func (h *Hit) SplitToken(i int, forms []string) {
	if i < 0 || i >= len(h.Tokens) || len(forms) < 2 {
		return
	}
	head := h.Tokens[i]
	head.Form = forms[0]
	head.Span = len(forms)

	siblings := make([]*Token, 0, len(forms)-1)
	for _, form := range forms[1:] {
		sib := NewToken(0, form)
		sib.Display = ""
		siblings = append(siblings, sib)
	}

	rest := append([]*Token(nil), h.Tokens[i+1:]...)
	h.Tokens = append(h.Tokens[:i+1], siblings...)
	h.Tokens = append(h.Tokens, rest...)
	h.reindex()

	shift := len(forms) - 1
	for k, kw := range h.Keywords {
		if kw > i {
			h.Keywords[k] = kw + shift
		}
	}
}

// reindex restores Token.Index to the token's position in the sequence.
func (h *Hit) reindex() {
	for i, tok := range h.Tokens {
		tok.Index = i
	}
}

// Forms returns the surface forms of all tokens in text order.
func (h *Hit) Forms() []string {
	forms := make([]string, len(h.Tokens))
	for i, tok := range h.Tokens {
		forms[i] = tok.Form
	}
	return forms
}
