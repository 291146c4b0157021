package merge

import (
	"fmt"

	"github.com/concordkit/concord/core/align"
	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
	"github.com/concordkit/concord/internal/logging"
)

// MergeTags merges source into target. With overwrite, source values win
// on key collision; otherwise existing target values are kept and only new
// keys are added. The (possibly allocated) target map is returned.
func MergeTags(target, source map[string]string, overwrite bool) map[string]string {
	if len(source) == 0 {
		return target
	}
	if target == nil {
		target = make(map[string]string, len(source))
	}
	for k, v := range source {
		if !overwrite {
			if _, exists := target[k]; exists {
				continue
			}
		}
		target[k] = v
	}
	return target
}

// TokenMerger carries token-level annotation from one hit onto another.
//
// When both hits tag their tokens with a shared identifier (IDTag), tokens
// are paired by that tag directly. Otherwise the aligner computes a token
// correspondence from the surface forms.
type TokenMerger struct {
	// IDTag is the tag key holding a shared token identifier. Empty
	// disables the fast path.
	IDTag string

	// Overwrite controls the token tag-merge policy.
	Overwrite bool

	// BlockMarker chunks long token streams before alignment; empty
	// disables chunking.
	BlockMarker string

	// Aligner computes the correspondence on the slow path; nil uses the
	// default aligner.
	Aligner *align.Aligner
}

// MergeHit merges token-level tags of b into a, splitting a-tokens where
// the correspondence maps one a-token to several b-tokens. It returns
// diagnostic notes for skipped or mismatched tokens. An error is returned
// only when the similarity guard rejects the pair; content-level mismatch
// is never an error.
func (tm *TokenMerger) MergeHit(a, b *concordance.Hit) ([]string, error) {
	if tm.IDTag != "" {
		tm.mergeByIDTag(a, b)
		return nil, nil
	}
	return tm.mergeByAlignment(a, b)
}

// mergeByIDTag pairs tokens through the shared identifier tag.
func (tm *TokenMerger) mergeByIDTag(a, b *concordance.Hit) {
	index := make(map[string]*concordance.Token, len(b.Tokens))
	for _, tok := range b.Tokens {
		if id, ok := tok.Tag(tm.IDTag); ok && id != "" {
			index[id] = tok
		}
	}
	for _, tok := range a.Tokens {
		id, ok := tok.Tag(tm.IDTag)
		if !ok || id == "" {
			continue
		}
		if src, found := index[id]; found {
			tok.Tags = MergeTags(tok.Tags, src.Tags, tm.Overwrite)
		}
	}
}

// mergeByAlignment pairs tokens through a computed correspondence.
func (tm *TokenMerger) mergeByAlignment(a, b *concordance.Hit) ([]string, error) {
	aToks := idTokens(a)
	bToks := idTokens(b)

	var entries []align.Entry
	if sameTokenization(a, b) {
		entries = align.IdentityAlign(aToks, bToks)
	} else {
		aligner := tm.Aligner
		if aligner == nil {
			aligner = align.New()
		}
		var err error
		entries, err = aligner.AlignBlocks(aToks, bToks, tm.BlockMarker)
		if err != nil {
			return nil, err
		}
	}
	return tm.apply(a, b, entries), nil
}

// apply walks the correspondence, merging tags 1:1 and splitting a-tokens
// that correspond to several b-tokens. The entry offsets shift as splits
// insert siblings; offset tracks the displacement so later entries still
// address the right token.
func (tm *TokenMerger) apply(a, b *concordance.Hit, entries []align.Entry) []string {
	var notes []string
	offset := 0
	for _, e := range entries {
		ai := e.AID + offset
		if ai < 0 || ai >= len(a.Tokens) {
			continue
		}
		tok := a.Tokens[ai]

		switch {
		case len(e.BIDs) == 0:
			// Nothing to merge for this token.

		case len(e.BIDs) == 1:
			src := b.Tokens[e.BIDs[0]]
			tok.Tags = MergeTags(tok.Tags, src.Tags, tm.Overwrite)

		default:
			// One a-token corresponds to several b-tokens: split it,
			// provided it has not been split already.
			if tok.Width() != 1 || tok.Display == "" {
				notes = append(notes, fmt.Sprintf(
					"token %d: unreconcilable token counts (1 to %d on a split token), merge skipped",
					e.AID, len(e.BIDs)))
				continue
			}
			forms := make([]string, 0, len(e.BIDs))
			valid := true
			for _, bid := range e.BIDs {
				if bid < 0 || bid >= len(b.Tokens) {
					valid = false
					break
				}
				forms = append(forms, b.Tokens[bid].Form)
			}
			if !valid {
				notes = append(notes, fmt.Sprintf(
					"token %d: correspondence references unknown b-tokens, merge skipped", e.AID))
				continue
			}
			a.SplitToken(ai, forms)
			for j, bid := range e.BIDs {
				dst := a.Tokens[ai+j]
				dst.Tags = MergeTags(dst.Tags, b.Tokens[bid].Tags, tm.Overwrite)
			}
			offset += len(e.BIDs) - 1
		}
	}
	return notes
}

// idTokens flattens a hit's tokens into the aligner's input form. Token
// indices double as correspondence ids.
func idTokens(h *concordance.Hit) []align.IDToken {
	toks := make([]align.IDToken, len(h.Tokens))
	for i, tok := range h.Tokens {
		toks[i] = align.IDToken{ID: tok.Index, Form: tok.Form}
	}
	return toks
}

// sameTokenization reports whether two hits are already token-for-token
// identical in form, in which case no diff is needed.
func sameTokenization(a, b *concordance.Hit) bool {
	if len(a.Tokens) != len(b.Tokens) {
		return false
	}
	for i := range a.Tokens {
		if a.Tokens[i].Form != b.Tokens[i].Form {
			return false
		}
	}
	return true
}

// ConcordanceMerger merges annotation from one concordance into another.
// The zero value updates hit tags only, matching by the full strategy
// chain without adding or deleting hits.
type ConcordanceMerger struct {
	// Strategy selects how hits are paired.
	Strategy Strategy

	// AddHits appends hits from the other concordance that have no
	// counterpart in the target.
	AddHits bool

	// DelHits removes target hits with no counterpart in the other
	// concordance.
	DelHits bool

	// UpdateTags lets values from the other concordance overwrite
	// existing tag values; otherwise only new keys are added.
	UpdateTags bool

	// TokenMerger merges token-level annotation; nil leaves tokens
	// unchanged.
	TokenMerger *TokenMerger
}

// Merge modifies cnc in place, adding annotation from other. It returns
// per-hit diagnostic notes for audit. The only error condition is the
// aligner's similarity guard; the caller decides whether a dissimilar pair
// aborts the batch.
func (m *ConcordanceMerger) Merge(cnc, other *concordance.Concordance) ([]string, error) {
	matcher := ForStrategy(cnc, m.Strategy)
	originalLen := len(cnc.Hits)
	matched := make([]bool, originalLen)

	var notes []string
	for pos, probe := range other.Hits {
		idx, ok := matcher.Match(probe, pos)
		if !ok {
			if m.AddHits {
				cnc.Append(probe)
				logging.MergeEvent("hit_added", probe.Ref)
			} else {
				logging.MergeEvent("hit_unmatched", probe.Ref)
			}
			continue
		}
		hit := cnc.Hits[idx]
		if idx < originalLen {
			matched[idx] = true
		}

		hit.Tags = MergeTags(hit.Tags, probe.Tags, m.UpdateTags)
		if hit.Ref == "" {
			hit.Ref = probe.Ref
		}

		if m.TokenMerger != nil {
			hitNotes, err := m.TokenMerger.MergeHit(hit, probe)
			if err != nil {
				return notes, cerrors.Wrapf(err, "merging hit %q", hit.Ref)
			}
			for _, n := range hitNotes {
				notes = append(notes, fmt.Sprintf("hit %q: %s", hit.Ref, n))
			}
		}
	}

	if m.DelHits {
		kept := cnc.Hits[:0]
		for i, h := range cnc.Hits {
			if i >= originalLen || matched[i] {
				kept = append(kept, h)
			} else {
				logging.MergeEvent("hit_deleted", h.Ref)
			}
		}
		cnc.Hits = kept
	}
	return notes, nil
}
