package align

import (
	"sort"
	"strings"

	cerrors "github.com/concordkit/concord/core/errors"
	"github.com/concordkit/concord/core/textdiff"
	"github.com/concordkit/concord/internal/logging"
)

// Tokens are joined by the separator when flattened; a form containing the
// separator violates the upstream tokenization contract.
const (
	sep     = "\n"
	sepRune = '\n'
)

// Diagnostic note strings recorded on correspondence entries.
const (
	// NoteAbsent marks an a-token with no surviving counterpart in b.
	NoteAbsent = "absent"
	// NoteTokenizationA marks two a-tokens fused into one b-token.
	NoteTokenizationA = "tokenization_a"
	// NoteTokenizationB marks one a-token split over several b-tokens.
	NoteTokenizationB = "tokenization_b"
	// NoteAddBTokens prefixes b-tokens with no a-side counterpart.
	NoteAddBTokens = "add_b_tokens"
	// NoteAddBTokensBefore prefixes new b-tokens preceding the matched part.
	NoteAddBTokensBefore = "add_b_tokens_before"
	// NoteMismatch marks an edit shape the aligner cannot interpret.
	NoteMismatch = "MISMATCH"
)

// IDToken is one token of a flattened stream: a caller-stable identifier
// plus the surface form.
type IDToken struct {
	ID   int
	Form string
}

// Entry is one row of a token correspondence: the a-token, the sorted set
// of b-tokens it corresponds to, and diagnostic notes for every
// tokenization mismatch encountered. Across a correspondence the a-ids are
// strictly increasing and the b-id sets never cross.
type Entry struct {
	AID   int
	BIDs  []int
	Notes []string
}

// DefaultRatio is the minimum acceptable similarity estimate.
const DefaultRatio = 0.95

// Aligner computes a token correspondence between two tokenizations of the
// same underlying text.
type Aligner struct {
	// Threshold is the pass-1 anchor length of the diff engine.
	Threshold int

	// Ratio is the minimum similarity estimate; pairs below it fail with
	// ErrTooDissimilar before the expensive diff runs.
	Ratio float64

	// OnePass diffs the flattened streams in a single exact pass.
	OnePass bool

	// Matcher produces the per-token diagnostic notes. A nil Matcher
	// compares without normalization rules.
	Matcher *StringMatcher
}

// New returns an aligner with the default threshold and ratio.
func New() *Aligner {
	return &Aligner{
		Threshold: textdiff.DefaultThreshold,
		Ratio:     DefaultRatio,
		Matcher:   NewStringMatcher(),
	}
}

// Align maps every token of a to the set of tokens of b it corresponds to.
// It fails with an error wrapping errors.ErrTooDissimilar when the cheap
// similarity estimate of the flattened streams falls below the configured
// ratio. Token forms containing the separator panic: that is an upstream
// tokenization bug, not recoverable input.
func (al *Aligner) Align(aToks, bToks []IDToken) ([]Entry, error) {
	if len(aToks) == 0 {
		return nil, nil
	}
	aStr, aStarts := flatten(aToks)
	bStr, _ := flatten(bToks)

	matcher := al.Matcher
	if matcher == nil {
		matcher = NewStringMatcher()
	}
	sm := matcher.Compare

	ratio := textdiff.QuickRatio(aStr, bStr)
	if ratio < al.Ratio {
		return nil, cerrors.NewDissimilarity(ratio, al.Ratio)
	}

	if len(bToks) == 0 {
		entries := make([]Entry, 0, len(aToks))
		for _, tok := range aToks {
			entries = append(entries, Entry{AID: tok.ID, Notes: []string{NoteAbsent}})
		}
		return entries, nil
	}

	eng := &textdiff.Engine{Threshold: al.Threshold, OnePass: al.OnePass}
	ops := eng.Diff(aStr, bStr)

	a := []rune(aStr)
	b := []rune(bStr)
	buckets := bucketOps(ops, aStarts)

	// Cursor into the b-token list; advances as separators in b are
	// consumed and never retreats, which keeps correspondences from
	// crossing.
	bi := 0
	advanceB := func() {
		if bi < len(bToks)-1 {
			bi++
		}
	}

	entries := make([]Entry, 0, len(aToks))
	for i := range aToks {
		if i > 0 && i%1000 == 0 {
			logging.AlignProgress(i, len(aToks))
		}
		startIx := aStarts[i]
		endIx := len(a) - 1
		if i < len(aToks)-1 {
			endIx = aStarts[i+1] - 1
		}

		var notes []string
		bMatches := make(map[int]bool)

		// First sweep: operations that leave the a-tokenization intact.
		for _, op := range buckets[i] {
			aSub := string(a[op.AStart:op.AEnd])
			bSub := string(b[op.BStart:op.BEnd])
			p := classify(op, startIx, endIx)

			if op.Kind == textdiff.Equal && (p.whole || p.within) {
				bMatches[bToks[bi].ID] = true
			}

			if op.Kind != textdiff.Equal && !p.end && !p.after {
				nlB := strings.Count(bSub, sep)
				switch {
				case op.AStart == startIx && nlB > 0 && !strings.HasSuffix(bSub, sep):
					// The edit starts at the token head and spills over b
					// token boundaries: the leading parts are whole new b
					// tokens, the last part matches this token.
					parts := strings.Split(bSub, sep)
					notes = append(notes,
						NoteAddBTokensBefore+": "+strings.Join(parts[:len(parts)-1], " "))
					notes = append(notes, sm(aSub, parts[len(parts)-1]))
					for n := 0; n < nlB; n++ {
						advanceB()
					}
					bMatches[bToks[bi].ID] = true

				case p.whole:
					if op.Kind == textdiff.Delete {
						notes = append(notes, NoteAbsent)
					} else {
						aParts := strings.Split(aSub, sep)
						bParts := strings.Split(bSub, sep)
						notes = append(notes, sm(aParts[len(aParts)-1], bParts[len(bParts)-1]))
						bMatches[bToks[bi].ID] = true
					}

				case !strings.Contains(aSub, sep) && nlB == 0:
					// Change within the token, no tokenization change.
					notes = append(notes, sm(aSub, bSub))

				case !strings.Contains(aSub, sep) && nlB > 0:
					// The b side contains token boundaries.
					parts := strings.Split(bSub, sep)
					if op.AEnd < endIx-1 || (op.AEnd == endIx-1 && strings.HasPrefix(bSub, sep)) {
						// The tail of the a-token is unchanged: the token
						// was split on the b side.
						notes = append(notes, NoteTokenizationB)
						notes = append(notes, sm(aSub, parts[0]))
						notes = append(notes, sm(aSub, parts[len(parts)-1]))
						bMatches[bToks[bi].ID] = true
						for n := 0; n < len(parts)-1; n++ {
							advanceB()
							bMatches[bToks[bi].ID] = true
						}
					} else {
						notes = append(notes, sm(aSub, parts[0]))
						notes = append(notes,
							NoteAddBTokens+": "+strings.Join(parts[1:], " "))
						for n := 0; n < len(parts)-1; n++ {
							advanceB()
						}
					}

				default:
					// Separators on both sides: by inference a
					// head-of-token replacement.
					aParts := strings.Split(aSub, sep)
					bParts := strings.Split(bSub, sep)
					notes = append(notes, sm(aParts[len(aParts)-1], bParts[len(bParts)-1]))
					bMatches[bToks[bi].ID] = true
				}
			} else if p.whole && op.Kind != textdiff.Equal {
				notes = append(notes, NoteAbsent)
			}

			if op.Kind == textdiff.Insert && (p.end || p.after) {
				parts := strings.Split(bSub, sep)
				if p.end {
					notes = append(notes, sm("", parts[0]))
					if len(parts) > 1 {
						notes = append(notes,
							NoteAddBTokens+": "+strings.Join(parts[1:], " "))
					}
				} else if len(parts) > 1 {
					// Inserted between this token and the next.
					notes = append(notes,
						NoteAddBTokens+": "+strings.Join(parts[:len(parts)-1], " "))
				}
				for n := 0; n < len(parts)-1; n++ {
					advanceB()
				}
			}
		}

		// Second sweep: operations that affect, or may affect, the
		// a-tokenization (the token's trailing separator).
		for _, op := range buckets[i] {
			aSub := string(a[op.AStart:op.AEnd])
			bSub := string(b[op.BStart:op.BEnd])
			p := classify(op, startIx, endIx)

			if (op.Kind == textdiff.Replace || op.Kind == textdiff.Delete) && p.end {
				nlA := strings.Count(aSub, sep)
				nlB := strings.Count(bSub, sep)

				if nlA == 1 && nlB == 0 {
					// The separator in a is gone. That can mean the token
					// is missing, the next token is missing, or two
					// a-tokens were fused in b.
					switch {
					case p.whole && op.AStart > 0 && a[op.AStart-1] == sepRune:
						// Whole token missing; already noted as absent.
					case strings.HasPrefix(aSub, sep) &&
						(op.AEnd == len(a) || a[op.AEnd] == sepRune) &&
						op.Kind == textdiff.Delete:
						// The following token is wholly missing and took
						// its separator with it; this token is untouched.
					default:
						notes = append(notes, NoteTokenizationA)
						if len(aSub) > 1 {
							switch {
							case strings.HasPrefix(aSub, sep):
							case strings.HasSuffix(aSub, sep):
								notes = append(notes, sm(strings.TrimSuffix(aSub, sep), bSub))
							default:
								notes = append(notes, NoteMismatch)
							}
						}
					}
				}
				if nlB == 1 && nlA == 1 {
					logging.Warn("aligner: separator replaced one-for-one",
						"a_id", aToks[i].ID)
				}
				if nlB > 1 && nlA > 0 {
					// Separator replaced with extra tokens inserted.
					aParts := strings.Split(aSub, sep)
					bParts := strings.Split(bSub, sep)
					notes = append(notes, sm(aParts[0], bParts[0]))
					notes = append(notes,
						NoteAddBTokens+": "+strings.Join(bParts[1:len(bParts)-1], " "))
					for n := 1; n < len(bParts)-1; n++ {
						advanceB()
					}
				}
			}

			if op.Kind == textdiff.Equal && p.end {
				advanceB()
			}
		}

		ids := make([]int, 0, len(bMatches))
		for id := range bMatches {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		var clean []string
		for _, n := range notes {
			if n != "" {
				clean = append(clean, n)
			}
		}
		entries = append(entries, Entry{AID: aToks[i].ID, BIDs: ids, Notes: clean})
	}
	return entries, nil
}

// flatten joins token forms with the separator and records the rune offset
// at which every token starts.
func flatten(toks []IDToken) (string, []int) {
	var sb strings.Builder
	starts := make([]int, len(toks))
	pos := 0
	for i, tok := range toks {
		if strings.ContainsRune(tok.Form, sepRune) {
			panic("align: token form contains separator; upstream tokenization is broken")
		}
		if i > 0 {
			sb.WriteByte(sepRune)
			pos++
		}
		starts[i] = pos
		sb.WriteString(tok.Form)
		pos += len([]rune(tok.Form))
	}
	return sb.String(), starts
}

// bucketOps groups edit operations by the a-token whose character range
// they fall inside. An operation spanning several tokens appears in the
// bucket of each token it touches.
func bucketOps(ops []textdiff.Op, starts []int) [][]textdiff.Op {
	buckets := make([][]textdiff.Op, len(starts))
	oi := 0
	for i := 1; i < len(starts); i++ {
		next := starts[i]
		for oi < len(ops) && ops[oi].AEnd <= next {
			buckets[i-1] = append(buckets[i-1], ops[oi])
			oi++
		}
		if oi < len(ops) && ops[oi].AStart < next {
			buckets[i-1] = append(buckets[i-1], ops[oi])
		}
	}
	for ; oi < len(ops); oi++ {
		buckets[len(starts)-1] = append(buckets[len(starts)-1], ops[oi])
	}
	return buckets
}

// opPos classifies an operation relative to an a-token's [start,end] range,
// where end is the index of the token's trailing separator (or the last
// rune of the stream).
type opPos struct {
	whole  bool // the operation spans the token exactly
	within bool // the operation starts inside and ends before the end
	end    bool // the operation covers the trailing separator
	after  bool // the operation begins exactly at the next token's start
}

func classify(op textdiff.Op, startIx, endIx int) opPos {
	inRange := func(x int) bool {
		if op.AStart == op.AEnd {
			return x == op.AStart
		}
		return x >= op.AStart && x < op.AEnd
	}
	var p opPos
	if inRange(startIx) && inRange(endIx-1) {
		p.whole = true
	} else if op.AStart < endIx {
		p.within = true
	}
	if inRange(endIx) {
		p.end = true
	}
	if op.AStart == endIx+1 {
		p.after = true
	}
	return p
}
