package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/concordkit/concord/core/align"
	cerrors "github.com/concordkit/concord/core/errors"
)

// Alignment CSV columns.
var alignmentHeader = []string{"a_id", "a_token", "b_ids", "b_tokens", "notes"}

const noteDelim = "|"

// WriteAlignment writes a correspondence as a diagnostic CSV, one row per
// a-token with the forms resolved for human review. Both token slices must
// be the ones the entries were computed from.
func WriteAlignment(w io.Writer, entries []align.Entry, aToks, bToks []align.IDToken) error {
	aForms := make(map[int]string, len(aToks))
	for _, tok := range aToks {
		aForms[tok.ID] = tok.Form
	}
	bForms := make(map[int]string, len(bToks))
	for _, tok := range bToks {
		bForms[tok.ID] = tok.Form
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(alignmentHeader); err != nil {
		return cerrors.Wrap(err, "writing alignment header")
	}
	for _, e := range entries {
		bids := make([]string, len(e.BIDs))
		bforms := make([]string, len(e.BIDs))
		for i, bid := range e.BIDs {
			bids[i] = strconv.Itoa(bid)
			bforms[i] = bForms[bid]
		}
		row := []string{
			strconv.Itoa(e.AID),
			aForms[e.AID],
			strings.Join(bids, " "),
			strings.Join(bforms, " "),
			strings.Join(e.Notes, noteDelim),
		}
		if err := cw.Write(row); err != nil {
			return cerrors.Wrapf(err, "writing alignment row a%d", e.AID)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadAlignment reads a correspondence back from the diagnostic CSV. Rows
// with several b_ids must list as many b_tokens; a file edited out of sync
// is rejected as malformed.
func ReadAlignment(r io.Reader) ([]align.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(alignmentHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, cerrors.NewParse("alignment", "", "missing header row")
	}
	for i, want := range alignmentHeader {
		if strings.TrimSpace(header[i]) != want {
			return nil, cerrors.NewParse("alignment", "",
				fmt.Sprintf("column %d is %q, want %q", i, header[i], want))
		}
	}

	var entries []align.Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &cerrors.ParseError{Format: "alignment",
				Message: fmt.Sprintf("row %d", line), Err: err}
		}

		aid, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, &cerrors.ParseError{Format: "alignment",
				Message: fmt.Sprintf("row %d: bad a_id %q", line, row[0]), Err: err}
		}

		bidFields := strings.Fields(row[2])
		bTokenFields := strings.Fields(row[3])
		// A single b-id may carry a form that itself contains spaces, so
		// only rows with several b-ids must agree in cardinality.
		if len(bidFields) != len(bTokenFields) && len(bidFields) != 1 {
			return nil, cerrors.Wrapf(cerrors.ErrMalformedAlignment,
				"row %d: %d b_ids but %d b_tokens", line, len(bidFields), len(bTokenFields))
		}

		bids := make([]int, len(bidFields))
		for i, f := range bidFields {
			bids[i], err = strconv.Atoi(f)
			if err != nil {
				return nil, &cerrors.ParseError{Format: "alignment",
					Message: fmt.Sprintf("row %d: bad b_id %q", line, f), Err: err}
			}
		}

		var notes []string
		if row[4] != "" {
			notes = strings.Split(row[4], noteDelim)
		}
		entries = append(entries, align.Entry{AID: aid, BIDs: bids, Notes: notes})
	}
	return entries, nil
}
