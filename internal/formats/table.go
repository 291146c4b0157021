// Package formats reads and writes the interchange representations of a
// concordance: the tabular CSV layout, the TEI-flavoured XML export and the
// aligner's diagnostic CSV.
package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
)

// Table column names, matched case-insensitively on read.
const (
	colUUID     = "uuid"
	colRef      = "ref"
	colLeft     = "lcx"
	colKeywords = "keywords"
	colRight    = "rcx"
	colTags     = "tags"
)

var tableHeader = []string{colUUID, colRef, colLeft, colKeywords, colRight, colTags}

// ReadTable reads a CSV concordance: one row per hit, tokens space-delimited
// within the context columns, hit tags encoded as k=v;k=v. Unknown columns
// are treated as extra hit tags keyed by the column name.
func ReadTable(r io.Reader) (*concordance.Concordance, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, cerrors.NewParse("CSV", "", "missing header row")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols[colKeywords]; !ok {
		return nil, cerrors.NewParse("CSV", "", "missing keywords column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	cnc := concordance.New()
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &cerrors.ParseError{Format: "CSV", Message: fmt.Sprintf("row %d", line), Err: err}
		}

		left := splitForms(field(row, colLeft))
		kws := splitForms(field(row, colKeywords))
		right := splitForms(field(row, colRight))

		forms := make([]string, 0, len(left)+len(kws)+len(right))
		forms = append(forms, left...)
		forms = append(forms, kws...)
		forms = append(forms, right...)

		kwIdx := make([]int, len(kws))
		for i := range kws {
			kwIdx[i] = len(left) + i
		}

		hit := concordance.NewHit(forms, kwIdx)
		hit.Ref = field(row, colRef)
		if raw := field(row, colUUID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, &cerrors.ParseError{Format: "CSV",
					Message: fmt.Sprintf("row %d: bad uuid %q", line, raw), Err: err}
			}
			hit.UUID = id
		}
		hit.Tags = parseTags(field(row, colTags))

		for name, i := range cols {
			if isTableColumn(name) || i >= len(row) || row[i] == "" {
				continue
			}
			if hit.Tags == nil {
				hit.Tags = make(map[string]string)
			}
			hit.Tags[name] = row[i]
		}
		cnc.Append(hit)
	}
	CheckRefs(cnc)
	return cnc, nil
}

// WriteTable writes the CSV concordance layout read by ReadTable. A hit
// without keywords renders all its tokens in the left-context column.
func WriteTable(w io.Writer, cnc *concordance.Concordance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return cerrors.Wrap(err, "writing CSV header")
	}
	for _, hit := range cnc.Hits {
		left := hit.Text(concordance.SelLeft)
		kws := hit.Text(concordance.SelKeywords)
		right := hit.Text(concordance.SelRight)
		if len(hit.Keywords) == 0 {
			left = hit.Text(concordance.SelAll)
		}
		row := []string{hit.UUID.String(), hit.Ref, left, kws, right, encodeTags(hit.Tags)}
		if err := cw.Write(row); err != nil {
			return cerrors.Wrapf(err, "writing hit %q", hit.Ref)
		}
	}
	cw.Flush()
	return cw.Error()
}

func isTableColumn(name string) bool {
	for _, c := range tableHeader {
		if name == c {
			return true
		}
	}
	return false
}

func splitForms(s string) []string {
	return strings.Fields(s)
}

// encodeTags renders a tag map as k=v;k=v with sorted keys so output is
// deterministic.
func encodeTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+tags[k])
	}
	return strings.Join(pairs, ";")
}

func parseTags(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return make(map[string]string)
	}
	tags := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return tags
}
