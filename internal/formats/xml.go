package formats

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/google/uuid"

	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
)

// DefaultHitXPath selects hit elements anywhere in the document.
const DefaultHitXPath = "//hit"

// XMLReader reads a concordance from a TEI-flavoured XML export: hit
// elements holding token elements, token attributes as tags, the kw
// attribute marking keywords.
type XMLReader struct {
	// HitXPath selects the hit elements; empty uses DefaultHitXPath.
	HitXPath string
}

// Read parses the document and extracts the selected hits.
func (xr *XMLReader) Read(r io.Reader) (*concordance.Concordance, error) {
	expr := xr.HitXPath
	if expr == "" {
		expr = DefaultHitXPath
	}
	if _, err := xpath.Compile(expr); err != nil {
		return nil, &cerrors.ParseError{Format: "XML", Message: fmt.Sprintf("bad hit xpath %q", expr), Err: err}
	}

	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &cerrors.ParseError{Format: "XML", Message: "malformed document", Err: err}
	}

	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, &cerrors.ParseError{Format: "XML", Message: "hit query failed", Err: err}
	}

	cnc := concordance.New()
	for _, node := range nodes {
		hit, err := hitFromNode(node)
		if err != nil {
			return nil, err
		}
		cnc.Append(hit)
	}
	CheckRefs(cnc)
	return cnc, nil
}

func hitFromNode(node *xmlquery.Node) (*concordance.Hit, error) {
	var forms []string
	var kwIdx []int
	type tokAttrs struct {
		tags       map[string]string
		display    string
		hasDisplay bool
		span       int
	}
	var attrs []tokAttrs

	for _, tn := range xmlquery.Find(node, "token") {
		form := strings.TrimSpace(tn.InnerText())
		ta := tokAttrs{tags: make(map[string]string)}
		for _, a := range tn.Attr {
			switch a.Name.Local {
			case "kw":
				if a.Value == "true" || a.Value == "1" {
					kwIdx = append(kwIdx, len(forms))
				}
			case "display":
				ta.display = a.Value
				ta.hasDisplay = true
			case "span":
				fmt.Sscanf(a.Value, "%d", &ta.span)
			default:
				ta.tags[a.Name.Local] = a.Value
			}
		}
		forms = append(forms, form)
		attrs = append(attrs, ta)
	}

	hit := concordance.NewHit(forms, kwIdx)
	for i, ta := range attrs {
		hit.Tokens[i].Tags = ta.tags
		if ta.hasDisplay {
			hit.Tokens[i].Display = ta.display
		}
		if ta.span > 1 {
			hit.Tokens[i].Span = ta.span
		}
	}

	for _, a := range node.Attr {
		switch a.Name.Local {
		case "ref":
			hit.Ref = a.Value
		case "uuid":
			id, err := uuid.Parse(a.Value)
			if err != nil {
				return nil, &cerrors.ParseError{Format: "XML",
					Message: fmt.Sprintf("bad uuid %q", a.Value), Err: err}
			}
			hit.UUID = id
		default:
			hit.Tags[a.Name.Local] = a.Value
		}
	}
	return hit, nil
}

// WriteXML writes the XML layout read by XMLReader.
func WriteXML(w io.Writer, cnc *concordance.Concordance) error {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<concordance>\n")
	for _, hit := range cnc.Hits {
		sb.WriteString("  <hit")
		writeAttr(&sb, "uuid", hit.UUID.String())
		if hit.Ref != "" {
			writeAttr(&sb, "ref", hit.Ref)
		}
		for _, k := range sortedKeys(hit.Tags) {
			writeAttr(&sb, k, hit.Tags[k])
		}
		sb.WriteString(">\n")
		for _, tok := range hit.Tokens {
			sb.WriteString("    <token")
			if hit.IsKeyword(tok.Index) {
				writeAttr(&sb, "kw", "true")
			}
			if tok.Display != tok.Form {
				writeAttr(&sb, "display", tok.Display)
			}
			if tok.Span > 1 {
				writeAttr(&sb, "span", fmt.Sprintf("%d", tok.Span))
			}
			for _, k := range sortedKeys(tok.Tags) {
				writeAttr(&sb, k, tok.Tags[k])
			}
			sb.WriteString(">")
			sb.WriteString(escapeXML(tok.Form))
			sb.WriteString("</token>\n")
		}
		sb.WriteString("  </hit>\n")
	}
	sb.WriteString("</concordance>\n")
	_, err := io.WriteString(w, sb.String())
	return cerrors.Wrap(err, "writing XML concordance")
}

func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteString(" ")
	sb.WriteString(name)
	sb.WriteString("=\"")
	sb.WriteString(escapeXML(value))
	sb.WriteString("\"")
}

func escapeXML(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
