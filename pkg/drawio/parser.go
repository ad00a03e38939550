// Package drawio reads draw.io / diagrams.net files into diagram records.
package drawio

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/ritzau/drawio-codegen/pkg/diagram"
	"github.com/ritzau/drawio-codegen/pkg/logging"
)

// ErrNoGraphModel is returned when a document contains no diagram at all
var ErrNoGraphModel = errors.New("no mxGraphModel found")

// Parser turns draw.io XML into shape records
type Parser struct {
	loader Loader
}

// NewParser creates a parser that reads files from disk
func NewParser() *Parser {
	return &Parser{loader: NewLoader()}
}

// NewParserWithLoader creates a parser with a custom file loader
func NewParserWithLoader(l Loader) *Parser {
	return &Parser{loader: l}
}

// ParseFile loads and parses a diagram file
func (p *Parser) ParseFile(path string) ([]diagram.ShapeRecord, error) {
	data, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}
	records, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	logging.Debug("parsed diagram", "file", path, "records", len(records))
	return records, nil
}

// Parse accepts a bare <mxGraphModel>, or an <mxfile> whose <diagram> pages
// hold either an inline model or a compressed one. Records of all pages are
// returned in document order.
func (p *Parser) Parse(data []byte) ([]diagram.ShapeRecord, error) {
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	switch doc.XMLName.Local {
	case "mxGraphModel":
		return recordsFromRoot(doc.Root, ""), nil
	case "mxfile":
		// handled below
	default:
		return nil, fmt.Errorf("unexpected root element <%s>: %w", doc.XMLName.Local, ErrNoGraphModel)
	}

	if len(doc.Diagrams) == 0 {
		return nil, ErrNoGraphModel
	}

	records := make([]diagram.ShapeRecord, 0)
	for i, d := range doc.Diagrams {
		page := d.Name
		if page == "" {
			page = fmt.Sprintf("Page-%d", i+1)
		}

		model := d.Model
		if model == nil {
			inflated, err := Decompress(d.Content)
			if err != nil {
				return nil, fmt.Errorf("page %q: %w", page, err)
			}
			if strings.TrimSpace(inflated) == "" {
				logging.Debug("skipping empty page", "page", page)
				continue
			}
			var m graphModelXML
			if err := xml.Unmarshal([]byte(inflated), &m); err != nil {
				return nil, fmt.Errorf("page %q: failed to parse compressed model: %w", page, err)
			}
			model = &m
		}

		records = append(records, recordsFromRoot(model.Root, page)...)
	}

	return records, nil
}

// Decompress reverses draw.io page compression: base64, raw DEFLATE, then
// URI-component encoding.
func Decompress(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("invalid base64 page content: %w", err)
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer func() { _ = r.Close() }()
	inflated, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("invalid deflate page content: %w", err)
	}

	decoded, err := url.PathUnescape(string(inflated))
	if err != nil {
		return "", fmt.Errorf("invalid encoded page content: %w", err)
	}
	return decoded, nil
}

func recordsFromRoot(root rootXML, page string) []diagram.ShapeRecord {
	records := make([]diagram.ShapeRecord, 0, len(root.Elements))
	for _, el := range root.Elements {
		switch el.XMLName.Local {
		case "mxCell":
			records = append(records, cellRecord(el, el, page))
		case "object", "UserObject":
			// The wrapper carries id and label; the inner cell carries style and geometry
			if el.Cell == nil {
				continue
			}
			records = append(records, cellRecord(el, *el.Cell, page))
		}
	}
	return records
}

func cellRecord(outer, cell elementXML, page string) diagram.ShapeRecord {
	value, hasValue := outer.attr("value")
	if !hasValue {
		value, _ = outer.attr("label")
	}
	style, _ := cell.attr("style")
	if isHTML(style) {
		value = PlainText(value)
	}

	id, _ := outer.attr("id")
	source, _ := cell.attr("source")
	target, _ := cell.attr("target")

	r := diagram.ShapeRecord{
		ID:     id,
		Source: source,
		Target: target,
		Value:  value,
		Style:  style,
		Page:   page,
	}
	if cell.Geometry != nil {
		r.Geometry = cell.Geometry.toGeometry()
	}
	return r
}

func isHTML(style string) bool {
	return strings.Contains(style, "html=1")
}

// XML structures

type documentXML struct {
	XMLName  xml.Name
	Diagrams []diagramXML `xml:"diagram"`
	Root     rootXML      `xml:"root"` // populated when the document is a bare mxGraphModel
}

type diagramXML struct {
	Name    string         `xml:"name,attr"`
	ID      string         `xml:"id,attr"`
	Model   *graphModelXML `xml:"mxGraphModel"`
	Content string         `xml:",chardata"`
}

type graphModelXML struct {
	Root rootXML `xml:"root"`
}

// rootXML keeps mxCell and object wrappers in document order
type rootXML struct {
	Elements []elementXML `xml:",any"`
}

type elementXML struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Cell     *elementXML  `xml:"mxCell"`
	Geometry *geometryXML `xml:"mxGeometry"`
}

func (e elementXML) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

type geometryXML struct {
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

// toGeometry converts attributes, treating missing or malformed numbers as 0
func (g geometryXML) toGeometry() *diagram.Geometry {
	return &diagram.Geometry{
		X:      parseFloat(g.X),
		Y:      parseFloat(g.Y),
		Width:  parseFloat(g.Width),
		Height: parseFloat(g.Height),
	}
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
