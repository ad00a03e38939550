package drawio

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags separate words when a label is rendered, so they become spaces
var blockTags = map[string]bool{
	"br":  true,
	"div": true,
	"p":   true,
	"li":  true,
}

// PlainText strips the markup draw.io stores in labels of html=1 cells,
// e.g. "<b>Order</b><br>Item" becomes "Order Item". Entities are decoded.
// Tags that are not HTML elements, like the stereotype in "<<expands>>",
// are kept as written.
func PlainText(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return value
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(value))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF at the end of the fragment; anything else just ends the text
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if atom.Lookup(name) == 0 {
				sb.WriteString(raw)
				continue
			}
			if blockTags[string(name)] {
				sb.WriteByte(' ')
			}
		}
	}
}
