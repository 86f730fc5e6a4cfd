// Package markdown renders post bodies to HTML and derives list snippets.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// SnippetBudget is the number of characters a list snippet keeps.
const SnippetBudget = 300

// Renderer converts Markdown to HTML. It is stateless and safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

func (r *Renderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

// Snippet returns the text of the first paragraph and everything after it,
// whitespace collapsed and cut to budget characters with a trailing "...".
// Headings before the first paragraph are skipped; a document without a
// paragraph yields "".
func Snippet(html string, budget int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	first := doc.Find("p").First()
	if first.Length() == 0 {
		return "", nil
	}

	parts := []string{first.Text()}
	first.NextAll().Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, sel.Text())
	})
	// Siblings of an enclosing block (a paragraph inside a list item or a
	// blockquote) continue the excerpt too.
	first.Parents().Each(func(_ int, parent *goquery.Selection) {
		if goquery.NodeName(parent) == "body" || goquery.NodeName(parent) == "html" {
			return
		}
		parent.NextAll().Each(func(_ int, sel *goquery.Selection) {
			parts = append(parts, sel.Text())
		})
	})

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return Truncate(text, budget), nil
}

// Truncate cuts text to budget characters, appending "..." when it cut.
func Truncate(text string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:budget])) + "..."
}
