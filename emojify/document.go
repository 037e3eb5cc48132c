// Package emojify rewrites the visible text of an HTML document, appending
// an emoji after every six-letter word.
//
// Emoji are drawn from a single Cycle per document, in depth-first document
// order, so identical input always yields identical output:
//
//	doc, _ := emojify.Parse(r)
//	c := emojify.NewCycle()
//	_ = emojify.Document(doc, c)
//	out, _ := emojify.Render(doc)
package emojify

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ErrParse is returned when the input cannot be parsed as HTML.
var ErrParse = errors.New("emojify: parse html")

// ErrReplace is returned when walking, rewriting or rendering the tree fails.
var ErrReplace = errors.New("emojify: replace")

// Result is the outcome of Transform.
type Result struct {
	HTML     string `json:"html"`
	Replaced int    `json:"replaced"`
}

// Document rewrites every eligible text leaf under root in place, pulling
// emoji from c in depth-first pre-order. Any failure aborts the whole walk.
func Document(root *html.Node, c *Cycle) (err error) {
	if root == nil {
		return fmt.Errorf("%w: nil document", ErrReplace)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReplace, r)
		}
	}()
	walk(root, c)
	return nil
}

func walk(n *html.Node, c *Cycle) {
	if n.Type == html.TextNode && eligible(n) {
		n.Data = Replace(n.Data, c)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		walk(ch, c)
	}
}

// eligible reports whether a text leaf should go through Replace.
func eligible(n *html.Node) bool {
	return n.Data != "" && utf8.RuneCountInString(n.Data) > minLeafLen && Visible(n)
}

// Render serializes the tree back to HTML.
func Render(root *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("%w: render: %w", ErrReplace, err)
	}
	return sb.String(), nil
}

// Transform parses r, rewrites it with a fresh Cycle and renders the result.
func Transform(r io.Reader) (*Result, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	c := NewCycle()
	if err := Document(doc, c); err != nil {
		return nil, err
	}
	out, err := Render(doc)
	if err != nil {
		return nil, err
	}
	return &Result{HTML: out, Replaced: c.Count()}, nil
}

// TransformString is Transform over an in-memory document.
func TransformString(s string) (*Result, error) {
	return Transform(strings.NewReader(s))
}
