package emojify

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements never take children; their end tags are ignored.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Keygen: true, atom.Link: true, atom.Meta: true, atom.Param: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

// rawElements switch the tokenizer to raw text, even when written
// self-closing, so they always open a scope for that text.
var rawElements = map[atom.Atom]bool{
	atom.Iframe: true, atom.Noembed: true, atom.Noframes: true,
	atom.Noscript: true, atom.Plaintext: true, atom.Script: true,
	atom.Style: true, atom.Textarea: true, atom.Title: true, atom.Xmp: true,
}

// Parse builds a document tree from r that mirrors the source markup.
//
// Unlike html.Parse no elements are implied or moved: text written inside
// <head> stays there, and text outside any element hangs off the document
// node. An end tag closes the nearest open element of the same name and is
// dropped when none is open.
func Parse(r io.Reader) (*html.Node, error) {
	doc := &html.Node{Type: html.DocumentNode}
	open := []*html.Node{doc}

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("%w: %w", ErrParse, err)
			}
			return doc, nil
		}
		tok := z.Token()
		top := open[len(open)-1]

		switch tt {
		case html.TextToken:
			if last := top.LastChild; last != nil && last.Type == html.TextNode {
				last.Data += tok.Data
				continue
			}
			top.AppendChild(&html.Node{Type: html.TextNode, Data: tok.Data})
		case html.CommentToken:
			top.AppendChild(&html.Node{Type: html.CommentNode, Data: tok.Data})
		case html.DoctypeToken:
			top.AppendChild(&html.Node{Type: html.DoctypeNode, Data: tok.Data})
		case html.StartTagToken, html.SelfClosingTagToken:
			n := &html.Node{
				Type:     html.ElementNode,
				Data:     tok.Data,
				DataAtom: tok.DataAtom,
				Attr:     tok.Attr,
			}
			top.AppendChild(n)
			if voidElements[tok.DataAtom] {
				continue
			}
			if tt == html.StartTagToken || rawElements[tok.DataAtom] {
				open = append(open, n)
			}
		case html.EndTagToken:
			for i := len(open) - 1; i > 0; i-- {
				if open[i].Data == tok.Data {
					open = open[:i]
					break
				}
			}
		}
	}
}
