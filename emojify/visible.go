package emojify

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Visible reports whether a text node is rendered page content.
// Comments, detached nodes, and text whose parent is the document root or
// one of style, script, head, title, meta are not. Neither is the raw text
// of noscript, iframe, noembed, noframes, xmp and plaintext, which is
// written back unescaped and may hold markup.
func Visible(n *html.Node) bool {
	if n == nil || n.Type != html.TextNode {
		return false
	}
	p := n.Parent
	if p == nil || p.Type == html.DocumentNode {
		return false
	}
	if p.Type != html.ElementNode {
		return true
	}
	switch p.DataAtom {
	case atom.Style, atom.Script, atom.Head, atom.Title, atom.Meta:
		return false
	case atom.Noscript, atom.Iframe, atom.Noembed, atom.Noframes, atom.Xmp, atom.Plaintext:
		return false
	}
	return true
}
