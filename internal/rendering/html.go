package rendering

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes blocks as an HTML fragment. Attributes are written in name order.
func Render(w io.Writer, blocks []*Block) error {
	for _, b := range blocks {
		n, err := toNode(b)
		if err != nil {
			return err
		}
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// Page describes a complete HTML document around a block tree.
type Page struct {
	Title       string
	Lang        string
	Stylesheets []string
	Scripts     []string
	Body        []*Block
}

// RenderPage writes a complete HTML document.
func RenderPage(w io.Writer, p Page) error {
	head := element(atom.Head, nil)
	head.AppendChild(element(atom.Meta, map[string]string{"charset": "utf-8"}))
	title := element(atom.Title, nil)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: p.Title})
	head.AppendChild(title)
	for _, href := range p.Stylesheets {
		head.AppendChild(element(atom.Link, map[string]string{"rel": "stylesheet", "href": href}))
	}
	for _, src := range p.Scripts {
		head.AppendChild(element(atom.Script, map[string]string{"src": src}))
	}

	body := element(atom.Body, nil)
	for _, b := range p.Body {
		n, err := toNode(b)
		if err != nil {
			return err
		}
		body.AppendChild(n)
	}

	root := element(atom.Html, nil)
	if p.Lang != "" {
		root.Attr = append(root.Attr, html.Attribute{Key: "lang", Val: p.Lang})
	}
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	return html.Render(w, doc)
}

func toNode(b *Block) (*html.Node, error) {
	var n *html.Node
	switch b.Kind {
	case KindWord:
		return &html.Node{Type: html.TextNode, Data: b.Text}, nil
	case KindGroup:
		n = element(atom.Div, b.Params)
	case KindParagraph:
		n = element(atom.P, b.Params)
	case KindHeader:
		level := b.Level
		if level < 1 || level > 6 {
			return nil, fmt.Errorf("invalid header level %d", b.Level)
		}
		n = element(atom.Lookup([]byte("h"+strconv.Itoa(level))), b.Params)
	case KindLink:
		n = element(atom.A, b.Params)
		if b.Reference != nil {
			n.Attr = append([]html.Attribute{{Key: "href", Val: b.Reference.Reference}}, n.Attr...)
		}
	default:
		return nil, fmt.Errorf("cannot render block of kind %s", b.Kind)
	}
	for _, c := range b.Children {
		cn, err := toNode(c)
		if err != nil {
			return nil, err
		}
		n.AppendChild(cn)
	}
	return n, nil
}

func element(a atom.Atom, params map[string]string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: params[k]})
	}
	return n
}
