// Package dom adapts golang.org/x/net/html trees to the element model so
// static HTML can be labeled the same way as a live page.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"ui_autoid/domain/entities"

	"golang.org/x/net/html"
)

// ErrNoBody is returned when a document has no body element
var ErrNoBody = errors.New("document has no body element")

// Document is a parsed HTML document
type Document struct {
	root     *html.Node
	url      string
	elements map[*html.Node]*Element
}

// Parse parses an HTML document
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
	}, nil
}

// ParseString is Parse for in-memory markup
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// SetURL sets the address reported with mutation batches
func (d *Document) SetURL(url string) {
	d.url = url
}

// URL returns the document address
func (d *Document) URL() string {
	return d.url
}

// Root returns the document element, nil for an empty tree
func (d *Document) Root() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// Body returns the body element, nil when absent
func (d *Document) Body() *Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	for _, c := range root.elementChildren() {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "body") {
			return d.wrap(c)
		}
	}
	return nil
}

// Render writes the document, including written identifiers
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

// wrap returns the single Element for n so identity comparisons hold
func (d *Document) wrap(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// Element is an element node of a Document
type Element struct {
	doc  *Document
	node *html.Node
}

var (
	_ entities.Element         = (*Element)(nil)
	_ entities.AttributeSetter = (*Element)(nil)
)

func (e *Element) TagName() string {
	return e.node.Data
}

func (e *Element) Parent() entities.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

func (e *Element) Children() []entities.Element {
	nodes := e.elementChildren()
	out := make([]entities.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.doc.wrap(n))
	}
	return out
}

// TextContent concatenates descendant text nodes in document order
func (e *Element) TextContent() string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				collect(c)
			}
		}
	}
	collect(e.node)
	return b.String()
}

// HasPlaceholder is true for text-entry controls
func (e *Element) HasPlaceholder() bool {
	switch strings.ToLower(e.node.Data) {
	case "input", "textarea":
		return true
	}
	return false
}

func (e *Element) Placeholder() string {
	if !e.HasPlaceholder() {
		return ""
	}
	v, _ := e.Attribute("placeholder")
	return v
}

func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute replaces the attribute value or appends the attribute
func (e *Element) SetAttribute(name, value string) error {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			e.node.Attr[i].Val = value
			return nil
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
	return nil
}

func (e *Element) elementChildren() []*html.Node {
	var out []*html.Node
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
