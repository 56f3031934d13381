package dom

import (
	"fmt"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/identifier"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// InteractiveXPath selects the elements the watcher labels
const InteractiveXPath = `//input | //textarea | //select | //button | //a | //*[@role="button" or @role="link"]`

// Query returns the elements matched by an XPath expression, in document order
func (d *Document) Query(expr string) ([]*Element, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	matched := make(map[*html.Node]bool)
	iter := compiled.Select(&navigator{root: d.root, cur: d.root, attr: -1})
	for iter.MoveNext() {
		nav, ok := iter.Current().(*navigator)
		if !ok || nav.attr >= 0 || nav.cur.Type != html.ElementNode {
			continue
		}
		matched[nav.cur] = true
	}

	var out []*Element
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if matched[n] {
			out = append(out, d.wrap(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(d.root)
	return out, nil
}

// Identifiers returns the generated identifiers in document order
func (d *Document) Identifiers() ([]string, error) {
	labeled, err := d.Query(fmt.Sprintf(`//*[starts-with(@%s, "%s")]`, entities.IdentifierAttribute, identifier.Prefix))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(labeled))
	for _, el := range labeled {
		id, _ := el.Attribute(entities.IdentifierAttribute)
		ids = append(ids, id)
	}
	return ids, nil
}

// Unlabeled returns interactive elements that have no identifier attribute yet
func (d *Document) Unlabeled(attribute string) ([]*Element, error) {
	return d.Query(fmt.Sprintf(`(%s)[not(@%s)]`, InteractiveXPath, attribute))
}

// navigator implements xpath.NodeNavigator over an html.Node tree
type navigator struct {
	root, cur *html.Node
	attr      int
}

func (n *navigator) NodeType() xpath.NodeType {
	if n.attr >= 0 {
		return xpath.AttributeNode
	}
	switch n.cur.Type {
	case html.ElementNode:
		return xpath.ElementNode
	case html.TextNode:
		return xpath.TextNode
	case html.CommentNode:
		return xpath.CommentNode
	default:
		return xpath.RootNode
	}
}

func (n *navigator) LocalName() string {
	if n.attr >= 0 {
		return n.cur.Attr[n.attr].Key
	}
	return n.cur.Data
}

func (n *navigator) Prefix() string { return "" }

func (n *navigator) Value() string {
	if n.attr >= 0 {
		return n.cur.Attr[n.attr].Val
	}
	if n.cur.Type == html.ElementNode || n.cur.Type == html.DocumentNode {
		return (&Element{node: n.cur}).TextContent()
	}
	return n.cur.Data
}

func (n *navigator) Copy() xpath.NodeNavigator {
	cp := *n
	return &cp
}

func (n *navigator) MoveToRoot() {
	n.cur = n.root
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	if n.cur.Parent == nil {
		return false
	}
	n.cur = n.cur.Parent
	return true
}

func (n *navigator) MoveToNext() bool {
	if n.attr >= 0 || n.cur.NextSibling == nil {
		return false
	}
	n.cur = n.cur.NextSibling
	return true
}

func (n *navigator) MoveToPrevious() bool {
	if n.attr >= 0 || n.cur.PrevSibling == nil {
		return false
	}
	n.cur = n.cur.PrevSibling
	return true
}

func (n *navigator) MoveToFirst() bool {
	if n.attr >= 0 || n.cur.PrevSibling == nil {
		return false
	}
	for n.cur.PrevSibling != nil {
		n.cur = n.cur.PrevSibling
	}
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 || n.cur.FirstChild == nil {
		return false
	}
	n.cur = n.cur.FirstChild
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	if n.cur.Type != html.ElementNode || n.attr+1 >= len(n.cur.Attr) {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	n.cur = o.cur
	n.attr = o.attr
	return true
}
