package identifier

import (
	"strings"

	"ui_autoid/domain/entities"
)

// node is an in-memory element used to build synthetic trees
type node struct {
	tag            string
	text           string
	placeholder    string
	hasPlaceholder bool
	attrs          map[string]string
	parent         *node
	children       []*node
}

func el(tag, text string, children ...*node) *node {
	n := &node{tag: tag, text: text, attrs: map[string]string{}}
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func input(placeholder string) *node {
	n := el("input", "")
	n.hasPlaceholder = true
	n.placeholder = placeholder
	return n
}

func (n *node) TagName() string { return n.tag }

func (n *node) Parent() entities.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []entities.Element {
	out := make([]entities.Element, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

func (n *node) TextContent() string {
	var b strings.Builder
	b.WriteString(n.text)
	for _, c := range n.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

func (n *node) HasPlaceholder() bool { return n.hasPlaceholder }
func (n *node) Placeholder() string  { return n.placeholder }

func (n *node) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// positioned reports a fixed index and has no materialized siblings
type positioned struct {
	*node
	index int
}

func (p positioned) SiblingIndex() int { return p.index }
