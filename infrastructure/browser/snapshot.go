package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ui_autoid/domain/entities"
)

// RefWriter writes an attribute onto the live element carrying ref
type RefWriter interface {
	WriteRef(ref, name, value string) error
}

var errNotWritable = errors.New("snapshot element has no ref")

type batchPayload struct {
	URL   string        `json:"url"`
	Nodes []nodePayload `json:"nodes"`
	Added []int         `json:"added"`
}

type nodePayload struct {
	Key            int               `json:"key"`
	Parent         int               `json:"parent"`
	Tag            string            `json:"tag"`
	Index          int               `json:"index"`
	Text           string            `json:"text"`
	Placeholder    string            `json:"placeholder"`
	HasPlaceholder bool              `json:"hasPlaceholder"`
	Attrs          map[string]string `json:"attrs"`
	Ref            string            `json:"ref"`
	Boundary       bool              `json:"boundary"`
}

// DecodeBatch rebuilds the snapshot tree reported by the page script.
// Nodes shared by several ancestor chains become one element.
func DecodeBatch(payload []byte, writer RefWriter) (entities.MutationBatch, error) {
	var p batchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return entities.MutationBatch{}, fmt.Errorf("failed to decode batch: %w", err)
	}

	nodes := make(map[int]*snapshotElement, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Key == 0 {
			return entities.MutationBatch{}, fmt.Errorf("failed to decode batch: node without key")
		}
		attrs := n.Attrs
		if attrs == nil {
			attrs = make(map[string]string)
		}
		nodes[n.Key] = &snapshotElement{
			tag:            n.Tag,
			index:          n.Index,
			text:           n.Text,
			placeholder:    n.Placeholder,
			hasPlaceholder: n.HasPlaceholder,
			attrs:          attrs,
			ref:            n.Ref,
			writer:         writer,
		}
	}

	batch := entities.MutationBatch{URL: p.URL}
	for _, n := range p.Nodes {
		el := nodes[n.Key]
		if n.Boundary && batch.Boundary == nil {
			batch.Boundary = el
		}
		if n.Parent == 0 {
			continue
		}
		parent, ok := nodes[n.Parent]
		if !ok {
			return entities.MutationBatch{}, fmt.Errorf("failed to decode batch: node %d references unknown parent %d", n.Key, n.Parent)
		}
		el.parent = parent
		parent.children = append(parent.children, el)
	}
	for _, el := range nodes {
		sort.SliceStable(el.children, func(i, j int) bool {
			return el.children[i].index < el.children[j].index
		})
	}

	for _, key := range p.Added {
		el, ok := nodes[key]
		if !ok {
			return entities.MutationBatch{}, fmt.Errorf("failed to decode batch: unknown added node %d", key)
		}
		batch.Added = append(batch.Added, el)
	}

	return batch, nil
}

// snapshotElement is one node of a reported ancestor chain. Only nodes on
// some chain are present, so the position comes from the page.
type snapshotElement struct {
	tag            string
	index          int
	text           string
	placeholder    string
	hasPlaceholder bool
	attrs          map[string]string
	ref            string
	writer         RefWriter

	parent   *snapshotElement
	children []*snapshotElement
}

var (
	_ entities.Element         = (*snapshotElement)(nil)
	_ entities.AttributeSetter = (*snapshotElement)(nil)
	_ entities.Positioned      = (*snapshotElement)(nil)
)

func (s *snapshotElement) TagName() string { return s.tag }

func (s *snapshotElement) Parent() entities.Element {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *snapshotElement) Children() []entities.Element {
	out := make([]entities.Element, 0, len(s.children))
	for _, c := range s.children {
		out = append(out, c)
	}
	return out
}

func (s *snapshotElement) TextContent() string  { return s.text }
func (s *snapshotElement) HasPlaceholder() bool { return s.hasPlaceholder }
func (s *snapshotElement) Placeholder() string  { return s.placeholder }
func (s *snapshotElement) SiblingIndex() int    { return s.index }

func (s *snapshotElement) Attribute(name string) (string, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

func (s *snapshotElement) SetAttribute(name, value string) error {
	if s.ref == "" || s.writer == nil {
		return errNotWritable
	}
	if err := s.writer.WriteRef(s.ref, name, value); err != nil {
		return err
	}
	s.attrs[name] = value
	return nil
}
