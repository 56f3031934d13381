package watcher

import (
	"errors"
	"strings"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/interfaces"
)

type fakeElement struct {
	tag      string
	text     string
	attrs    map[string]string
	parent   *fakeElement
	children []*fakeElement
	failSet  bool
	writes   int
}

func node(tag, text string, children ...*fakeElement) *fakeElement {
	e := &fakeElement{tag: tag, text: text, attrs: map[string]string{}}
	for _, c := range children {
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

func (e *fakeElement) with(name, value string) *fakeElement {
	e.attrs[name] = value
	return e
}

func (e *fakeElement) TagName() string { return e.tag }

func (e *fakeElement) Parent() entities.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *fakeElement) Children() []entities.Element {
	out := make([]entities.Element, 0, len(e.children))
	for _, c := range e.children {
		out = append(out, c)
	}
	return out
}

func (e *fakeElement) TextContent() string {
	var b strings.Builder
	b.WriteString(e.text)
	for _, c := range e.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

func (e *fakeElement) HasPlaceholder() bool { return e.tag == "input" }

func (e *fakeElement) Placeholder() string { return e.attrs["placeholder"] }

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttribute(name, value string) error {
	if e.failSet {
		return errors.New("node detached")
	}
	e.writes++
	e.attrs[name] = value
	return nil
}

// readOnly hides SetAttribute
type readOnly struct{ *fakeElement }

func (r readOnly) SetAttribute() {}

type fakeSource struct {
	handler interfaces.BatchHandler
	err     error
	stopped bool
}

func (s *fakeSource) Subscribe(handler interfaces.BatchHandler) (interfaces.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.handler = handler
	return s, nil
}

func (s *fakeSource) Stop() error {
	s.stopped = true
	s.handler = nil
	return nil
}

func (s *fakeSource) emit(batch entities.MutationBatch) {
	if s.handler != nil {
		s.handler(batch)
	}
}

type memoryLog struct {
	entries []entities.Assignment
	err     error
}

func (l *memoryLog) Append(assignments []entities.Assignment) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, assignments...)
	return nil
}

func (l *memoryLog) Load() ([]entities.Assignment, error) { return l.entries, nil }

func (l *memoryLog) Clear() error {
	l.entries = nil
	return nil
}
