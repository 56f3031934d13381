// Package identifier derives stable, human-readable identifiers for
// interactive elements from their text and their position in the tree.
//
// An identifier has one of two shapes:
//
//	auto-{base}-{index path}    e.g. auto-sign-up-enter-your-email-0-1
//	auto-path-{fallback path}   e.g. auto-path-form-0/div-2/input-0
//
// The base is built from the sanitized text of the element and its parent,
// the index path from sibling positions of up to three ancestors. The
// fallback path is used only when neither level carries usable text.
package identifier

import (
	"slices"
	"strconv"
	"strings"

	"ui_autoid/domain/entities"
)

const (
	// Prefix marks every generated identifier
	Prefix = "auto-"

	// PathPrefix marks identifiers built from the structural fallback path
	PathPrefix = Prefix + "path-"

	TextLevels   = 2  // element itself, then its parent
	SegmentLimit = 20 // runes per collected text
	BaseLimit    = 30 // runes of the joined base
	IndexLevels  = 3  // ancestor levels in the index path
)

// Result is a generated identifier together with the way it was built
type Result struct {
	ID       string
	Base     string // empty when Fallback is set
	Path     string // index path, or the fallback path when Fallback is set
	Fallback bool
}

// Generate returns the identifier for el. boundary is the top-level
// container the structural walks stop at; nil stops them at the root.
// It never fails and never returns an empty string.
func Generate(el, boundary entities.Element) string {
	return Describe(el, boundary).ID
}

// Describe is Generate with the intermediate parts exposed
func Describe(el, boundary entities.Element) Result {
	if base := BaseIdentifier(el); base != "" {
		path := IndexPath(el, boundary)
		id := Prefix + base
		if path != "" {
			id += "-" + path
		}
		return Result{ID: id, Base: base, Path: path}
	}

	path := strings.ToLower(FallbackPath(el, boundary))
	return Result{ID: PathPrefix + path, Path: path, Fallback: true}
}

// CandidateTexts collects sanitized text from the element and its parent.
// Empty entries and exact duplicates are dropped.
func CandidateTexts(el entities.Element) []string {
	texts := make([]string, 0, TextLevels)

	cur := el
	for level := 0; level < TextLevels && cur != nil; level++ {
		text := Truncate(Sanitize(rawText(cur)), SegmentLimit)
		if text != "" && !slices.Contains(texts, text) {
			texts = append(texts, text)
		}
		cur = cur.Parent()
	}

	return texts
}

// BaseIdentifier joins the candidate texts outermost first and bounds the result
func BaseIdentifier(el entities.Element) string {
	texts := CandidateTexts(el)
	if len(texts) == 0 {
		return ""
	}
	slices.Reverse(texts)
	return Truncate(strings.Join(texts, "-"), BaseLimit)
}

// IndexPath returns the sibling indices of el and its nearest ancestors,
// root-most first, joined with "-". The boundary's own index is never included.
func IndexPath(el, boundary entities.Element) string {
	indices := make([]string, 0, IndexLevels)

	cur := el
	for len(indices) < IndexLevels && !same(cur, boundary) {
		parent := cur.Parent()
		if parent == nil {
			break
		}
		indices = append(indices, strconv.Itoa(SiblingIndex(cur, parent)))
		cur = parent
	}

	slices.Reverse(indices)
	return strings.Join(indices, "-")
}

// FallbackPath returns tag-index segments from just below the boundary down to el.
// The element itself is always recorded.
func FallbackPath(el, boundary entities.Element) string {
	var segments []string

	cur := el
	for {
		parent := cur.Parent()
		index := 0
		if parent != nil {
			index = SiblingIndex(cur, parent)
		}
		segments = append(segments, cur.TagName()+"-"+strconv.Itoa(index))

		if parent == nil || same(cur, boundary) || same(parent, boundary) {
			break
		}
		cur = parent
	}

	slices.Reverse(segments)
	return strings.Join(segments, "/")
}

// SiblingIndex returns the zero-based position of el among parent's element children
func SiblingIndex(el, parent entities.Element) int {
	if p, ok := el.(entities.Positioned); ok {
		return p.SiblingIndex()
	}
	for i, child := range parent.Children() {
		if same(child, el) {
			return i
		}
	}
	return 0
}

// rawText prefers a non-empty placeholder over text content
func rawText(el entities.Element) string {
	if el.HasPlaceholder() {
		if placeholder := strings.TrimSpace(el.Placeholder()); placeholder != "" {
			return placeholder
		}
	}
	return strings.TrimSpace(el.TextContent())
}

func same(a, b entities.Element) bool {
	return a != nil && b != nil && a == b
}
