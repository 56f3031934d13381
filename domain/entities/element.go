package entities

// IdentifierAttribute is the attribute the generated identifier is written to
const IdentifierAttribute = "data-testid"

// Element is a read-only view of a node in a document tree.
// Implementations must return an untyped nil from Parent at the root.
type Element interface {
	// TagName returns the element tag, in any case
	TagName() string

	// Parent returns the parent element or nil
	Parent() Element

	// Children returns the element children in document order, text and comment nodes excluded
	Children() []Element

	// TextContent returns all descendant text concatenated
	TextContent() string

	// HasPlaceholder reports whether the element is a placeholder source (input-like)
	HasPlaceholder() bool

	// Placeholder returns the placeholder text, empty when HasPlaceholder is false
	Placeholder() string

	// Attribute returns the attribute value and whether it is present
	Attribute(name string) (string, bool)
}

// AttributeSetter is implemented by elements that accept attribute writes
type AttributeSetter interface {
	SetAttribute(name, value string) error
}

// Positioned is implemented by elements that know their index among the
// parent's element children without the siblings being materialized.
type Positioned interface {
	SiblingIndex() int
}

// MutationBatch is one notification of inserted nodes
type MutationBatch struct {
	Added    []Element // inserted subtree roots
	Boundary Element   // top-level container, nil means the parentless root
	URL      string    // page the batch came from, may be empty
}
