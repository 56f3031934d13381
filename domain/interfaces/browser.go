package interfaces

import (
	"context"
)

// PageDriver defines the interface for the browser hosting the observed page
type PageDriver interface {
	// Navigate navigates to a URL
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the current page URL
	CurrentURL(ctx context.Context) (string, error)

	// Identifiers returns the generated identifiers present on the page
	Identifiers(ctx context.Context) ([]string, error)

	// Close closes the browser
	Close() error
}

// ObservedBrowser is a page driver that also reports inserted elements
type ObservedBrowser interface {
	PageDriver
	MutationSource
}
