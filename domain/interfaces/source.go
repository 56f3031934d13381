package interfaces

import (
	"errors"

	"ui_autoid/domain/entities"
)

var (
	// ErrSourceClosed is returned when subscribing to a closed source
	ErrSourceClosed = errors.New("mutation source closed")

	// ErrAlreadySubscribed is returned when a source accepts a single subscriber
	ErrAlreadySubscribed = errors.New("mutation source already has a subscriber")
)

// BatchHandler receives batches of inserted nodes, one call at a time
type BatchHandler func(batch entities.MutationBatch)

// MutationSource delivers inserted nodes of a document tree
type MutationSource interface {
	// Subscribe registers the handler and starts delivery
	Subscribe(handler BatchHandler) (Subscription, error)
}

// Subscription is the handle returned by Subscribe
type Subscription interface {
	// Stop detaches the handler, no batch is delivered after it returns
	Stop() error
}
