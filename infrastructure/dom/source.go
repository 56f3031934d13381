package dom

import (
	"sync"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/interfaces"
)

// Source returns a mutation source that reports every unlabeled interactive
// element as inserted, once, when a handler subscribes.
func (d *Document) Source() interfaces.MutationSource {
	return &staticSource{doc: d}
}

type staticSource struct {
	doc  *Document
	mu   sync.Mutex
	used bool
}

type staticSubscription struct{}

func (staticSubscription) Stop() error { return nil }

func (s *staticSource) Subscribe(handler interfaces.BatchHandler) (interfaces.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.used {
		return nil, interfaces.ErrAlreadySubscribed
	}
	body := s.doc.Body()
	if body == nil {
		return nil, ErrNoBody
	}
	unlabeled, err := s.doc.Unlabeled(entities.IdentifierAttribute)
	if err != nil {
		return nil, err
	}
	s.used = true

	added := make([]entities.Element, 0, len(unlabeled))
	for _, el := range unlabeled {
		added = append(added, el)
	}
	handler(entities.MutationBatch{
		Added:    added,
		Boundary: body,
		URL:      s.doc.url,
	})
	return staticSubscription{}, nil
}
