package watcher

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/identifier"
	"ui_autoid/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// qualifyingTags are the input-like, button-like and link-like elements
var qualifyingTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
	"button":   true,
	"a":        true,
}

// Watcher labels qualifying elements delivered by a mutation source
type Watcher struct {
	logger    *logrus.Logger
	log       interfaces.AssignmentLog
	sessionID string
	now       func() time.Time

	mu      sync.Mutex
	labeled int
}

// Option configures a Watcher
type Option func(*Watcher)

// WithAssignmentLog - records every written identifier in log
func WithAssignmentLog(log interfaces.AssignmentLog) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// WithSessionID - overrides the generated session ID
func WithSessionID(id string) Option {
	return func(w *Watcher) {
		w.sessionID = id
	}
}

// WithClock - overrides the assignment timestamp source
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

// New - creates new watcher instance
func New(logger *logrus.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		logger:    logger,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SessionID - returns the session recorded on assignments
func (w *Watcher) SessionID() string {
	return w.sessionID
}

// Labeled - returns the number of identifiers written so far
func (w *Watcher) Labeled() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.labeled
}

// Attach - starts observing src; stop the returned subscription to detach
func (w *Watcher) Attach(src interfaces.MutationSource) (interfaces.Subscription, error) {
	sub, err := src.Subscribe(func(batch entities.MutationBatch) {
		w.Process(batch)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach watcher: %w", err)
	}

	w.logger.WithField("session", w.sessionID).Info("Watcher attached")
	return sub, nil
}

// Process - labels every qualifying element in the batch that has no identifier yet
func (w *Watcher) Process(batch entities.MutationBatch) []entities.Assignment {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[entities.Element]struct{})
	var assignments []entities.Assignment

	for _, added := range batch.Added {
		walk(added, func(el entities.Element) {
			if _, ok := seen[el]; ok {
				return
			}
			seen[el] = struct{}{}

			if !Qualifies(el) {
				return
			}
			if a, ok := w.label(el, batch); ok {
				assignments = append(assignments, a)
			}
		})
	}

	if len(assignments) == 0 {
		return nil
	}

	w.labeled += len(assignments)
	w.logger.WithFields(logrus.Fields{
		"url":      batch.URL,
		"assigned": len(assignments),
	}).Debug("Batch processed")

	if w.log != nil {
		if err := w.log.Append(assignments); err != nil {
			w.logger.Warnf("Failed to record assignments: %v", err)
		}
	}

	return assignments
}

// label - writes the generated identifier onto el unless one is present
func (w *Watcher) label(el entities.Element, batch entities.MutationBatch) (entities.Assignment, bool) {
	if _, ok := el.Attribute(entities.IdentifierAttribute); ok {
		return entities.Assignment{}, false
	}

	setter, ok := el.(entities.AttributeSetter)
	if !ok {
		w.logger.Debugf("Element <%s> does not accept attributes, skipping", el.TagName())
		return entities.Assignment{}, false
	}

	res := identifier.Describe(el, batch.Boundary)
	if err := setter.SetAttribute(entities.IdentifierAttribute, res.ID); err != nil {
		w.logger.Debugf("Failed to write %s on <%s>: %v", res.ID, el.TagName(), err)
		return entities.Assignment{}, false
	}

	w.logger.WithFields(logrus.Fields{
		"tag":      strings.ToLower(el.TagName()),
		"id":       res.ID,
		"fallback": res.Fallback,
	}).Info("Identifier assigned")

	return entities.Assignment{
		SessionID:  w.sessionID,
		URL:        batch.URL,
		Tag:        strings.ToLower(el.TagName()),
		Identifier: res.ID,
		Fallback:   res.Fallback,
		AssignedAt: w.now(),
	}, true
}

// Qualifies - reports whether el is an input-like, button-like or link-like element
func Qualifies(el entities.Element) bool {
	if qualifyingTags[strings.ToLower(el.TagName())] {
		return true
	}

	role, _ := el.Attribute("role")
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "button", "link":
		return true
	}
	return false
}

// walk - visits el and its descendants in document order
func walk(el entities.Element, visit func(entities.Element)) {
	if el == nil {
		return
	}
	visit(el)
	for _, child := range el.Children() {
		walk(child, visit)
	}
}
