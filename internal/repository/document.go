package repository

import (
	"context"
	"errors"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

// ErrNotFound is returned when a lookup by id has no matching record.
var ErrNotFound = errors.New("document not found")

// DocumentRepository defines data access for generated document records.
// No business logic here, strictly persistence operations. The binary
// content is not stored here; it lives in blob storage under the record's
// filename.
type DocumentRepository interface {
	// Insert stores a new document record. The caller provides all fields
	// including ID and GeneratedAt.
	Insert(ctx context.Context, doc *model.GeneratedDocument) error

	// FindByID returns a document record by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.GeneratedDocument, error)

	// FindAll returns all document records, newest first.
	FindAll(ctx context.Context) ([]model.GeneratedDocument, error)

	// Search returns the records matching the filter, newest first. An
	// empty filter is equivalent to FindAll.
	Search(ctx context.Context, filter model.SearchFilter) ([]model.GeneratedDocument, error)

	// Delete removes a record by ID. Returns ErrNotFound when no row
	// matched.
	Delete(ctx context.Context, id string) error

	// UpdateTags replaces the tag list of a record. Returns ErrNotFound
	// when no row matched.
	UpdateTags(ctx context.Context, id string, tags []string) error

	// Stats aggregates archive counters for the dashboard.
	Stats(ctx context.Context) (*model.DocumentStats, error)

	// Subscribe registers a live view over the records matching filter.
	// The subscription's channel carries complete result sets, newest
	// first: the current matches arrive immediately and every change to
	// the collection re-emits the full set. The channel holds at most one
	// pending snapshot; a slow consumer sees the latest state, not every
	// intermediate one. Callers that cannot subscribe fall back to
	// polling.
	Subscribe(ctx context.Context, filter model.SearchFilter) (*Subscription, error)
}

// Subscription is a live result-set feed. Unsubscribe is idempotent and
// closes C.
type Subscription struct {
	C      <-chan []model.GeneratedDocument
	cancel func()
}

// NewSubscription wires a subscription around its snapshot channel and the
// store-side teardown. Intended for repository implementations.
func NewSubscription(c <-chan []model.GeneratedDocument, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Unsubscribe detaches from the change feed and closes C.
func (s *Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}
