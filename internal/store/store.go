// Package store keeps extraction sessions in memory for the life of the
// process. Entries never expire and are never updated or deleted.
package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

const maxPutAttempts = 3

type Store struct {
	items *cache.Cache
	newID func() string
}

type Option func(*Store)

// WithIDGenerator replaces the random id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		// no default expiration and no janitor goroutine
		items: cache.New(cache.NoExpiration, 0),
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put assigns a fresh id to doc and inserts a deep copy of it. The insert is
// atomic with respect to the id: a generated id that is already taken is
// never overwritten, and repeated collisions fail with utils.ErrIDCollision.
func (s *Store) Put(doc *models.Document) (string, error) {
	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		id := s.newID()
		entry := doc.Clone()
		entry.ID = id
		if err := s.items.Add(id, entry, cache.NoExpiration); err != nil {
			continue
		}
		doc.ID = id
		return id, nil
	}
	return "", fmt.Errorf("%w after %d attempts", utils.ErrIDCollision, maxPutAttempts)
}

// Get returns a copy of the entry; changes to it never reach the store.
func (s *Store) Get(id string) (*models.Document, bool) {
	if x, found := s.items.Get(id); found {
		return x.(*models.Document).Clone(), true
	}
	return nil, false
}

func (s *Store) Len() int {
	return s.items.ItemCount()
}
