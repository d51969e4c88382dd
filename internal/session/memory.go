package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart and not
// shared between instances.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	// copy so callers cannot mutate the stored value without Save
	d := v.(Data)
	d.ID = id
	d.Flashes = append([]Flash(nil), d.Flashes...)
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, d *Data, ttl time.Duration) error {
	stored := *d
	stored.Flashes = append([]Flash(nil), d.Flashes...)
	stored.dirty = false
	s.cache.Set(d.ID, stored, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
