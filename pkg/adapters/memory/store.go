package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// Store implements ports.EntityStore and ports.Searcher in memory.
// Entities are kept serialized so reads go through the same parse path as a remote store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
	opID atomic.Int64
}

// NewStore creates a new in-memory store seeded with the given entities.
func NewStore(seed ...*domain.Entity) *Store {
	s := &Store{
		data: make(map[string][]byte),
	}
	for _, e := range seed {
		_ = s.PutRaw(e.ID(), mustMarshal(e))
	}
	return s
}

func mustMarshal(e *domain.Entity) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("memory: marshal %s: %v", e.ID(), err))
	}
	return data
}

// PutRaw stores raw bytes under an id without validation.
func (s *Store) PutRaw(id string, raw []byte) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = append([]byte(nil), raw...)
	return nil
}

// Get returns the serialized entity.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

// Update applies a Put or Remove. Incremental ops are expected to be
// normalized to Put before reaching the store.
func (s *Store) Update(ctx context.Context, req domain.UpdateRequest) (domain.UpdateResult, error) {
	if req.Entity == nil || req.Entity.ID() == "" {
		return domain.UpdateResult{Status: domain.InvalidIdentifier}, nil
	}
	id := req.Entity.ID()

	switch req.Op {
	case domain.OpPut:
		data, err := json.Marshal(req.Entity)
		if err != nil {
			return domain.UpdateResult{Status: domain.UnprocessableEntity}, nil
		}
		s.mu.Lock()
		s.data[id] = data
		s.mu.Unlock()
	case domain.OpRemove:
		s.mu.Lock()
		delete(s.data, id)
		s.mu.Unlock()
	default:
		return domain.UpdateResult{Status: domain.BadRequest}, nil
	}

	return domain.UpdateResult{Status: domain.Ok, OpID: s.opID.Add(1)}, nil
}

// Query scans every stored entity and matches it against the query.
// Results are ordered by id.
func (s *Store) Query(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	q, err := domain.ParseQuery(req.Query)
	if err != nil {
		return domain.SearchResult{ResultCode: domain.CodeOf(err)}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, raw := range s.data {
		e, err := domain.Parse(raw)
		if err != nil {
			continue
		}
		if q.Match(e) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return req.Page(ids), nil
}

// List returns every stored id.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
