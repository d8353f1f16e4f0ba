package txn

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore wraps the memory store and records every call.
type recordingStore struct {
	*memory.Store

	mu      sync.Mutex
	gets    []string
	updates []domain.UpdateRequest
	reject  map[string]domain.ResultCode
	broken  bool
}

func newRecordingStore(seed ...*domain.Entity) *recordingStore {
	return &recordingStore{Store: memory.NewStore(seed...), reject: map[string]domain.ResultCode{}}
}

func (s *recordingStore) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	s.gets = append(s.gets, id)
	s.mu.Unlock()
	return s.Store.Get(ctx, id)
}

func (s *recordingStore) Update(ctx context.Context, req domain.UpdateRequest) (domain.UpdateResult, error) {
	s.mu.Lock()
	s.updates = append(s.updates, req)
	s.mu.Unlock()
	if s.broken {
		return domain.UpdateResult{}, fmt.Errorf("dial: %w", domain.ErrTransport)
	}
	if code, ok := s.reject[req.Entity.ID()]; ok {
		return domain.UpdateResult{Status: code}, nil
	}
	return s.Store.Update(ctx, req)
}

func (s *recordingStore) updatedIDs() []string {
	var ids []string
	for _, u := range s.updates {
		ids = append(ids, u.Entity.ID())
	}
	return ids
}

func person(id, name string) *domain.Entity {
	e := domain.NewEntity(id)
	e.Add(domain.PredicateType, domain.URI("v-s:Person"))
	e.Add("v-s:name", domain.String(name, ""))
	return e
}

func TestCommit_PutsOnDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tx := New(store, WithEventID("ev-1"), WithSource("test"))

	ids := []string{"d:c", "d:a", "d:b"}
	for _, id := range ids {
		require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpPut, person(id, id), "t1"))
	}

	assert.Equal(t, domain.Ok, tx.Commit(ctx, store))
	assert.Equal(t, ids, store.updatedIDs())
	for _, u := range store.updates {
		assert.Equal(t, domain.OpPut, u.Op)
		assert.Equal(t, "t1", u.Ticket)
		assert.Equal(t, "ev-1", u.EventID)
		assert.Equal(t, "test", u.Source)
		assert.Equal(t, domain.AllSubsystems, u.Subsystems)
	}
}

func TestAdd_IncrementalOpsMergeIntoOnePut(t *testing.T) {
	ctx := context.Background()
	stored := person("d:ann", "Ann")
	stored.Add("v-s:tag", domain.String("a", ""))
	store := newRecordingStore(stored)
	tx := New(store)

	add := domain.NewEntity("d:ann")
	add.Add("v-s:tag", domain.String("b", ""))
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpAddTo, add, "t1"))

	set := domain.NewEntity("d:ann")
	set.Add("v-s:name", domain.String("Annabel", ""))
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpSetIn, set, "t1"))

	items := tx.Items()
	require.Len(t, items, 1)
	assert.Equal(t, domain.OpPut, items[0].Op)
	assert.Equal(t, "d:ann", items[0].URI)
	assert.Equal(t, []domain.Value{domain.String("a", ""), domain.String("b", "")}, items[0].Entity.Values("v-s:tag"))
	assert.Equal(t, []domain.Value{domain.String("Annabel", "")}, items[0].Entity.Values("v-s:name"))
	assert.Equal(t, []string{"d:ann"}, store.gets)
}

func TestAdd_RemoveFromMissingEntity(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tx := New(store)

	patch := domain.NewEntity("d:ghost")
	patch.Add("v-s:tag", domain.String("a", ""))

	assert.Equal(t, domain.NotFound, tx.Add(ctx, domain.OpRemoveFrom, patch, "t1"))
	assert.Equal(t, 0, tx.Len())

	assert.Equal(t, domain.Ok, tx.Commit(ctx, store))
	assert.Empty(t, store.updates)
}

func TestAdd_RemoveFromValuesAndPredicates(t *testing.T) {
	ctx := context.Background()
	stored := person("d:ann", "Ann")
	stored.Add("v-s:tag", domain.String("a", ""), domain.String("b", ""))
	tx := New(newRecordingStore(stored))

	patch := domain.NewEntity("d:ann")
	patch.Add("v-s:tag", domain.String("a", ""))
	patch.Add("v-s:name")
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpRemoveFrom, patch, "t1"))

	got, ok := tx.Get("d:ann")
	require.True(t, ok)
	assert.Equal(t, []domain.Value{domain.String("b", "")}, got.Values("v-s:tag"))
	assert.False(t, got.Has("v-s:name"))
}

func TestAdd_UnprocessablePrior(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	require.NoError(t, store.PutRaw("d:bad", []byte(`{"@": 12`)))
	tx := New(store)

	assert.Equal(t, domain.UnprocessableEntity, tx.Add(ctx, domain.OpAddTo, person("d:bad", "x"), "t1"))
	assert.Equal(t, 0, tx.Len())
}

func TestAdd_IncrementalAfterBufferedRemove(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(person("d:ann", "Stored"))
	tx := New(store)

	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpPut, person("d:ann", "Ann"), "t1"))
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpRemove, domain.NewEntity("d:ann"), "t1"))

	e, ok := tx.Get("d:ann")
	require.True(t, ok, "removal does not shadow the buffered put")
	name, _ := e.First("v-s:name")
	assert.Equal(t, "Ann", name.Data)

	tag := domain.NewEntity("d:ann")
	tag.Add("v-s:tag", domain.String("a", ""))
	assert.Equal(t, domain.Ok, tx.Add(ctx, domain.OpAddTo, tag, "t1"))

	items := tx.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []domain.Value{domain.String("a", "")}, items[0].Entity.Values("v-s:tag"))
	assert.Equal(t, domain.OpRemove, items[1].Op)
	assert.Empty(t, items[1].URI)
	assert.Empty(t, store.gets)
}

func TestGet_RemoveAloneFallsThrough(t *testing.T) {
	ctx := context.Background()
	tx := New(newRecordingStore(person("d:ann", "Ann")))

	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpRemove, domain.NewEntity("d:ann"), "t1"))

	e, ok := tx.Get("d:ann")
	assert.False(t, ok)
	assert.Nil(t, e)
	_, ok = tx.Get("")
	assert.False(t, ok)
}

func TestGet_ReflectsBufferedPut(t *testing.T) {
	ctx := context.Background()
	tx := New(newRecordingStore(person("d:ann", "Stale")))

	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpPut, person("d:ann", "Fresh"), "t1"))

	e, ok := tx.Get("d:ann")
	require.True(t, ok)
	name, _ := e.First("v-s:name")
	assert.Equal(t, "Fresh", name.Data)

	e.Add("v-s:name", domain.String("mutated", ""))
	again, _ := tx.Get("d:ann")
	assert.Len(t, again.Values("v-s:name"), 1)
}

func TestAdd_EmptyTicketUsesSystemTicket(t *testing.T) {
	ctx := context.Background()
	tx := New(newRecordingStore(), WithSysTicket("sys"))

	tx.Add(ctx, domain.OpPut, person("d:ann", "Ann"), "")
	assert.Equal(t, "sys", tx.Items()[0].Ticket)
}

func TestAdd_FoldKeepsBufferedTicket(t *testing.T) {
	ctx := context.Background()
	tx := New(newRecordingStore(), WithSysTicket("sys"))

	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpPut, person("d:ann", "Ann"), "user"))

	patch := domain.NewEntity("d:ann")
	patch.Add("v-s:tag", domain.String("a", ""))
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpAddTo, patch, ""))
	require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpSetIn, patch, "other"))

	items := tx.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "user", items[0].Ticket)
}

func TestCommit_ReplaysSupersededPuts(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tx := New(store)

	tx.Add(ctx, domain.OpPut, person("d:ann", "one"), "t1")
	tx.Add(ctx, domain.OpPut, person("d:ann", "two"), "t1")

	assert.Equal(t, 2, tx.Len())
	assert.Equal(t, domain.Ok, tx.Commit(ctx, store))
	assert.Equal(t, []string{"d:ann", "d:ann"}, store.updatedIDs())

	stored, err := store.Store.Get(ctx, "d:ann")
	require.NoError(t, err)
	assert.Contains(t, string(stored), "two")
}

func TestCommit_StopsAtFailingItem(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tx := New(store)

	tx.Add(ctx, domain.OpPut, person("d:one", "1"), "t1")
	tx.push(&Item{URI: "d:two", Op: domain.OpPut, Entity: person("d:two", "2"), Status: domain.NotAuthorized})
	tx.Add(ctx, domain.OpPut, person("d:three", "3"), "t1")

	assert.Equal(t, domain.NotAuthorized, tx.Commit(ctx, store))
	assert.Equal(t, []string{"d:one"}, store.updatedIDs())

	_, err := store.Store.Get(ctx, "d:one")
	assert.NoError(t, err, "items before the failure stay applied")
}

func TestCommit_StoreRejection(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	store.reject["d:two"] = domain.NotAuthorized
	tx := New(store)

	for _, id := range []string{"d:one", "d:two", "d:three"} {
		tx.Add(ctx, domain.OpPut, person(id, id), "t1")
	}

	assert.Equal(t, domain.NotAuthorized, tx.Commit(ctx, store))
	assert.Equal(t, []string{"d:one", "d:two"}, store.updatedIDs())
}

func TestCommit_TransportFailure(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	store.broken = true
	tx := New(store)

	tx.Add(ctx, domain.OpPut, person("d:one", "1"), "t1")
	assert.Equal(t, domain.TransportError, tx.Commit(ctx, store))
}

func TestCommit_SkipsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(person("d:gone", "x"))
	tx := New(store)

	tx.Add(ctx, domain.OpRemove, domain.NewEntity(""), "t1")
	tx.Add(ctx, domain.OpPut, person("x", "short"), "t1")
	tx.Add(ctx, domain.OpRemove, domain.NewEntity("d:gone"), "t1")

	assert.Equal(t, domain.Ok, tx.Commit(ctx, store))
	require.Len(t, store.updates, 1)
	assert.Equal(t, domain.OpRemove, store.updates[0].Op)

	_, err := store.Store.Get(ctx, "d:gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
