package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEntityStoreContract runs a suite of tests to verify that an EntityStore implementation
// adheres to the defined interface contract. Stores that also implement Searcher get
// their query path checked as well.
func RunEntityStoreContract(t *testing.T, store EntityStore) {
	ctx := context.Background()
	prefix := "contract:" + time.Now().Format("20060102150405") + ":"

	put := func(e *domain.Entity) domain.UpdateResult {
		res, err := store.Update(ctx, domain.UpdateRequest{
			Entity:     e,
			Ticket:     "contract-ticket",
			Op:         domain.OpPut,
			Subsystems: domain.AllSubsystems,
		})
		require.NoError(t, err)
		return res
	}

	t.Run("Put and Get", func(t *testing.T) {
		e := domain.NewEntity(prefix + "one")
		e.Add(domain.PredicateType, domain.URI("v-s:Thing"))
		e.Add("v-s:name", domain.String("one", "EN"))
		e.Add("v-s:count", domain.Integer(42))

		res := put(e)
		assert.Equal(t, domain.Ok, res.Status)

		loaded, err := Fetch(ctx, store, e.ID())
		require.NoError(t, err, "Fetch should not return error")
		assert.Equal(t, e.ID(), loaded.ID())
		assert.Equal(t, []string{"v-s:Thing"}, loaded.Types())
		count, ok := loaded.First("v-s:count")
		require.True(t, ok)
		assert.Equal(t, int64(42), count.Data)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		e := domain.NewEntity(prefix + "two")
		e.Add("v-s:n", domain.Integer(1))
		put(e)

		e2 := domain.NewEntity(prefix + "two")
		e2.Add("v-s:m", domain.Integer(2))
		put(e2)

		loaded, err := Fetch(ctx, store, prefix+"two")
		require.NoError(t, err)
		assert.False(t, loaded.Has("v-s:n"))
		assert.True(t, loaded.Has("v-s:m"))
	})

	t.Run("Remove", func(t *testing.T) {
		e := domain.NewEntity(prefix + "three")
		e.Add("v-s:n", domain.Integer(3))
		put(e)

		res, err := store.Update(ctx, domain.UpdateRequest{
			Entity: domain.NewEntity(prefix + "three"),
			Op:     domain.OpRemove,
		})
		require.NoError(t, err, "Remove should not return error")
		assert.Equal(t, domain.Ok, res.Status)

		_, err = store.Get(ctx, prefix+"three")
		assert.ErrorIs(t, err, domain.ErrNotFound, "Get after Remove should return ErrNotFound")
	})

	searcher, ok := store.(Searcher)
	if !ok {
		return
	}

	t.Run("Query", func(t *testing.T) {
		a := domain.NewEntity(prefix + "q-a")
		a.Add(domain.PredicateType, domain.URI("v-s:Searchable"))
		b := domain.NewEntity(prefix + "q-b")
		b.Add(domain.PredicateType, domain.URI("v-s:Searchable"))
		c := domain.NewEntity(prefix + "q-c")
		c.Add(domain.PredicateType, domain.URI("v-s:Other"))
		put(a)
		put(b)
		put(c)

		res, err := searcher.Query(ctx, domain.NewSearchRequest("contract-ticket", `'rdf:type' === 'v-s:Searchable'`))
		require.NoError(t, err)
		assert.Equal(t, domain.Ok, res.ResultCode)
		assert.ElementsMatch(t, []string{a.ID(), b.ID()}, res.Result)
		assert.Equal(t, 2, res.Count)
	})

	t.Run("Query Invalid", func(t *testing.T) {
		res, err := searcher.Query(ctx, domain.NewSearchRequest("contract-ticket", `rdf:type ==`))
		require.NoError(t, err)
		assert.Equal(t, domain.BadRequest, res.ResultCode)
		assert.Empty(t, res.Result)
	})
}
