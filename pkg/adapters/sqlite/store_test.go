package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/scriptbridge/pkg/adapters/sqlite"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunEntityStoreContract(t, openStore(t))
}

func TestSQLiteStore_OpIDsIncrease(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Update(ctx, domain.UpdateRequest{Entity: domain.NewEntity("d:one"), Op: domain.OpPut, EventID: "ev"})
	require.NoError(t, err)
	second, err := store.Update(ctx, domain.UpdateRequest{Entity: domain.NewEntity("d:one"), Op: domain.OpRemove})
	require.NoError(t, err)

	assert.Equal(t, domain.Ok, second.Status)
	assert.Greater(t, second.OpID, first.OpID)
}

func TestSQLiteStore_QueryPrefixAndNegation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for id, name := range map[string]string{"d:ann": "Annabel", "d:anna": "Anna", "d:bob": "Bob", "d:pct": "An%x"} {
		e := domain.NewEntity(id)
		e.Add(domain.PredicateType, domain.URI("v-s:Person"))
		e.Add("v-s:name", domain.String(name, ""))
		_, err := store.Update(ctx, domain.UpdateRequest{Entity: e, Op: domain.OpPut})
		require.NoError(t, err)
	}

	res, err := store.Query(ctx, domain.NewSearchRequest("", `'v-s:name' == 'Ann*'`))
	require.NoError(t, err)
	assert.Equal(t, []string{"d:ann", "d:anna"}, res.Result)

	res, err = store.Query(ctx, domain.NewSearchRequest("", `'*' == 'An%*'`))
	require.NoError(t, err)
	assert.Equal(t, []string{"d:pct"}, res.Result)

	res, err = store.Query(ctx, domain.NewSearchRequest("", `'rdf:type' == 'v-s:Person' && 'v-s:name' != 'Bob'`))
	require.NoError(t, err)
	assert.Equal(t, []string{"d:ann", "d:anna", "d:pct"}, res.Result)

	res, err = store.Query(ctx, domain.NewSearchRequest("", `'@' == 'd:bob'`))
	require.NoError(t, err)
	assert.Equal(t, []string{"d:bob"}, res.Result)
}

func TestSQLiteStore_Unprocessable(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutRaw(ctx, "d:bad", []byte("{broken")))

	_, err := ports.Fetch(ctx, store, "d:bad")
	assert.ErrorIs(t, err, domain.ErrUnprocessableEntity)
}
