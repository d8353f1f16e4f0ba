package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("doc-%d", i)
		_ = mgr.WithLock(ctx, key, func(ctx context.Context) error { return nil })
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after release", lockCount)
	}
}

func TestManager_WithLockSerializes(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "d:same", func(ctx context.Context) error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				time.Sleep(time.Millisecond) // Simulate IO

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestManager_StartSeedsVariables(t *testing.T) {
	mgr := NewManager(memory.NewStore(), WithSysTicket("sys"), WithSource("test"))

	s := mgr.Start("d:parent+s:script;tail")
	require.NotEmpty(t, s.ID)

	s.Vars.Do(func(v *Variables) {
		ticket, _ := v.Attr(KeyTicket)
		assert.Equal(t, "sys", ticket)
		doc, _ := v.Attr(KeyParentDocumentID)
		assert.Equal(t, "d:parent", doc)
		script, _ := v.Attr(KeyParentScriptID)
		assert.Equal(t, "s:script", script)
	})
	s.Tx.Do(func(tx *txn.Transaction) {
		assert.Equal(t, "sys", tx.SysTicket)
		assert.Equal(t, "d:parent+s:script;tail", tx.EventID)
		assert.Equal(t, "test", tx.Source)
	})

	other := mgr.Start("")
	assert.NotEqual(t, s.ID, other.ID)
}

func TestManager_Commit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := NewManager(store)
	s := mgr.Start("")

	e := domain.NewEntity("d:one")
	e.Add("v-s:n", domain.Integer(1))
	s.Tx.Do(func(tx *txn.Transaction) {
		require.Equal(t, domain.Ok, tx.Add(ctx, domain.OpPut, e, "t"))
	})

	assert.Equal(t, domain.Ok, mgr.Commit(ctx, s))
	_, err := store.Get(ctx, "d:one")
	assert.NoError(t, err)
}

func TestGuard_Exclusive(t *testing.T) {
	g := NewGuard(new(int))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(func(n *int) { *n++ })
		}()
	}
	wg.Wait()

	g.Do(func(n *int) { assert.Equal(t, 100, *n) })

	old := g.Replace(new(int))
	assert.Equal(t, 100, *old)
}

func TestGuard_ReleasedOnPanic(t *testing.T) {
	g := NewGuard(0)
	assert.Panics(t, func() {
		g.Do(func(int) { panic("boom") })
	})
	assert.NotPanics(t, func() { g.Do(func(int) {}) })
}

type countingLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_WithLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := NewManager(memory.NewStore(), WithLocker(locker, time.Second))

	err := mgr.WithLock(context.Background(), "d:doc", func(ctx context.Context) error {
		assert.Equal(t, []string{"d:doc"}, locker.locked)
		assert.Equal(t, 0, locker.released)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)
}
