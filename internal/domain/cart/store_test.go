package cart

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type fakeResolver struct {
	price int64
	calls int
	err   error
}

func (r *fakeResolver) ResolvePrice(_ context.Context, _ uint, _ *uint) (int64, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return r.price, nil
}

// failingBackend wraps a real backend and fails the next N mutations
type failingBackend struct {
	Backend
	failures int
}

func (b *failingBackend) Add(ctx context.Context, line Line) ([]Line, error) {
	if b.failures > 0 {
		b.failures--
		return nil, fmt.Errorf("backend unavailable")
	}
	return b.Backend.Add(ctx, line)
}

func (b *failingBackend) SetQuantity(ctx context.Context, key LineKey, quantity int) ([]Line, error) {
	if b.failures > 0 {
		b.failures--
		return nil, fmt.Errorf("backend unavailable")
	}
	return b.Backend.SetQuantity(ctx, key, quantity)
}

func (b *failingBackend) Clear(ctx context.Context) error {
	if b.failures > 0 {
		b.failures--
		return fmt.Errorf("backend unavailable")
	}
	return b.Backend.Clear(ctx)
}

func newGuestStore(t *testing.T, price int64) (*Store, *fakeResolver) {
	t.Helper()
	resolver := &fakeResolver{price: price}
	backend := NewGuestBackend(NewMemoryGuestPersistence(), "session-1")
	return NewStore(backend, resolver, testLogger()), resolver
}

func TestAddItemCreatesLineWithResolvedPrice(t *testing.T) {
	store, resolver := newGuestStore(t, 20000)

	snap, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, uint(1), snap.Lines[0].ProductID)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, int64(20000), snap.Lines[0].UnitPrice)
	assert.Equal(t, int64(40000), snap.Subtotal)
	assert.Equal(t, 1, resolver.calls)
}

func TestAddItemMergesOnKeyAndKeepsCapturedPrice(t *testing.T) {
	store, resolver := newGuestStore(t, 20000)

	_, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	// The catalog price moves; the existing line must not be repriced.
	resolver.price = 30000

	snap, err := store.AddItem(context.Background(), 1, 3, nil)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assert.Equal(t, int64(20000), snap.Lines[0].UnitPrice)
	assert.Equal(t, int64(100000), snap.Subtotal)
	assert.Equal(t, 1, resolver.calls, "price resolved only when the line was created")
}

func TestAddItemVariantsAreDistinctLines(t *testing.T) {
	store, _ := newGuestStore(t, 10000)

	variantA := uint(7)
	variantB := uint(8)

	_, err := store.AddItem(context.Background(), 1, 1, &variantA)
	require.NoError(t, err)
	snap, err := store.AddItem(context.Background(), 1, 1, &variantB)
	require.NoError(t, err)

	assert.Len(t, snap.Lines, 2)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	store, resolver := newGuestStore(t, 10000)

	_, err := store.AddItem(context.Background(), 1, 0, nil)
	require.Error(t, err)
	assert.Equal(t, 0, resolver.calls)
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestAddItemRollsBackOnBackendFailure(t *testing.T) {
	resolver := &fakeResolver{price: 10000}
	backend := &failingBackend{
		Backend:  NewGuestBackend(NewMemoryGuestPersistence(), "session-1"),
		failures: 1,
	}
	store := NewStore(backend, resolver, testLogger())

	_, err := store.AddItem(context.Background(), 1, 2, nil)
	require.Error(t, err)

	snap := store.Snapshot()
	assert.True(t, snap.IsEmpty(), "failed add must not leave an optimistic line behind")
	assert.Equal(t, int64(0), snap.Subtotal)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	store, _ := newGuestStore(t, 10000)

	snap, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)
	lineID := snap.Lines[0].ID

	snap, err = store.UpdateQuantity(context.Background(), lineID, 0)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestUpdateQuantityUnknownLineIsNoOp(t *testing.T) {
	store, _ := newGuestStore(t, 10000)

	_, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	snap, err := store.UpdateQuantity(context.Background(), "no-such-line", 5)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestUpdateQuantityRollsBackOnBackendFailure(t *testing.T) {
	resolver := &fakeResolver{price: 10000}
	inner := NewGuestBackend(NewMemoryGuestPersistence(), "session-1")
	backend := &failingBackend{Backend: inner}
	store := NewStore(backend, resolver, testLogger())

	snap, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)
	lineID := snap.Lines[0].ID

	backend.failures = 1
	_, err = store.UpdateQuantity(context.Background(), lineID, 9)
	require.Error(t, err)

	snap = store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity, "failed update restores the previous quantity")
}

func TestRemoveItemAbsentIDIsNoOp(t *testing.T) {
	store, _ := newGuestStore(t, 10000)

	snap, err := store.RemoveItem(context.Background(), "missing")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestClearEmptiesCartAndBackend(t *testing.T) {
	persistence := NewMemoryGuestPersistence()
	backend := NewGuestBackend(persistence, "session-1")
	store := NewStore(backend, &fakeResolver{price: 10000}, testLogger())

	_, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	require.NoError(t, store.Clear(context.Background()))
	assert.True(t, store.Snapshot().IsEmpty())

	stored, err := persistence.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClearRestoresOnBackendFailure(t *testing.T) {
	inner := NewGuestBackend(NewMemoryGuestPersistence(), "session-1")
	backend := &failingBackend{Backend: inner}
	store := NewStore(backend, &fakeResolver{price: 10000}, testLogger())

	_, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	backend.failures = 1
	require.Error(t, store.Clear(context.Background()))

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(20000), snap.Subtotal)
}

func TestRefreshLoadsBackendState(t *testing.T) {
	persistence := NewMemoryGuestPersistence()
	seed := []Line{{ID: "seed", ProductID: 3, Quantity: 4, UnitPrice: 2500}}
	require.NoError(t, persistence.Save(context.Background(), "session-1", seed))

	store := NewStore(NewGuestBackend(persistence, "session-1"), &fakeResolver{}, testLogger())

	snap, err := store.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(10000), snap.Subtotal)
}

func TestSubtotalAlwaysMatchesLines(t *testing.T) {
	store, _ := newGuestStore(t, 1500)

	var lastSnap Snapshot
	unsubscribe := store.Subscribe(func(snap Snapshot) {
		lastSnap = snap
		assert.Equal(t, subtotalOf(snap.Lines), snap.Subtotal)
	})
	defer unsubscribe()

	snap, err := store.AddItem(context.Background(), 1, 3, nil)
	require.NoError(t, err)
	_, err = store.AddItem(context.Background(), 2, 1, nil)
	require.NoError(t, err)
	_, err = store.RemoveItem(context.Background(), snap.Lines[0].ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), lastSnap.Subtotal)
	assert.Equal(t, store.Snapshot().Version, lastSnap.Version)
}

func TestVersionIncreasesWithEveryCommit(t *testing.T) {
	store, _ := newGuestStore(t, 1000)

	v0 := store.Snapshot().Version
	snap, err := store.AddItem(context.Background(), 1, 1, nil)
	require.NoError(t, err)
	assert.Greater(t, snap.Version, v0)

	v1 := snap.Version
	snap, err = store.UpdateQuantity(context.Background(), snap.Lines[0].ID, 4)
	require.NoError(t, err)
	assert.Greater(t, snap.Version, v1)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store, _ := newGuestStore(t, 1000)

	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })

	_, err := store.AddItem(context.Background(), 1, 1, nil)
	require.NoError(t, err)
	require.Greater(t, calls, 0)

	unsubscribe()
	before := calls
	_, err = store.AddItem(context.Background(), 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, before, calls)
}

func TestConcurrentAddRemoveNeverYieldsUnpricedLine(t *testing.T) {
	store, _ := newGuestStore(t, 7000)

	unsubscribe := store.Subscribe(func(snap Snapshot) {
		for _, line := range snap.Lines {
			assert.NotZero(t, line.UnitPrice, "committed line without a resolved price")
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				snap, err := store.AddItem(context.Background(), 1, 1, nil)
				assert.NoError(t, err)
				if len(snap.Lines) > 0 {
					_, err = store.RemoveItem(context.Background(), snap.Lines[0].ID)
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()

	for _, line := range store.Snapshot().Lines {
		assert.Equal(t, int64(7000), line.UnitPrice)
	}
}

// interleavingBackend starts a second mutation on another key while the
// first is still in flight, so the first reconciliation arrives after the
// cart has moved on.
type interleavingBackend struct {
	Backend
	store   *Store
	trigger uint
	fired   bool
}

func (b *interleavingBackend) Add(ctx context.Context, line Line) ([]Line, error) {
	authoritative, err := b.Backend.Add(ctx, line)
	if err != nil {
		return nil, err
	}
	if line.ProductID == b.trigger && !b.fired {
		b.fired = true
		if _, err := b.store.AddItem(ctx, 99, 1, nil); err != nil {
			return nil, err
		}
	}
	return authoritative, nil
}

func TestReconcileMergesOnlyItsOwnLineWhenCartMovedOn(t *testing.T) {
	resolver := &fakeResolver{price: 5000}
	inner := NewGuestBackend(NewMemoryGuestPersistence(), "session-1")
	backend := &interleavingBackend{Backend: inner, trigger: 1}
	store := NewStore(backend, resolver, testLogger())
	backend.store = store

	// Product 1's reconciliation resolves after product 99 was added, so it
	// must not wipe product 99 with its own authoritative list.
	snap, err := store.AddItem(context.Background(), 1, 2, nil)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	byProduct := map[uint]int{}
	for _, line := range snap.Lines {
		byProduct[line.ProductID] = line.Quantity
	}
	assert.Equal(t, 2, byProduct[1])
	assert.Equal(t, 1, byProduct[99])
}
