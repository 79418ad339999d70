// internal/domain/cart/store.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// PriceResolver resolves the current unit price of a product from the
// catalog collaborator. Prices are captured once, when a line is created.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, productID uint, variantID *uint) (int64, error)
}

// Store is the single authoritative in-memory view of the session's cart.
// Mutations apply optimistically and then reconcile against the backend's
// authoritative response. Each mutation carries a sequence number; a
// response is applied only if no newer mutation has superseded it, so a slow
// add resolving after a remove can never resurrect the removed line.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	version  uint64
	seq      uint64
	lineSeq  map[LineKey]uint64
	keyLocks map[LineKey]*sync.Mutex

	backend Backend
	prices  PriceResolver
	log     *logrus.Entry

	subMu   sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

// NewStore creates a cart store over the given backend
func NewStore(backend Backend, prices PriceResolver, log *logrus.Entry) *Store {
	return &Store{
		lines:    []Line{},
		lineSeq:  make(map[LineKey]uint64),
		keyLocks: make(map[LineKey]*sync.Mutex),
		backend:  backend,
		prices:   prices,
		log:      log,
		subs:     make(map[uint64]func(Snapshot)),
	}
}

// Snapshot returns a read-only copy of the current cart state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:    copyLines(s.lines),
		Subtotal: subtotalOf(s.lines),
		Version:  s.version,
	}
}

// Subscribe registers a callback invoked after every committed change. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Refresh replaces the local state with the backend's current cart, unless a
// local mutation has been submitted in the meantime.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	submitted := s.seq
	s.mu.Unlock()

	lines, err := s.backend.Load(ctx)
	if err != nil {
		return s.Snapshot(), apperrors.Wrap(apperrors.KindOf(err), "failed to refresh cart", err)
	}

	s.mu.Lock()
	if s.seq != submitted {
		// A mutation raced the refresh; its reconciliation owns the state.
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.lines = copyLines(lines)
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// AddItem adds quantity of a product to the cart, merging with an existing
// line on the (product, variant) key. The unit price for a new line is
// resolved from the catalog at call time.
func (s *Store) AddItem(ctx context.Context, productID uint, quantity int, variantID *uint) (Snapshot, error) {
	if quantity <= 0 {
		return s.Snapshot(), apperrors.New(apperrors.KindValidation, "quantity must be positive")
	}

	key := lineKeyOf(productID, variantID)

	// The existence check and the optimistic apply share one critical
	// section. A line removed while the price resolves is re-checked on the
	// next pass, so an appended line always carries a resolved price.
	var unitPrice int64
	priceResolved := false
	s.mu.Lock()
	for {
		if _, exists := s.findByKeyLocked(key); exists || priceResolved {
			break
		}
		s.mu.Unlock()
		price, err := s.prices.ResolvePrice(ctx, productID, variantID)
		if err != nil {
			return s.Snapshot(), apperrors.Wrap(apperrors.KindOf(err), "failed to resolve product price", err)
		}
		unitPrice = price
		priceResolved = true
		s.mu.Lock()
	}

	delta := Line{
		ID:        uuid.NewString(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   time.Now().UTC(),
	}

	prev, existed := s.findByKeyLocked(key)
	if existed {
		// Keep the captured price; only the quantity moves.
		delta.UnitPrice = prev.UnitPrice
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines[i].Quantity += quantity
				break
			}
		}
	} else {
		s.lines = append(s.lines, delta)
	}
	seq := s.submitLocked(key)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	lock := s.keyLock(key)
	lock.Lock()
	authoritative, err := s.backend.Add(ctx, delta)
	lock.Unlock()

	if err != nil {
		s.rollback(seq, key, prev, existed)
		return s.Snapshot(), apperrors.Wrap(apperrors.KindOf(err), "failed to add item to cart", err)
	}

	s.reconcile(seq, key, authoritative)
	return s.Snapshot(), nil
}

// UpdateQuantity sets the quantity of a line. A non-positive quantity is a
// removal. An unknown line id is a stale reference and leaves the cart
// untouched.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) (Snapshot, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID)
	}

	s.mu.Lock()
	prev, found := s.findByIDLocked(lineID)
	if !found {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	key := prev.Key()
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].Quantity = quantity
			break
		}
	}
	seq := s.submitLocked(key)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	lock := s.keyLock(key)
	lock.Lock()
	authoritative, err := s.backend.SetQuantity(ctx, key, quantity)
	lock.Unlock()

	if err != nil {
		s.rollback(seq, key, prev, true)
		return s.Snapshot(), apperrors.Wrap(apperrors.KindOf(err), "failed to update cart item", err)
	}

	s.reconcile(seq, key, authoritative)
	return s.Snapshot(), nil
}

// RemoveItem deletes a line. An absent line id is a no-op, not an error.
func (s *Store) RemoveItem(ctx context.Context, lineID string) (Snapshot, error) {
	s.mu.Lock()
	prev, found := s.findByIDLocked(lineID)
	if !found {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	key := prev.Key()
	remaining := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		if line.ID != lineID {
			remaining = append(remaining, line)
		}
	}
	s.lines = remaining
	seq := s.submitLocked(key)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	lock := s.keyLock(key)
	lock.Lock()
	authoritative, err := s.backend.Remove(ctx, key)
	lock.Unlock()

	if err != nil {
		s.rollback(seq, key, prev, true)
		return s.Snapshot(), apperrors.Wrap(apperrors.KindOf(err), "failed to remove cart item", err)
	}

	s.reconcile(seq, key, authoritative)
	return s.Snapshot(), nil
}

// Clear empties the cart; used after successful order submission
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	prev := s.lines
	s.lines = []Line{}
	s.seq++
	seq := s.seq
	s.lineSeq = make(map[LineKey]uint64)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.backend.Clear(ctx); err != nil {
		s.mu.Lock()
		if s.seq == seq {
			s.lines = prev
			s.version++
			snap = s.snapshotLocked()
			s.mu.Unlock()
			s.notify(snap)
		} else {
			s.mu.Unlock()
		}
		return apperrors.Wrap(apperrors.KindOf(err), "failed to clear cart", err)
	}

	return nil
}

// submitLocked records a new mutation on key and returns its sequence number
func (s *Store) submitLocked(key LineKey) uint64 {
	s.seq++
	s.lineSeq[key] = s.seq
	s.version++
	return s.seq
}

// reconcile folds the backend's authoritative response into local state.
// A response superseded by a newer mutation on the same key is discarded; a
// response arriving while other keys moved on is applied to its line only.
func (s *Store) reconcile(submitted uint64, key LineKey, authoritative []Line) {
	s.mu.Lock()

	if s.seq == submitted {
		// Nothing newer anywhere; the authoritative cart replaces the guess.
		s.lines = copyLines(authoritative)
		s.version++
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	if s.lineSeq[key] != submitted {
		// Superseded on this key; drop the stale response.
		s.mu.Unlock()
		s.log.WithField("line_key", key).Debug("discarding stale cart reconciliation")
		return
	}

	// Other lines mutated since; merge only the affected key, and only if
	// the line still exists locally.
	var remote *Line
	for i := range authoritative {
		if authoritative[i].Key() == key {
			remote = &authoritative[i]
			break
		}
	}

	changed := false
	if remote == nil {
		remaining := make([]Line, 0, len(s.lines))
		for _, line := range s.lines {
			if line.Key() != key {
				remaining = append(remaining, line)
			} else {
				changed = true
			}
		}
		s.lines = remaining
	} else {
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines[i].Quantity = remote.Quantity
				s.lines[i].UnitPrice = remote.UnitPrice
				changed = true
				break
			}
		}
	}

	if !changed {
		s.mu.Unlock()
		return
	}

	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// rollback restores the pre-call state of a line after a failed mutation,
// unless a newer mutation on the key has taken over.
func (s *Store) rollback(submitted uint64, key LineKey, prev Line, existed bool) {
	s.mu.Lock()
	if s.lineSeq[key] != submitted {
		s.mu.Unlock()
		return
	}

	remaining := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		if line.Key() != key {
			remaining = append(remaining, line)
		}
	}
	if existed {
		remaining = append(remaining, prev)
	}
	s.lines = remaining
	delete(s.lineSeq, key)
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) findByKeyLocked(key LineKey) (Line, bool) {
	for _, line := range s.lines {
		if line.Key() == key {
			return line, true
		}
	}
	return Line{}, false
}

func (s *Store) findByIDLocked(lineID string) (Line, bool) {
	for _, line := range s.lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return Line{}, false
}

func (s *Store) keyLock(key LineKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[key] = lock
	}
	return lock
}

func lineKeyOf(productID uint, variantID *uint) LineKey {
	key := LineKey{ProductID: productID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	return key
}
