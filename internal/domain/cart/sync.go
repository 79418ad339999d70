// internal/domain/cart/sync.go
package cart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Merger is the account cart's merge surface. Merging a line whose
// (product, variant) key already exists must sum quantities, never
// overwrite, so the operation is commutative across devices.
type Merger interface {
	MergeLine(ctx context.Context, line Line) error
}

// SyncEngine reconciles a previously-anonymous cart with the authoritative
// account cart when a session becomes authenticated. Each guest line is
// cleared individually only after its merge is confirmed; a failure partway
// through leaves the unsynced remainder in guest storage, and re-running the
// sync cannot double-count lines already applied.
type SyncEngine struct {
	guest GuestPersistence
	log   *logrus.Entry
}

// NewSyncEngine creates a sync engine over guest storage
func NewSyncEngine(guest GuestPersistence, log *logrus.Entry) *SyncEngine {
	return &SyncEngine{guest: guest, log: log}
}

// Sync drains the guest cart for sessionID into the account cart. It is
// idempotent: a retry after partial failure resumes with the remaining
// lines. An empty guest cart is a no-op.
func (e *SyncEngine) Sync(ctx context.Context, sessionID string, account Merger) error {
	lines, err := e.guest.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read guest cart: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	e.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"lines":      len(lines),
	}).Info("merging guest cart into account cart")

	for _, line := range lines {
		if err := account.MergeLine(ctx, line); err != nil {
			return fmt.Errorf("failed to merge guest line (product %d): %w", line.ProductID, err)
		}

		// Clear this line alone. Clearing in bulk would let a retry after a
		// later failure re-apply lines that already reached the account.
		if err := e.guest.RemoveLine(ctx, sessionID, line.Key()); err != nil {
			return fmt.Errorf("failed to clear merged guest line (product %d): %w", line.ProductID, err)
		}
	}

	e.log.WithField("session_id", sessionID).Info("guest cart merge completed")
	return nil
}

// HasPending reports whether unsynced guest lines remain for the session
func (e *SyncEngine) HasPending(ctx context.Context, sessionID string) (bool, error) {
	lines, err := e.guest.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}
