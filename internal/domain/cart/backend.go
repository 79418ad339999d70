// internal/domain/cart/backend.go
package cart

import (
	"context"
)

// Backend is the durable side of the cart. Exactly one backend is live per
// session: guest storage while anonymous, the remote cart service once
// authenticated. Every mutation returns the authoritative line list the
// store reconciles against.
type Backend interface {
	Load(ctx context.Context) ([]Line, error)
	// Add upserts a line, summing quantities when the (product, variant)
	// key already exists.
	Add(ctx context.Context, line Line) ([]Line, error)
	SetQuantity(ctx context.Context, key LineKey, quantity int) ([]Line, error)
	Remove(ctx context.Context, key LineKey) ([]Line, error)
	Clear(ctx context.Context) error
}

// GuestBackend adapts GuestPersistence to the Backend contract for one
// session. Writes are wholesale: the merged list is what gets persisted and
// is therefore authoritative by construction.
type GuestBackend struct {
	persistence GuestPersistence
	sessionID   string
}

// NewGuestBackend creates a backend over guest storage for a session
func NewGuestBackend(persistence GuestPersistence, sessionID string) *GuestBackend {
	return &GuestBackend{persistence: persistence, sessionID: sessionID}
}

func (b *GuestBackend) Load(ctx context.Context) ([]Line, error) {
	return b.persistence.Load(ctx, b.sessionID)
}

func (b *GuestBackend) Add(ctx context.Context, line Line) ([]Line, error) {
	lines, err := b.persistence.Load(ctx, b.sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].Key() == line.Key() {
			lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}

	if err := b.persistence.Save(ctx, b.sessionID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (b *GuestBackend) SetQuantity(ctx context.Context, key LineKey, quantity int) ([]Line, error) {
	lines, err := b.persistence.Load(ctx, b.sessionID)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity = quantity
			if err := b.persistence.Save(ctx, b.sessionID, lines); err != nil {
				return nil, err
			}
			return lines, nil
		}
	}

	// Unknown key is a stale reference; the stored state stands.
	return lines, nil
}

func (b *GuestBackend) Remove(ctx context.Context, key LineKey) ([]Line, error) {
	lines, err := b.persistence.Load(ctx, b.sessionID)
	if err != nil {
		return nil, err
	}

	remaining := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Key() != key {
			remaining = append(remaining, line)
		}
	}

	if err := b.persistence.Save(ctx, b.sessionID, remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

func (b *GuestBackend) Clear(ctx context.Context) error {
	return b.persistence.Clear(ctx, b.sessionID)
}
