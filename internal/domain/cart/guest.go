// internal/domain/cart/guest.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/govinda610/chacha-website/internal/config"
)

// GuestPersistence stores the anonymous cart as an ordered list of lines
// under a single well-known key per session. The whole list is overwritten
// on every guest mutation. While a session is unauthenticated this storage
// is the only authoritative copy; after a successful merge into the account
// cart it must read back empty.
type GuestPersistence interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	// RemoveLine deletes a single line by key. The sync engine clears each
	// guest line individually as its merge is confirmed, so a partial merge
	// never double-counts on retry.
	RemoveLine(ctx context.Context, sessionID string, key LineKey) error
	Clear(ctx context.Context, sessionID string) error
}

// RedisGuestPersistence keeps guest carts in Redis with a bounded TTL
type RedisGuestPersistence struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisGuestPersistence creates Redis-backed guest cart storage
func NewRedisGuestPersistence(client *redis.Client, cfg *config.Config) *RedisGuestPersistence {
	return &RedisGuestPersistence{
		client:    client,
		keyPrefix: cfg.GuestCart.KeyPrefix,
		ttl:       cfg.GuestCart.TTL,
	}
}

func (p *RedisGuestPersistence) key(sessionID string) string {
	return p.keyPrefix + sessionID
}

// Load reads the guest cart; a missing key is an empty cart, not an error
func (p *RedisGuestPersistence) Load(ctx context.Context, sessionID string) ([]Line, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for guest cart")
	}

	data, err := p.client.Get(ctx, p.key(sessionID)).Result()
	if err == redis.Nil {
		return []Line{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}

	return lines, nil
}

// Save overwrites the guest cart wholesale
func (p *RedisGuestPersistence) Save(ctx context.Context, sessionID string, lines []Line) error {
	if sessionID == "" {
		return fmt.Errorf("session ID required for guest cart")
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	return p.client.Set(ctx, p.key(sessionID), data, p.ttl).Err()
}

// RemoveLine deletes one line by merge key
func (p *RedisGuestPersistence) RemoveLine(ctx context.Context, sessionID string, key LineKey) error {
	lines, err := p.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	remaining := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Key() != key {
			remaining = append(remaining, line)
		}
	}

	if len(remaining) == 0 {
		return p.Clear(ctx, sessionID)
	}
	return p.Save(ctx, sessionID, remaining)
}

// Clear removes the guest cart key entirely
func (p *RedisGuestPersistence) Clear(ctx context.Context, sessionID string) error {
	return p.client.Del(ctx, p.key(sessionID)).Err()
}

// MemoryGuestPersistence is an in-process implementation used in tests
type MemoryGuestPersistence struct {
	mu    sync.Mutex
	carts map[string][]Line

	// FailSaves makes the next N Save/RemoveLine calls fail, to simulate a
	// merge interrupted partway through.
	FailSaves int
}

// NewMemoryGuestPersistence creates empty in-memory guest storage
func NewMemoryGuestPersistence() *MemoryGuestPersistence {
	return &MemoryGuestPersistence{carts: make(map[string][]Line)}
}

func (p *MemoryGuestPersistence) Load(_ context.Context, sessionID string) ([]Line, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyLines(p.carts[sessionID]), nil
}

func (p *MemoryGuestPersistence) Save(_ context.Context, sessionID string, lines []Line) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSaves > 0 {
		p.FailSaves--
		return fmt.Errorf("guest storage unavailable")
	}
	p.carts[sessionID] = copyLines(lines)
	return nil
}

func (p *MemoryGuestPersistence) RemoveLine(_ context.Context, sessionID string, key LineKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSaves > 0 {
		p.FailSaves--
		return fmt.Errorf("guest storage unavailable")
	}
	remaining := make([]Line, 0, len(p.carts[sessionID]))
	for _, line := range p.carts[sessionID] {
		if line.Key() != key {
			remaining = append(remaining, line)
		}
	}
	p.carts[sessionID] = remaining
	return nil
}

func (p *MemoryGuestPersistence) Clear(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.carts, sessionID)
	return nil
}
