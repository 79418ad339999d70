// internal/domain/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
	"github.com/govinda610/chacha-website/internal/domain/checkout"
	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/remote"
)

// Session is the per-browser unit of state: one cart store and at most one
// live checkout attempt. Exactly one cart backing is authoritative at a
// time: guest storage while anonymous, the remote cart once authenticated.
type Session struct {
	ID     string
	UserID *uint
	Token  string

	Cart     *cart.Store
	Checkout *checkout.Orchestrator

	lastSeen   time.Time
	syncActive bool
	syncCheck  bool
}

// IsAuthenticated reports whether the session carries an identity
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil
}

// Manager owns all live sessions. It detects authentication-state
// transitions on resolve and launches the guest-to-account cart merge in the
// background so the user is never blocked from browsing.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg     *config.Config
	client  *remote.Client
	guest   cart.GuestPersistence
	catalog cart.PriceResolver
	syncer  *cart.SyncEngine
	log     *logrus.Entry

	stop chan struct{}
	once sync.Once
}

// NewManager creates a session manager and starts its idle-eviction loop
func NewManager(cfg *config.Config, client *remote.Client, guest cart.GuestPersistence, catalog cart.PriceResolver, syncer *cart.SyncEngine, log *logrus.Entry) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		client:   client,
		guest:    guest,
		catalog:  catalog,
		syncer:   syncer,
		log:      log,
		stop:     make(chan struct{}),
	}

	go m.janitor()
	return m
}

// Close stops the eviction loop
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
}

// Resolve returns the session for sessionID, creating one when the id is
// empty or unknown. userID/token reflect the request's authentication state;
// a transition from anonymous to authenticated triggers the cart merge.
func (m *Manager) Resolve(ctx context.Context, sessionID string, userID *uint, token string) *Session {
	m.mu.Lock()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess, ok := m.sessions[sessionID]
	if !ok {
		sess = &Session{ID: sessionID}
		sess.Cart = cart.NewStore(
			cart.NewGuestBackend(m.guest, sessionID),
			m.catalog,
			m.log.WithField("session_id", sessionID),
		)
		m.sessions[sessionID] = sess

		// Pick up a guest cart persisted by an earlier visit.
		go func() {
			if _, err := sess.Cart.Refresh(context.Background()); err != nil {
				m.log.WithError(err).Debug("initial guest cart load failed")
			}
		}()
	}
	sess.lastSeen = time.Now().UTC()

	becameAuthenticated := userID != nil && (sess.UserID == nil || *sess.UserID != *userID)
	loggedOut := userID == nil && sess.UserID != nil

	sess.UserID = userID
	sess.Token = token

	switch {
	case becameAuthenticated:
		backend := remote.NewAccountCartBackend(m.client, token)
		sess.Cart = cart.NewStore(backend, m.catalog, m.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"user_id":    *userID,
		}))
		sess.Checkout = nil
		m.startSyncLocked(sess, backend)

	case loggedOut:
		sess.Cart = cart.NewStore(
			cart.NewGuestBackend(m.guest, sessionID),
			m.catalog,
			m.log.WithField("session_id", sessionID),
		)
		sess.Checkout = nil

	case sess.IsAuthenticated():
		// A merge interrupted on a previous visit resumes on app entry.
		// The pending check needs a Redis read, so it runs off the lock.
		if !sess.syncActive && !sess.syncCheck {
			sess.syncCheck = true
			go m.resumeSync(sess)
		}
	}

	m.mu.Unlock()
	return sess
}

// EnsureCheckout returns the session's live checkout attempt, starting a new
// one when none exists or the previous attempt already completed.
func (m *Manager) EnsureCheckout(sess *Session) *checkout.Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess.Checkout != nil && sess.Checkout.State() != checkout.StateCompleted {
		return sess.Checkout
	}

	log := m.log.WithField("session_id", sess.ID)
	bridge := payment.NewBridge(
		remote.NewPaymentClient(m.client, sess.Token),
		payment.NoopOpener{}, // the gateway UI posts its result through the HTTP surface
		m.cfg.Gateway.CollectTimeout,
		log,
	)

	sess.Checkout = checkout.NewOrchestrator(
		sess.Cart,
		remote.NewAddressClient(m.client, sess.Token),
		remote.NewOrderClient(m.client, sess.Token),
		bridge,
		sess.IsAuthenticated(),
		m.cfg.Gateway.CollectTimeout,
		log,
	)
	return sess.Checkout
}

// AbandonCheckout drops the session's checkout attempt so the next
// EnsureCheckout starts fresh. Abandoning with no attempt is a no-op.
func (m *Manager) AbandonCheckout(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess.Checkout == nil {
		return nil
	}
	if err := sess.Checkout.Abandon(); err != nil {
		return err
	}
	sess.Checkout = nil
	return nil
}

// startSyncLocked merges the guest cart into the account cart in the
// background, then refreshes the store from the now-authoritative remote
// cart. Failures leave the remainder in guest storage for a later retry.
func (m *Manager) startSyncLocked(sess *Session, account cart.Merger) {
	if sess.syncActive {
		return
	}
	sess.syncActive = true

	store := sess.Cart
	sessionID := sess.ID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Remote.Timeout*4)
		defer cancel()

		if err := m.syncer.Sync(ctx, sessionID, account); err != nil {
			m.log.WithError(err).WithField("session_id", sessionID).
				Warn("guest cart merge incomplete, will retry on next entry")
		}

		if _, err := store.Refresh(context.Background()); err != nil {
			m.log.WithError(err).WithField("session_id", sessionID).
				Warn("failed to refresh cart after merge")
		}

		m.mu.Lock()
		sess.syncActive = false
		m.mu.Unlock()
	}()
}

// resumeSync resumes an interrupted merge for an already-authenticated
// session. The pending lookup hits Redis, so it must not hold m.mu.
func (m *Manager) resumeSync(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Remote.Timeout)
	defer cancel()

	pending, err := m.syncer.HasPending(ctx, sess.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	sess.syncCheck = false
	if err != nil || !pending || sess.syncActive || !sess.IsAuthenticated() {
		return
	}

	m.startSyncLocked(sess, remote.NewAccountCartBackend(m.client, sess.Token))
}

// janitor evicts sessions idle past the configured TTL
func (m *Manager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-m.cfg.Server.SessionTTL)
			m.mu.Lock()
			for id, sess := range m.sessions {
				if sess.lastSeen.Before(cutoff) {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
