package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
	"github.com/govinda610/chacha-website/internal/domain/checkout"
	"github.com/govinda610/chacha-website/internal/domain/order"
	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
	"github.com/govinda610/chacha-website/internal/remote"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type staticPrices struct {
	price int64
}

func (p staticPrices) ResolvePrice(context.Context, uint, *uint) (int64, error) {
	return p.price, nil
}

// backendCounters tracks the calls the fake backend receives
type backendCounters struct {
	cartMerges atomic.Int64
}

func backendMux(counters *backendCounters) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})
	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, _ *http.Request) {
		counters.cartMerges.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})
	mux.HandleFunc("POST /users/addresses", func(w http.ResponseWriter, r *http.Request) {
		var input checkout.AddressInput
		json.NewDecoder(r.Body).Decode(&input)
		json.NewEncoder(w).Encode(checkout.Address{
			ID:          1,
			FullAddress: input.FullAddress,
			City:        input.City,
			State:       input.State,
			Pincode:     input.Pincode,
		})
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var req order.CreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(order.Order{
			ID:            1,
			OrderNumber:   "DS-00000001",
			AddressID:     req.AddressID,
			Status:        order.StatusPending,
			PaymentStatus: order.PaymentStatusPending,
			PaymentMethod: req.PaymentMethod,
			Subtotal:      50000,
			TotalAmount:   50000,
		})
	})
	mux.HandleFunc("POST /payments/create-order", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(payment.Intent{
			OrderID:        1,
			GatewayOrderID: "order_gw_1",
			Amount:         50000,
			Currency:       "INR",
			KeyID:          "rzp_test_key",
		})
	})

	return mux
}

type managerHarness struct {
	manager  *Manager
	guest    *cart.MemoryGuestPersistence
	syncer   *cart.SyncEngine
	counters *backendCounters
}

func newManagerHarness(t *testing.T) *managerHarness {
	t.Helper()

	counters := &backendCounters{}
	server := httptest.NewServer(backendMux(counters))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{
			SessionTTL: time.Hour,
		},
		Remote: config.RemoteConfig{
			BaseURL:        server.URL,
			Timeout:        2 * time.Second,
			BreakerName:    "remote-api-test",
			BreakerMaxReqs: 3,
			BreakerTimeout: time.Second,
		},
		Gateway: config.GatewayConfig{
			CollectTimeout: time.Minute,
		},
	}

	log := testLogger()
	guest := cart.NewMemoryGuestPersistence()
	syncer := cart.NewSyncEngine(guest, log)
	manager := NewManager(cfg, remote.NewClient(cfg, log), guest, staticPrices{price: 25000}, syncer, log)
	t.Cleanup(manager.Close)

	return &managerHarness{manager: manager, guest: guest, syncer: syncer, counters: counters}
}

func TestAbandonAfterDismissalStartsFreshCheckout(t *testing.T) {
	h := newManagerHarness(t)
	ctx := context.Background()

	sess := h.manager.Resolve(ctx, "", nil, "")
	_, err := sess.Cart.AddItem(ctx, 1, 2, nil)
	require.NoError(t, err)

	co := h.manager.EnsureCheckout(sess)
	input := checkout.AddressInput{
		FullAddress: "14 MG Road",
		City:        "Bengaluru",
		State:       "Karnataka",
		Pincode:     "560001",
	}
	contact := &order.GuestContact{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"}
	require.NoError(t, co.SubmitInfo(ctx, input, contact))

	_, err = co.PlaceOrder(ctx, checkout.MethodRazorpay)
	require.NoError(t, err)
	require.NoError(t, co.HandleGatewayResult(ctx, payment.Result{Kind: payment.ResultDismissed}))
	require.Equal(t, checkout.StateCancelled, co.State())

	// The cancelled attempt stays live so a retry can still reach it.
	assert.Same(t, co, h.manager.EnsureCheckout(sess))
	err = co.SubmitInfo(ctx, input, contact)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	// Abandoning releases the session for a brand-new attempt.
	require.NoError(t, h.manager.AbandonCheckout(sess))

	fresh := h.manager.EnsureCheckout(sess)
	require.NotSame(t, co, fresh)
	assert.Equal(t, checkout.StateCollectingInfo, fresh.State())
	require.NoError(t, fresh.SubmitInfo(ctx, input, contact))
	assert.Equal(t, checkout.StateSelectingPayment, fresh.State())
}

func TestAbandonWithoutCheckoutIsNoOp(t *testing.T) {
	h := newManagerHarness(t)

	sess := h.manager.Resolve(context.Background(), "", nil, "")
	require.NoError(t, h.manager.AbandonCheckout(sess))
}

func TestResumeSyncOnReturnVisit(t *testing.T) {
	h := newManagerHarness(t)
	ctx := context.Background()
	userID := uint(7)

	sess := h.manager.Resolve(ctx, "", &userID, "tok")

	// A merge interrupted on an earlier visit leaves its remainder in guest
	// storage.
	require.NoError(t, h.guest.Save(ctx, sess.ID, []cart.Line{
		{ID: "g1", ProductID: 3, Quantity: 2, UnitPrice: 1500},
	}))

	require.Eventually(t, func() bool {
		h.manager.Resolve(ctx, sess.ID, &userID, "tok")
		pending, err := h.syncer.HasPending(ctx, sess.ID)
		return err == nil && !pending
	}, 3*time.Second, 50*time.Millisecond, "return visit must drain the leftover guest cart")

	assert.GreaterOrEqual(t, h.counters.cartMerges.Load(), int64(1))
}
