package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Remote.BaseURL = server.URL
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Remote.BreakerName = "remote-api-test"
	cfg.Remote.BreakerMaxReqs = 1
	cfg.Remote.BreakerTimeout = 100 * time.Millisecond

	return NewClient(cfg, testLogger()), server
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))

	err := client.do(context.Background(), http.MethodGet, "/cart", "tok123", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestDoClassifiesStatuses(t *testing.T) {
	tests := []struct {
		status int
		kind   apperrors.Kind
	}{
		{http.StatusUnauthorized, apperrors.KindAuthorization},
		{http.StatusForbidden, apperrors.KindAuthorization},
		{http.StatusNotFound, apperrors.KindNotFound},
		{http.StatusConflict, apperrors.KindConflict},
		{http.StatusUnprocessableEntity, apperrors.KindValidation},
		{http.StatusBadRequest, apperrors.KindValidation},
		{http.StatusInternalServerError, apperrors.KindTransient},
		{http.StatusBadGateway, apperrors.KindTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			err := client.do(context.Background(), http.MethodGet, "/cart", "", nil, nil)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.kind), "status %d should map to %s", tt.status, tt.kind)
		})
	}
}

func TestDoUsesServerDetailMessage(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"quantity exceeds stock"}`))
	}))

	err := client.do(context.Background(), http.MethodPost, "/cart/items", "", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity exceeds stock")
}

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	calls := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 5; i++ {
		err := client.do(context.Background(), http.MethodGet, "/cart", "", nil, nil)
		require.Error(t, err)
	}
	require.Equal(t, 5, calls)

	// The breaker is open now; the request never reaches the server.
	err := client.do(context.Background(), http.MethodGet, "/cart", "", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindTransient))
	assert.Equal(t, 5, calls)
}

func TestBreakerIgnoresClientSideRejections(t *testing.T) {
	calls := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))

	// Validation rejections say nothing about backend health.
	for i := 0; i < 10; i++ {
		err := client.do(context.Background(), http.MethodGet, "/cart", "", nil, nil)
		require.Error(t, err)
	}
	assert.Equal(t, 10, calls, "breaker must stay closed on 4xx responses")
}

func TestAccountCartBackendRoundTrip(t *testing.T) {
	variantID := uint(3)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":7,"product_id":1,"product_variant_id":3,"quantity":2,"unit_price":25000}]}`))
	})

	client, _ := testClient(t, mux)
	backend := NewAccountCartBackend(client, "tok")

	lines, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, uint(1), lines[0].ProductID)
	require.NotNil(t, lines[0].VariantID)
	assert.Equal(t, variantID, *lines[0].VariantID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(25000), lines[0].UnitPrice)
	assert.Equal(t, cart.LineKey{ProductID: 1, VariantID: 3}, lines[0].Key())
}

func TestPaymentClientVerifyRejectionIsVerificationFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments/verify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"invalid signature"}`))
	})

	client, _ := testClient(t, mux)
	payments := NewPaymentClient(client, "tok")

	err := payments.Verify(context.Background(), payment.VerifyRequest{
		GatewayOrderID: "order_abc",
		PaymentID:      "pay_1",
		Signature:      "bad",
		OrderID:        42,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindVerificationFailed))
}

func TestPaymentClientVerifyNonSuccessStatusFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments/verify", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	})

	client, _ := testClient(t, mux)
	payments := NewPaymentClient(client, "tok")

	err := payments.Verify(context.Background(), payment.VerifyRequest{OrderID: 42})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindVerificationFailed))
}
