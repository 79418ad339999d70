// internal/remote/client.go
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// Client is the shared HTTP transport for the remote cart, address, order,
// catalog and payment services. A circuit breaker wraps every call so a
// struggling backend sheds load instead of queueing the whole session tier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        *logrus.Entry
}

// NewClient creates the shared remote API client
func NewClient(cfg *config.Config, log *logrus.Entry) *Client {
	settings := gobreaker.Settings{
		Name:        cfg.Remote.BreakerName,
		MaxRequests: cfg.Remote.BreakerMaxReqs,
		Timeout:     cfg.Remote.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client-side classifications are not backend health signals.
			if err == nil {
				return true
			}
			switch apperrors.KindOf(err) {
			case apperrors.KindTransient:
				return false
			default:
				return true
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("remote API circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:    cfg.Remote.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Remote.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		log:        log,
	}
}

// do performs an API call and decodes the JSON response into out (when
// non-nil). The bearer token is attached when set.
func (c *Client) do(ctx context.Context, method, endpoint, token string, payload, out interface{}) error {
	var reqBody []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		reqBody = data
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransient, "remote API call failed", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransient, "failed to read remote response", err)
		}

		if resp.StatusCode >= 400 {
			return nil, classifyStatus(resp.StatusCode, method, endpoint, body)
		}

		return body, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return apperrors.Wrap(apperrors.KindTransient, "remote API unavailable", err)
		}
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse remote response: %w", err)
		}
	}

	return nil
}

// classifyStatus maps remote HTTP statuses onto the error taxonomy
func classifyStatus(status int, method, endpoint string, body []byte) error {
	message := fmt.Sprintf("%s %s returned status %d", method, endpoint, status)

	var detail struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Detail != "" {
			message = detail.Detail
		} else if detail.Error != "" {
			message = detail.Error
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.New(apperrors.KindAuthorization, message)
	case status == http.StatusNotFound:
		return apperrors.New(apperrors.KindNotFound, message)
	case status == http.StatusConflict:
		return apperrors.New(apperrors.KindConflict, message)
	case status >= 400 && status < 500:
		return apperrors.New(apperrors.KindValidation, message)
	default:
		return apperrors.New(apperrors.KindTransient, message)
	}
}
