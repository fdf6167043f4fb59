// Package paystack holds the server-side half of the payment integration:
// the secret key never leaves this trust boundary, the browser only ever
// sees the public key and the reference.
package paystack

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
)

const (
	DefaultBaseURL = "https://api.paystack.co"

	// StatusSuccess is the provider's terminal success status for a
	// transaction; anything else is treated as a definitive failure.
	StatusSuccess = "success"
)

var (
	// ErrUnavailable: the provider could not be reached even after retries.
	// The caller must not mark the payment failed on this outcome.
	ErrUnavailable = errors.New("payment provider unavailable")

	// ErrDeclined: the provider answered and did not confirm the
	// transaction. Definitive, never retried.
	ErrDeclined = errors.New("payment verification declined")
)

// VerifyResult is the normalized provider verdict. Amount is in kobo, as
// reported by the provider; Raw is the full provider payload for audit
// storage and is never returned to clients.
type VerifyResult struct {
	Status   string
	Amount   int64
	Currency string
	Raw      json.RawMessage
}

type Verifier interface {
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	strategy  retry.Strategy
	log       *zerolog.Logger
}

func NewClient(baseURL, secretKey string, log *zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		strategy:  retry.Strategy{Attempts: 3, Delay: 500 * time.Millisecond, Backoff: 2},
		log:       log,
	}
}

type verifyEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Verify calls the provider's server-to-server verify endpoint. Transport
// failures and 5xx responses are retried with backoff; a decoded provider
// answer is final on the first read.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var (
		envelope verifyEnvelope
		raw      []byte
	)

	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, reference), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn().Err(err).Str("reference", reference).Msg("provider verify request failed")
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
		raw = body
		return nil
	}, c.strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, envelope.Message)
	}

	return &VerifyResult{
		Status:   envelope.Data.Status,
		Amount:   envelope.Data.Amount,
		Currency: envelope.Data.Currency,
		Raw:      raw,
	}, nil
}

// NewReference builds a payment attempt reference: a time component for
// ordering plus a random component against collisions within the same
// millisecond. Uniqueness is ultimately enforced by the payments table.
func NewReference() string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("STI_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(suffix[:]))
}

// ToKobo converts a whole-naira amount to the provider's minor unit.
func ToKobo(naira int64) int64 { return naira * 100 }

// FromKobo converts a provider-reported amount back to whole naira.
func FromKobo(kobo int64) int64 { return kobo / 100 }
