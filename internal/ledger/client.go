package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// Client talks to the external balance ledger. All mutation goes through
// signed delta requests; the ledger remains the single source of truth.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Policy  RetryPolicy
}

// NewClient creates a ledger client with the default retry policy.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   apiToken,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Policy:  DefaultRetryPolicy,
	}
}

// GetBalance fetches a member's current two-pool balance.
func (c *Client) GetBalance(ctx context.Context, memberID int64) (model.Balance, error) {
	var bal model.Balance
	body, err := c.do(ctx, http.MethodGet, c.balanceURL(memberID), nil)
	if err != nil {
		return bal, fmt.Errorf("get balance for %d: %w", memberID, err)
	}
	if err := json.Unmarshal(body, &bal); err != nil {
		return bal, fmt.Errorf("decode balance for %d: %w", memberID, err)
	}
	return bal, nil
}

// UpdateBalance applies a signed delta to a member's balance. Every call
// is logged with its reason so operators can audit mutations.
func (c *Client) UpdateBalance(ctx context.Context, memberID int64, delta model.BalanceDelta, reason string) error {
	payload := map[string]any{"reason": reason}
	if delta.Cash != 0 {
		payload["cash"] = delta.Cash
	}
	if delta.Bank != 0 {
		payload["bank"] = delta.Bank
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal delta: %w", err)
	}

	log.Printf("[INFO] ledger update: member=%d cash=%+d bank=%+d reason=%q",
		memberID, delta.Cash, delta.Bank, reason)

	if _, err := c.do(ctx, http.MethodPatch, c.balanceURL(memberID), body); err != nil {
		return fmt.Errorf("update balance for %d: %w", memberID, err)
	}
	return nil
}

// VerifyRoundTrip checks write access by applying -1 then +1 against
// whichever pool is currently positive, leaving the visible balance
// unchanged. Returns false if either leg fails.
func (c *Client) VerifyRoundTrip(ctx context.Context, memberID int64) bool {
	bal, err := c.GetBalance(ctx, memberID)
	if err != nil {
		log.Printf("[WARN] round-trip check: fetch failed for %d: %v", memberID, err)
		return false
	}
	var minus, plus model.BalanceDelta
	if bal.Cash > 0 {
		minus.Cash, plus.Cash = -1, 1
	} else {
		minus.Bank, plus.Bank = -1, 1
	}
	if err := c.UpdateBalance(ctx, memberID, minus, "Simulation check"); err != nil {
		log.Printf("[WARN] round-trip check: minus leg failed for %d: %v", memberID, err)
		return false
	}
	if err := c.UpdateBalance(ctx, memberID, plus, "Simulation check"); err != nil {
		log.Printf("[ERROR] round-trip check: plus leg failed for %d, balance off by 1: %v", memberID, err)
		return false
	}
	return true
}

func (c *Client) balanceURL(memberID int64) string {
	return fmt.Sprintf("%s/balance/%d", c.BaseURL, memberID)
}

// do issues one request with the bounded retry policy. Rate limits and
// server errors are retried honoring Retry-After; other non-2xx statuses
// surface immediately. GETs that exhaust retries return ErrUnavailable,
// mutations that are refused return ErrRejected.
func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.Policy.MaxAttempts; attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.Token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			if attempt+1 < c.Policy.MaxAttempts {
				if !c.sleep(ctx, c.Policy.Backoff(attempt, 0)) {
					return nil, ctx.Err()
				}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			return body, nil
		}

		if c.Policy.Retryable(resp.StatusCode) {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
			if attempt+1 < c.Policy.MaxAttempts {
				wait := c.Policy.Backoff(attempt, retryAfterHeader(resp))
				log.Printf("[WARN] ledger %s %s failed (attempt %d/%d): status %d, retrying in %v",
					method, url, attempt+1, c.Policy.MaxAttempts, resp.StatusCode, wait)
				if !c.sleep(ctx, wait) {
					return nil, ctx.Err()
				}
			}
			continue
		}

		if method == http.MethodGet {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(body))
	}
	return nil, fmt.Errorf("%w: %d attempts exhausted: %v", ErrUnavailable, c.Policy.MaxAttempts, lastErr)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
