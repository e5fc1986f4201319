package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

func fastClient(url string) *Client {
	c := NewClient(url, "test-token")
	c.Policy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return c
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/balance/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-token" {
			t.Errorf("missing auth header")
		}
		json.NewEncoder(w).Encode(model.Balance{Cash: 300, Bank: 200})
	}))
	defer srv.Close()

	bal, err := fastClient(srv.URL).GetBalance(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.Cash != 300 || bal.Bank != 200 {
		t.Errorf("unexpected balance: %+v", bal)
	}
}

func TestGetBalance_RetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(model.Balance{Cash: 100})
	}))
	defer srv.Close()

	bal, err := fastClient(srv.URL).GetBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if bal.Cash != 100 {
		t.Errorf("unexpected balance: %+v", bal)
	}
}

func TestGetBalance_UnavailableAfterRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).GetBalance(context.Background(), 1)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestUpdateBalance_SendsDeltaAndReason(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := fastClient(srv.URL).UpdateBalance(context.Background(), 7,
		model.BalanceDelta{Cash: -300, Bank: -200}, "Housing Rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["cash"] != float64(-300) || got["bank"] != float64(-200) {
		t.Errorf("unexpected deltas: %v", got)
	}
	if got["reason"] != "Housing Rent" {
		t.Errorf("unexpected reason: %v", got["reason"])
	}
}

func TestUpdateBalance_RejectedNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := fastClient(srv.URL).UpdateBalance(context.Background(), 7,
		model.BalanceDelta{Cash: -1}, "test")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("rejection should not be retried, got %d attempts", attempts)
	}
}

func TestVerifyRoundTrip_NetsToZero(t *testing.T) {
	var deltas []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(model.Balance{Cash: 500, Bank: 100})
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if v, ok := body["cash"].(float64); ok {
			deltas = append(deltas, int(v))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !fastClient(srv.URL).VerifyRoundTrip(context.Background(), 9) {
		t.Fatal("expected round trip to succeed")
	}
	if len(deltas) != 2 || deltas[0]+deltas[1] != 0 || deltas[0] != -1 {
		t.Errorf("expected -1/+1 cash legs, got %v", deltas)
	}
}

func TestVerifyRoundTrip_UsesBankWhenCashEmpty(t *testing.T) {
	var bankLegs int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(model.Balance{Cash: 0, Bank: 800})
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["bank"]; ok {
			bankLegs++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !fastClient(srv.URL).VerifyRoundTrip(context.Background(), 9) {
		t.Fatal("expected round trip to succeed")
	}
	if bankLegs != 2 {
		t.Errorf("expected both legs against bank, got %d", bankLegs)
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy
	if p.Backoff(0, 0) != time.Second || p.Backoff(1, 0) != 2*time.Second || p.Backoff(2, 0) != 4*time.Second {
		t.Error("exponential schedule should be 1s/2s/4s")
	}
	if p.Backoff(0, 5*time.Second) != 5*time.Second {
		t.Error("Retry-After should override the schedule")
	}
}
