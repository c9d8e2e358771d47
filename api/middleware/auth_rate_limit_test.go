package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestAuthRateLimitBlocksEmailAcrossIPs(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	body := `{"email":"Player@Example.com","password":"secret"}`

	first := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	first.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected first attempt allowed, got %d", resp.Code)
	}

	// different IP, same normalized email
	second := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"player@example.com","password":"other"}`))
	second.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", 0, 0, 0)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters, got %v", store.counts)
	}
}
