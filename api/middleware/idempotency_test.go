package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"select items", http.MethodPost, "/api/v1/bookings/select-items", defaultIdempotencyTTL, true},
		{"cancel", http.MethodPost, "/api/v1/bookings/cancel", defaultIdempotencyTTL, true},
		{"staff complete", http.MethodPost, "/api/v1/staff/complete", defaultIdempotencyTTL, true},
		{"list bookings", http.MethodGet, "/api/v1/bookings", 0, false},
		{"webhooks excluded", http.MethodPost, "/api/v1/webhooks/payments", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/bookings/cancel", "/api/v1/bookings/cancel", strings.NewReader(`{"booking_id":"b"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	makeReq := func() *http.Request {
		req := requestWithPattern(http.MethodPost, "/api/v1/bookings/cancel", "/api/v1/bookings/cancel", strings.NewReader(`{"booking_id":"b"}`))
		req.Header.Set("Idempotency-Key", "abc")
		return req
	}

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, makeReq())
	if first.Code != http.StatusAccepted {
		t.Fatalf("expected first response 202 got %d", first.Code)
	}

	second := httptest.NewRecorder()
	mw(handler).ServeHTTP(second, makeReq())
	if second.Code != http.StatusAccepted {
		t.Fatalf("expected replayed response 202 got %d", second.Code)
	}
	if second.Body.String() != `{"ok":true}` {
		t.Fatalf("expected replayed body, got %s", second.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected replayed content type, got %q", ct)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d", calls)
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := requestWithPattern(http.MethodPost, "/api/v1/bookings/cancel", "/api/v1/bookings/cancel", strings.NewReader(`{"booking_id":"a"}`))
	first.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/v1/bookings/cancel", "/api/v1/bookings/cancel", strings.NewReader(`{"booking_id":"b"}`))
	second.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareScopesKeysByCustomer(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	makeReq := func(customerID string) *http.Request {
		req := requestWithPattern(http.MethodPost, "/api/v1/bookings/cancel", "/api/v1/bookings/cancel", strings.NewReader(`{"booking_id":"b"}`))
		req.Header.Set("Idempotency-Key", "abc")
		return req.WithContext(WithCustomerID(req.Context(), customerID))
	}

	mw(handler).ServeHTTP(httptest.NewRecorder(), makeReq("customer-a"))
	mw(handler).ServeHTTP(httptest.NewRecorder(), makeReq("customer-b"))

	if calls != 2 {
		t.Fatalf("same key for different customers must not collide, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddlewareIgnoresUnprotectedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodGet, "/api/v1/bookings", "/api/v1/bookings", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || calls != 1 {
		t.Fatalf("unprotected route should pass through, code=%d calls=%d", resp.Code, calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be cached for unprotected routes")
	}
}
