package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/khata/internal/logging"
	"github.com/josh-kwaku/khata/internal/repository"
)

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Len(t, seen, 36)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(&buf, "khata-api", "debug", "production")

	h := Tracing(Logging(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var inner, done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inner))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "req-1", inner["request_id"])
	assert.Equal(t, "request completed", done["msg"])
	assert.EqualValues(t, http.StatusTeapot, done["status"])

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(
		logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))),
	))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

type memIdempotencyRepo struct {
	mu      sync.Mutex
	entries map[string]*repository.IdempotencyCacheEntry
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{entries: map[string]*repository.IdempotencyCacheEntry{}}
}

func (m *memIdempotencyRepo) Reserve(_ context.Context, key, hash string, expiresAt time.Time) (*repository.IdempotencyCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		held := *e
		return &held, nil
	}
	m.entries[key] = &repository.IdempotencyCacheEntry{Key: key, RequestHash: hash, ExpiresAt: expiresAt}
	return nil, nil
}

func (m *memIdempotencyRepo) Complete(_ context.Context, e *repository.IdempotencyCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.entries[e.Key]; ok && held.RequestHash == e.RequestHash && held.StatusCode == 0 {
		m.entries[e.Key] = e
	}
	return nil
}

func (m *memIdempotencyRepo) Release(_ context.Context, key, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.entries[key]; ok && held.RequestHash == hash && held.StatusCode == 0 {
		delete(m.entries, key)
	}
	return nil
}

func TestIdempotency_ConcurrentDuplicateRunsOnce(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls atomic.Int32
	entered := make(chan struct{})
	unblock := make(chan struct{})
	h := Idempotency(repo, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-unblock
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/friends/1/transactions", strings.NewReader(`{"amount":"5"}`))
		req.Header.Set("Idempotency-Key", "pay-once")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- post() }()
	<-entered

	dup := post()
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Contains(t, dup.Body.String(), "IDEMPOTENCY_IN_PROGRESS")

	close(unblock)
	first := <-firstDone
	assert.Equal(t, http.StatusCreated, first.Code)

	replay := post()
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.EqualValues(t, 1, calls.Load())
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	repo := newMemIdempotencyRepo()
	h := Idempotency(repo, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "k-panic")
	assert.Panics(t, func() { h.ServeHTTP(httptest.NewRecorder(), req) })
	assert.Empty(t, repo.entries)
}

func TestIdempotency(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	status := http.StatusCreated
	h := Idempotency(repo, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))

	post := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/friends", strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := post("k1", `{"name":"Asha"}`)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	replay := post("k1", `{"name":"Asha"}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls)

	conflict := post("k1", `{"name":"Bilal"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)

	post("", `{"name":"Asha"}`)
	post("", `{"name":"Asha"}`)
	assert.Equal(t, 3, calls, "requests without a key are never deduplicated")

	tooLong := post(strings.Repeat("k", 256), `{}`)
	assert.Equal(t, http.StatusBadRequest, tooLong.Code)

	status = http.StatusInternalServerError
	post("k2", `{}`)
	post("k2", `{}`)
	assert.Equal(t, 5, calls, "server errors are not cached")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	req.Header.Set("Idempotency-Key", "k1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 6, calls, "reads bypass the cache")
}
