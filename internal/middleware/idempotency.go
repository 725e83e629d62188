package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/khata/internal/handler"
	"github.com/josh-kwaku/khata/internal/logging"
	"github.com/josh-kwaku/khata/internal/repository"
)

// IdempotencyStore persists replayable responses keyed by Idempotency-Key.
// A key is reserved before the request runs, then completed with the
// response or released.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) (*repository.IdempotencyCacheEntry, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key, requestHash string) error
}

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "X-Idempotent-Replayed"
	maxKeyLen         = 255

	// pendingTTL bounds how long a reservation outlives a process that died
	// mid-request.
	pendingTTL = time.Minute
)

// Idempotency replays the stored response for a repeated mutating request
// that carries the same Idempotency-Key. Requests without the header pass
// through untouched. A repeat that arrives while the first is still running
// gets 409. Server errors are not cached so the client can retry.
func Idempotency(repo IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLen {
				handler.RespondAppError(w, handler.ErrInvalidIdempotencyKey, nil)
				return
			}

			log := logging.FromContext(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			cached, err := repo.Reserve(r.Context(), key, reqHash, time.Now().UTC().Add(pendingTTL))
			if err != nil {
				log.Error("idempotency key reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			if cached != nil {
				if cached.RequestHash != reqHash {
					handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
					return
				}
				if cached.StatusCode == 0 {
					handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
				}
				return
			}

			// The outcome is recorded even if the client has gone away.
			storeCtx := context.WithoutCancel(r.Context())
			release := func() {
				if err := repo.Release(storeCtx, key, reqHash); err != nil {
					log.Error("idempotency key release failed", "error", err, "idempotency_key", key)
				}
			}
			defer func() {
				if p := recover(); p != nil {
					release()
					panic(p)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				release()
				return
			}

			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:          key,
				RequestHash:  reqHash,
				StatusCode:   rec.statusCode,
				ResponseBody: rec.body.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			}
			if err := repo.Complete(storeCtx, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
			}
		})
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
