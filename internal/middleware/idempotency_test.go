package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryResponseStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemoryResponseStore() *memoryResponseStore {
	return &memoryResponseStore{data: make(map[string][]byte)}
}

func (s *memoryResponseStore) GetResponse(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	data, ok := s.data[key]
	return data, ok, nil
}

func (s *memoryResponseStore) SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func newIdempotentRouter(store *memoryResponseStore, status int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Idempotency(store, zap.NewNop()))
	r.POST("/api/leads", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func doPost(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store := newMemoryResponseStore()
	calls := 0
	r := newIdempotentRouter(store, http.StatusCreated, &calls)

	first := doPost(r, "abc")
	second := doPost(r, "abc")

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(idempotencyReplayed))
}

func TestIdempotency_WithoutKeyAlwaysRuns(t *testing.T) {
	store := newMemoryResponseStore()
	calls := 0
	r := newIdempotentRouter(store, http.StatusCreated, &calls)

	doPost(r, "")
	doPost(r, "")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	store := newMemoryResponseStore()
	calls := 0
	r := newIdempotentRouter(store, http.StatusInternalServerError, &calls)

	doPost(r, "abc")
	doPost(r, "abc")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_StoreFailureDegrades(t *testing.T) {
	store := newMemoryResponseStore()
	store.getErr = errors.New("redis down")
	calls := 0
	r := newIdempotentRouter(store, http.StatusCreated, &calls)

	w := doPost(r, "abc")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		rid := w.Header().Get(requestIDHeader)
		assert.NotEmpty(t, rid)
		assert.Equal(t, rid, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "req-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
		assert.Equal(t, "req-42", w.Body.String())
	})
}
