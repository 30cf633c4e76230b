package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"doorstep/internal/redis"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyReplayed = "Idempotent-Replayed"
	idempotencyTTL      = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST or PUT that carries an
// Idempotency-Key already seen for the same route. Server errors are not
// stored so the client can retry them. Store failures degrade to a normal
// request.
func Idempotency(store redis.IdempotencyStoreInterface, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || (c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		data, found, err := store.GetResponse(ctx, cacheKey)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			c.Next()
			return
		}

		if found {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header(idempotencyReplayed, "true")
				c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
			logger.Warn("discarding unreadable idempotent response", zap.String("key", key))
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 500 {
			return
		}

		response := cachedResponse{
			StatusCode: status,
			Body:       w.body.Bytes(),
			Headers:    extractResponseHeaders(c),
		}
		encoded, err := json.Marshal(&response)
		if err != nil {
			return
		}
		if err := store.SetResponse(ctx, cacheKey, encoded, idempotencyTTL); err != nil {
			logger.Warn("idempotency store failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
		}
	}
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
