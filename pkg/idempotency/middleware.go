// Package idempotency makes mutating endpoints safe to retry. A client
// sends an Idempotency-Key header; the first request under a key executes
// and its response is stored, retries under the same key replay the stored
// response instead of executing again.
package idempotency

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey is the header clients use to mark retries.
	HeaderIdempotencyKey = "Idempotency-Key"

	// ContextKeyIdempotencyKeyID exposes the stored key's ID to handlers.
	ContextKeyIdempotencyKeyID = "idempotencyKeyId"
)

// errorBody mirrors the API error envelope so idempotency failures render
// like every other error response.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	})
}

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware returns the idempotency middleware for config.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OnlyMutating && !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				abortWith(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED",
					"Idempotency-Key header is required for this operation")
				return
			}
			c.Next()
			return
		}

		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			abortWith(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_INVALID",
				fmt.Sprintf("invalid idempotency key: %v", err))
			return
		}

		var userID string
		if config.UserIDExtractor != nil {
			userID = config.UserIDExtractor(c)
		}

		// The body is consumed for fingerprinting and restored for the
		// handler.
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		run(c, config, key, userID, ComputeFingerprint(requestBody))
	}
}

func run(c *gin.Context, config *Config, key, userID, fingerprint string) {
	ctx := c.Request.Context()
	endpoint := c.Request.URL.Path
	method := c.Request.Method
	logger := config.logger().With(
		"key", key,
		"service", config.ServiceName,
		"path", endpoint,
	)

	record := &IdempotencyKey{
		Key:                key,
		UserID:             userID,
		ServiceID:          config.ServiceName,
		RequestPath:        endpoint,
		RequestMethod:      method,
		RequestFingerprint: fingerprint,
		CreatedAt:          time.Now().UTC(),
		ExpiresAt:          time.Now().UTC().Add(config.RetentionPeriod),
	}

	lockStart := time.Now()
	existing, isNew, err := config.Repository.AcquireLock(ctx, record)
	if err != nil {
		logger.Error("Failed to acquire idempotency lock", "error", err)
		config.Metrics.RecordStorageError(config.ServiceName, "acquire_lock")
		abortWith(c, http.StatusServiceUnavailable, "IDEMPOTENCY_STORAGE_UNAVAILABLE",
			"Idempotency storage is temporarily unavailable")
		return
	}
	config.Metrics.RecordLockAcquisitionDuration(config.ServiceName, endpoint, method,
		time.Since(lockStart).Seconds())

	if existing.IsCompleted() {
		if existing.RequestFingerprint != fingerprint {
			logger.Warn("Idempotency key reused with a different body",
				"originalFingerprint", existing.RequestFingerprint,
				"fingerprint", fingerprint,
			)
			config.Metrics.RecordParameterMismatch(config.ServiceName, endpoint, method)
			abortWith(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_PARAMETER_MISMATCH",
				"Request parameters differ from the original request with this idempotency key")
			return
		}

		logger.Info("Replaying stored response", "statusCode", existing.ResponseCode)
		config.Metrics.RecordHit(config.ServiceName, endpoint, method)

		for k, v := range existing.ResponseHeaders {
			c.Header(k, v)
		}
		c.Data(existing.ResponseCode, "application/json", existing.ResponseBody)
		c.Abort()
		return
	}

	if !isNew && existing.IsLocked() {
		lockAge := time.Since(*existing.LockedAt)
		if lockAge < config.LockTimeout {
			logger.Warn("Concurrent request under the same idempotency key", "lockAge", lockAge)
			config.Metrics.RecordConcurrentCollision(config.ServiceName, endpoint, method)
			abortWith(c, http.StatusConflict, "IDEMPOTENCY_CONCURRENT_REQUEST",
				"A request with this idempotency key is currently being processed")
			return
		}
		logger.Info("Taking over stale idempotency lock", "lockAge", lockAge)
	}

	c.Set(ContextKeyIdempotencyKeyID, existing.ID.Hex())
	config.Metrics.RecordMiss(config.ServiceName, endpoint, method)

	writer := &captureWriter{
		ResponseWriter: c.Writer,
		body:           &bytes.Buffer{},
		status:         http.StatusOK,
	}
	c.Writer = writer

	c.Next()

	finish(c, config, logger, existing.ID.Hex(), writer)
}

// finish runs after the handler. Successful responses are stored for
// replay; 5xx responses release the lock instead, so the client's retry
// executes again rather than replaying a failure.
func finish(c *gin.Context, config *Config, logger *slog.Logger, keyID string, writer *captureWriter) {
	// Storage must proceed even when the client has gone away.
	ctx := context.WithoutCancel(c.Request.Context())

	if writer.status >= http.StatusInternalServerError {
		if err := config.Repository.ReleaseLock(ctx, keyID); err != nil {
			logger.Error("Failed to release idempotency lock", "error", err)
			config.Metrics.RecordStorageError(config.ServiceName, "release_lock")
		}
		return
	}

	responseBody := writer.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		logger.Warn("Response too large to store for replay",
			"size", len(responseBody),
			"maxSize", config.MaxResponseSize,
		)
		responseBody = []byte(fmt.Sprintf(`{"error":"Response too large to cache","size":%d}`, len(responseBody)))
	}

	err := config.Repository.StoreResponse(ctx, keyID, writer.status, responseBody, responseHeaders(c))
	if err != nil {
		logger.Error("Failed to store idempotency response", "error", err)
		config.Metrics.RecordStorageError(config.ServiceName, "store_response")
		return
	}
	logger.Debug("Stored idempotency response", "statusCode", writer.status)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func responseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for k, v := range c.Writer.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
