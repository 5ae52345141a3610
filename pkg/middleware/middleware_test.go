package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	Setup(router, DefaultConfig("stock-ledger-test", discardLogger()))
	router.NoRoute(NoRoute())
	router.NoMethod(NoMethod())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	router.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("unexpected state")
	})
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errors.New("stock record not found"))
	})

	return router
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRequestIDEchoedWhenProvided(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestCorrelationIDPropagated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "flow-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "flow-7", w.Header().Get(HeaderCorrelationID))
}

func TestSecurityHeadersSet(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContentTypeRejectedForNonJSONBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"x":1}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "INVALID_CONTENT_TYPE", body.Code)
	assert.Equal(t, "/echo", body.Path)
}

func TestContentTypeAllowsEmptyBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecoveryRendersInternalError(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotEmpty(t, body.RequestID)
	assert.NotEmpty(t, body.Timestamp)
}

func TestErrorHandlerRendersContextErrors(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "RESOURCE_NOT_FOUND", body.Code)
	assert.Equal(t, "/missing", body.Path)
}

func TestNoMethodEnvelope(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/ping", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)
}

func TestNoRouteEnvelope(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "ROUTE_NOT_FOUND", body.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestResponderMapsDomainConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/items", nil)

	responder := NewErrorResponder(c, discardLogger())
	responder.RespondWithError(errors.New("item code already exists"))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Equal(t, "item code already exists", body.Message)
}

func TestResponderHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)

	responder := NewErrorResponder(c, discardLogger())
	responder.RespondWithError(errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, "an internal error occurred", body.Message)
	assert.NotContains(t, body.Message, "connection refused")
}

func TestResponderBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)

	NewErrorResponder(c, discardLogger()).RespondBadRequest("malformed cursor")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Equal(t, "malformed cursor", body.Message)
}
