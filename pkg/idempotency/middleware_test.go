package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const receiveBody = `{"itemCode":"ITM-001","warehouseCode":"WH001","quantity":"25","unitCost":"49.9900","actor":"receiving-dock"}`

type storedResponse struct {
	keyID   string
	status  int
	body    string
	headers map[string]string
}

type fakeKeyRepository struct {
	mu          sync.Mutex
	acquireFunc func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)
	stored      []storedResponse
	released    []string
}

func (f *fakeKeyRepository) AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
	if f.acquireFunc != nil {
		return f.acquireFunc(ctx, key)
	}
	key.ID = primitive.NewObjectID()
	return key, true, nil
}

func (f *fakeKeyRepository) ReleaseLock(ctx context.Context, keyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, keyID)
	return nil
}

func (f *fakeKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, storedResponse{
		keyID:   keyID,
		status:  responseCode,
		body:    string(responseBody),
		headers: headers,
	})
	return nil
}

func (f *fakeKeyRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func testConfig(repo KeyRepository) *Config {
	config := DefaultConfig("stock-api", repo)
	config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return config
}

func receiveRouter(config *Config, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(config))
	router.POST("/api/v1/stock/receive", handler)
	return router
}

func createdHandler(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"itemCode": "ITM-001", "onHand": "25.0000"})
}

func postReceive(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/receive", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMiddlewareOptionalWithoutKey(t *testing.T) {
	repo := &fakeKeyRepository{}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "", receiveBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, repo.stored, "request without key should bypass idempotency")
}

func TestMiddlewareRequiredWithoutKey(t *testing.T) {
	repo := &fakeKeyRepository{}
	config := testConfig(repo)
	config.RequireKey = true
	router := receiveRouter(config, createdHandler)

	w := postReceive(router, "", receiveBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_REQUIRED", decodeEnvelope(t, w).Code)
}

func TestMiddlewareRejectsMalformedKey(t *testing.T) {
	repo := &fakeKeyRepository{}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "not a valid key!", receiveBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_INVALID", decodeEnvelope(t, w).Code)
}

func TestMiddlewareStoresFirstResponse(t *testing.T) {
	keyID := primitive.NewObjectID()
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			key.ID = keyID
			return key, true, nil
		},
	}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, keyID.Hex(), repo.stored[0].keyID)
	assert.Equal(t, http.StatusCreated, repo.stored[0].status)
	assert.Contains(t, repo.stored[0].body, "ITM-001")
}

func TestMiddlewareReplaysStoredResponse(t *testing.T) {
	completedAt := time.Now().UTC()
	replayed := `{"itemCode":"ITM-001","onHand":"25.0000"}`
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				Key:                key.Key,
				ServiceID:          key.ServiceID,
				RequestFingerprint: ComputeFingerprint([]byte(receiveBody)),
				ResponseCode:       http.StatusCreated,
				ResponseBody:       []byte(replayed),
				ResponseHeaders:    map[string]string{"X-Stock-Version": "3"},
				CompletedAt:        &completedAt,
			}, false, nil
		},
	}

	handlerCalls := 0
	router := receiveRouter(testConfig(repo), func(c *gin.Context) {
		handlerCalls++
		c.JSON(http.StatusCreated, gin.H{"fresh": true})
	})

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, replayed, w.Body.String())
	assert.Equal(t, "3", w.Header().Get("X-Stock-Version"))
	assert.Zero(t, handlerCalls, "handler must not run on replay")
	assert.Empty(t, repo.stored)
}

func TestMiddlewareRejectsReusedKeyWithDifferentBody(t *testing.T) {
	completedAt := time.Now().UTC()
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				Key:                key.Key,
				RequestFingerprint: ComputeFingerprint([]byte(`{"itemCode":"ITM-001","quantity":"99"}`)),
				ResponseCode:       http.StatusCreated,
				ResponseBody:       []byte(`{}`),
				CompletedAt:        &completedAt,
			}, false, nil
		},
	}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "IDEMPOTENCY_PARAMETER_MISMATCH", decodeEnvelope(t, w).Code)
}

func TestMiddlewareRejectsConcurrentDuplicate(t *testing.T) {
	lockedAt := time.Now().UTC()
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				Key:                key.Key,
				RequestFingerprint: key.RequestFingerprint,
				LockedAt:           &lockedAt,
			}, false, nil
		},
	}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "IDEMPOTENCY_CONCURRENT_REQUEST", decodeEnvelope(t, w).Code)
}

func TestMiddlewareTakesOverStaleLock(t *testing.T) {
	staleLock := time.Now().UTC().Add(-10 * time.Minute)
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				Key:                key.Key,
				RequestFingerprint: key.RequestFingerprint,
				LockedAt:           &staleLock,
			}, false, nil
		},
	}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, repo.stored, 1, "stale lock should be taken over and the response stored")
}

func TestMiddlewareStorageOutage(t *testing.T) {
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return nil, false, errors.New("connection refused")
		},
	}
	router := receiveRouter(testConfig(repo), createdHandler)

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "IDEMPOTENCY_STORAGE_UNAVAILABLE", decodeEnvelope(t, w).Code)
}

func TestMiddlewareReleasesLockOnServerError(t *testing.T) {
	keyID := primitive.NewObjectID()
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			key.ID = keyID
			return key, true, nil
		},
	}
	router := receiveRouter(testConfig(repo), func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR"})
	})

	w := postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, repo.stored, "5xx responses must not be stored for replay")
	assert.Equal(t, []string{keyID.Hex()}, repo.released)
}

func TestMiddlewareSkipsReads(t *testing.T) {
	repo := &fakeKeyRepository{
		acquireFunc: func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			t.Error("AcquireLock must not run for GET requests")
			return nil, false, errors.New("unreachable")
		},
	}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(testConfig(repo)))
	router.GET("/api/v1/stock", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set(HeaderIdempotencyKey, "retry-key-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareRestoresRequestBody(t *testing.T) {
	repo := &fakeKeyRepository{}
	var seenBody string
	router := receiveRouter(testConfig(repo), func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		seenBody = string(raw)
		c.Status(http.StatusAccepted)
	})

	postReceive(router, "retry-key-1", receiveBody)

	assert.Equal(t, receiveBody, seenBody, "handler must see the full request body")
}
