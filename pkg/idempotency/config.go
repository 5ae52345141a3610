package idempotency

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultMaxKeyLength caps key length at the value Stripe popularized.
	DefaultMaxKeyLength = 255

	// DefaultLockTimeout is how long a lock is honored before being
	// treated as abandoned.
	DefaultLockTimeout = 5 * time.Minute

	// DefaultRetentionPeriod is how long stored responses remain
	// replayable.
	DefaultRetentionPeriod = 24 * time.Hour

	// DefaultMaxResponseSize caps stored response bodies at 1MB.
	DefaultMaxResponseSize = 1 * 1024 * 1024
)

// Config configures the idempotency middleware.
type Config struct {
	// ServiceName scopes keys so services sharing a database do not
	// collide.
	ServiceName string

	// Repository is the storage backend for keys and stored responses.
	Repository KeyRepository

	// RequireKey rejects mutating requests that carry no key. When false,
	// requests without a key run without idempotency protection.
	RequireKey bool

	// OnlyMutating restricts the middleware to POST, PUT, PATCH and
	// DELETE.
	OnlyMutating bool

	// UserIDExtractor optionally scopes keys per user.
	UserIDExtractor func(*gin.Context) string

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration
	MaxResponseSize int

	// Metrics may be nil, which disables recording.
	Metrics *Metrics

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// DefaultConfig returns a config with keys optional and only mutating
// methods checked.
func DefaultConfig(serviceName string, repository KeyRepository) *Config {
	return &Config{
		ServiceName:     serviceName,
		Repository:      repository,
		RequireKey:      false,
		OnlyMutating:    true,
		MaxKeyLength:    DefaultMaxKeyLength,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
