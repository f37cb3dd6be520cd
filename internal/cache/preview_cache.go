package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-import-service/internal/models"
)

// DefaultPreviewTTL is how long a preview can be committed by token
const DefaultPreviewTTL = 30 * time.Minute

var (
	// ErrPreviewNotFound is returned for unknown or expired tokens
	ErrPreviewNotFound = errors.New("preview not found or expired")
	// ErrCacheDisabled is returned when no Redis client is configured
	ErrCacheDisabled = errors.New("preview cache disabled")
)

// PreviewPayload is what a preview stores for a later commit
type PreviewPayload struct {
	TotalRows   int                     `json:"totalRows"`
	Products    []*models.ParsedProduct `json:"products"`
	RowWarnings []models.ImportRowError `json:"rowWarnings,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// PreviewCache keeps assembled previews in Redis keyed by tenant and content hash
type PreviewCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPreviewCache returns a cache; a nil client disables it
func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	return &PreviewCache{redis: client, ttl: ttl}
}

// Enabled reports whether previews can be stored
func (c *PreviewCache) Enabled() bool {
	return c != nil && c.redis != nil
}

// ContentToken is the SHA-256 of the uploaded content
func ContentToken(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func previewKey(tenantID, token string) string {
	return fmt.Sprintf("catalog:preview:%s:%s", tenantID, token)
}

// Save stores the payload under the token
func (c *PreviewCache) Save(ctx context.Context, tenantID, token string, payload *PreviewPayload) error {
	if !c.Enabled() {
		return ErrCacheDisabled
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := c.redis.Set(ctx, previewKey(tenantID, token), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store preview: %w", err)
	}
	return nil
}

// Load fetches a stored preview
func (c *PreviewCache) Load(ctx context.Context, tenantID, token string) (*PreviewPayload, error) {
	if !c.Enabled() {
		return nil, ErrCacheDisabled
	}
	data, err := c.redis.Get(ctx, previewKey(tenantID, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPreviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preview: %w", err)
	}
	var payload PreviewPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode preview: %w", err)
	}
	return &payload, nil
}

// Delete drops a preview once it has been committed
func (c *PreviewCache) Delete(ctx context.Context, tenantID, token string) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Del(ctx, previewKey(tenantID, token)).Err()
}
