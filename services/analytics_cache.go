package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lifeloop/model"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCache keeps the read view of analytics documents in Redis. Writers
// invalidate after every save, so a hit is never older than the last fold.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

func analyticsKey(userID string) string {
	return fmt.Sprintf("analytics:%s", userID)
}

// Get returns nil, nil on a cache miss
func (ac *AnalyticsCache) Get(ctx context.Context, userID string) (*model.AnalyticsDocument, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	data, err := ac.client.Get(ctx, analyticsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics from cache: %v", err)
	}

	var doc model.AnalyticsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics: %v", err)
	}
	return &doc, nil
}

func (ac *AnalyticsCache) Set(ctx context.Context, doc *model.AnalyticsDocument) error {
	if doc == nil || doc.UserID == "" {
		return fmt.Errorf("cannot cache analytics without a user")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %v", err)
	}

	if err := ac.client.Set(ctx, analyticsKey(doc.UserID), data, ac.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analytics: %v", err)
	}
	return nil
}

func (ac *AnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	if err := ac.client.Del(ctx, analyticsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete analytics from cache: %v", err)
	}
	return nil
}
