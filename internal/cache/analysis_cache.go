package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"counselhub/internal/model"
)

const (
	runLockTTL   = 2 * time.Minute
	latestRunTTL = 24 * time.Hour
)

// AnalysisCache guards against concurrent analysis runs for the same
// counselor and keeps the latest run summary hot for dashboard reads.
type AnalysisCache interface {
	AcquireRunLock(ctx context.Context, counselorID string) (bool, error)
	ReleaseRunLock(ctx context.Context, counselorID string) error
	SetLatestRun(ctx context.Context, counselorID string, summary *model.RunSummary) error
	GetLatestRun(ctx context.Context, counselorID string) (*model.RunSummary, error)
}

type analysisCache struct {
	client *redis.Client
}

// NewAnalysisCache creates a new analysis cache.
func NewAnalysisCache(client *redis.Client) AnalysisCache {
	return &analysisCache{client: client}
}

func (c *analysisCache) lockKey(counselorID string) string {
	return fmt.Sprintf("counselor:%s:analysis:lock", counselorID)
}

func (c *analysisCache) latestKey(counselorID string) string {
	return fmt.Sprintf("counselor:%s:analysis:latest", counselorID)
}

// AcquireRunLock returns false when another run already holds the lock.
// The TTL bounds how long a crashed run can block its counselor.
func (c *analysisCache) AcquireRunLock(ctx context.Context, counselorID string) (bool, error) {
	return c.client.SetNX(ctx, c.lockKey(counselorID), "1", runLockTTL).Result()
}

func (c *analysisCache) ReleaseRunLock(ctx context.Context, counselorID string) error {
	return c.client.Del(ctx, c.lockKey(counselorID)).Err()
}

func (c *analysisCache) SetLatestRun(ctx context.Context, counselorID string, summary *model.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.latestKey(counselorID), data, latestRunTTL).Err()
}

func (c *analysisCache) GetLatestRun(ctx context.Context, counselorID string) (*model.RunSummary, error) {
	data, err := c.client.Get(ctx, c.latestKey(counselorID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary model.RunSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
