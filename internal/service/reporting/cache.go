package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/pkg/logger"
)

// summaryCacheTTL bounds how stale a dashboard ROI figure can get if the
// write-through path misses an update.
const summaryCacheTTL = 5 * time.Minute

// SummaryCache is a Redis-backed read cache for campaign ROI summaries.
// All failures degrade to cache misses; the repository stays authoritative.
type SummaryCache struct {
	client *redis.Client
}

// NewSummaryCache creates a summary cache over the given Redis client.
func NewSummaryCache(client *redis.Client) *SummaryCache {
	return &SummaryCache{client: client}
}

func summaryKey(campaignID string, model domain.ModelName) string {
	return fmt.Sprintf("roi_summary:%s:%s", campaignID, model)
}

// Get returns the cached summary for (campaign, model), if present.
func (c *SummaryCache) Get(ctx context.Context, campaignID string, model domain.ModelName) (*domain.CampaignROISummary, bool) {
	data, err := c.client.Get(ctx, summaryKey(campaignID, model)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("summary cache read failed", "campaign_id", campaignID, "error", err.Error())
		return nil, false
	}
	var s domain.CampaignROISummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// Set writes a summary through to the cache. Errors are logged, not returned;
// a cache write failure must never fail an attribution call.
func (c *SummaryCache) Set(ctx context.Context, s domain.CampaignROISummary) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, summaryKey(s.CampaignID, s.Model), data, summaryCacheTTL).Err(); err != nil {
		logger.Warn("summary cache write failed", "campaign_id", s.CampaignID, "error", err.Error())
	}
}

// Invalidate drops the cached summary for (campaign, model).
func (c *SummaryCache) Invalidate(ctx context.Context, campaignID string, model domain.ModelName) {
	if err := c.client.Del(ctx, summaryKey(campaignID, model)).Err(); err != nil {
		logger.Warn("summary cache invalidate failed", "campaign_id", campaignID, "error", err.Error())
	}
}
