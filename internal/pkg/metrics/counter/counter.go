package counter

import (
	"context"
	"strconv"

	"github.com/aseguraplus/SeguroPay/internal/pkg/cache"
)

const (
	webhookReceivedKey  = "webhook:counters:received"
	webhookProcessedKey = "webhook:counters:processed"
	webhookFailedKey    = "webhook:counters:failed"
)

// AddWebhookReceived increments the delivery counter for a provider in Redis
func AddWebhookReceived(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookReceivedKey, provider, 1).Err()
}

// AddWebhookProcessed increments the processed counter for a provider in Redis
func AddWebhookProcessed(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookProcessedKey, provider, 1).Err()
}

// AddWebhookFailed increments the failure counter for a provider in Redis
func AddWebhookFailed(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookFailedKey, provider, 1).Err()
}

// WebhookCounts holds per-provider delivery counters.
type WebhookCounts struct {
	Received  map[string]int64 `json:"received"`
	Processed map[string]int64 `json:"processed"`
	Failed    map[string]int64 `json:"failed"`
}

// GetWebhookCounts reads the current counters for the operator surface.
func GetWebhookCounts() (WebhookCounts, error) {
	counts := WebhookCounts{}

	var err error
	if counts.Received, err = readHash(webhookReceivedKey); err != nil {
		return counts, err
	}
	if counts.Processed, err = readHash(webhookProcessedKey); err != nil {
		return counts, err
	}
	counts.Failed, err = readHash(webhookFailedKey)
	return counts, err
}

func readHash(key string) (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
