package redis

import (
	"context"
	"encoding/json"

	"dao-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventChannel = "auction_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, bidEventChannel, data).Err()
}
