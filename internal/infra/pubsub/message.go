package pubsub

import (
	"encoding/json"

	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
)

// message is a loyalty event encoded for the wire, shared by every publisher.
type message struct {
	data       []byte
	attributes map[string]string

	// Events of one profile are delivered in order.
	orderingKey string
}

func encodeEvent(event *service.LoyaltyEvent) (*message, error) {
	if event == nil || event.EventID == "" || event.Type == "" {
		return nil, errors.New("loyalty event requires an ID and a type")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode loyalty event")
	}

	// Consumers filter on attributes without decoding the payload.
	attributes := map[string]string{
		"event_id":    event.EventID,
		"event_type":  string(event.Type),
		"business_id": event.BusinessID,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}
	if event.TierLevel != "" {
		attributes["tier_level"] = event.TierLevel
	}

	return &message{
		data:        data,
		attributes:  attributes,
		orderingKey: event.LoyaltyProfileID,
	}, nil
}
