package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
)

const (
	localPushTimeout      = 10 * time.Second
	localPushSubscription = "projects/local/subscriptions/loyalty-events-sub"
)

// localHTTPPublisher pushes events to an HTTP endpoint in the shape Google Pub/Sub
// push subscriptions use, so a consumer can be developed without the emulator.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// PubSubPushMessage is the body of a Pub/Sub push request.
type PubSubPushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
		OrderingKey string            `json:"orderingKey,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a new local HTTP publisher for development
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: localPushTimeout},
		logger:     logger,
	}
}

// PublishLoyaltyEvent pushes one event and fails unless the endpoint answers 2xx.
func (p *localHTTPPublisher) PublishLoyaltyEvent(ctx context.Context, event *service.LoyaltyEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	var push PubSubPushMessage
	push.Subscription = localPushSubscription
	push.Message.Data = base64.StdEncoding.EncodeToString(msg.data)
	push.Message.Attributes = msg.attributes
	push.Message.MessageID = event.EventID
	push.Message.PublishTime = publishTime(event).Format(time.RFC3339Nano)
	push.Message.OrderingKey = msg.orderingKey

	body, err := json.Marshal(push)
	if err != nil {
		return errors.Wrap(err, "failed to encode push message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build push request")
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to push event %s", event.EventID)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("event sink returned non-success status: %d", resp.StatusCode)
	}

	p.logger.DebugContext(ctx, "[LocalPubSub] Event published",
		slog.String("event_id", event.EventID),
		slog.String("type", string(event.Type)),
	)

	return nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (p *localHTTPPublisher) Close() error {
	return nil
}

func publishTime(event *service.LoyaltyEvent) time.Time {
	if event.OccurredAt.IsZero() {
		return time.Now().UTC()
	}

	return event.OccurredAt.UTC()
}
