package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eaglebank/ledger-service/shared/utils"
)

const (
	defaultStreamMaxLen   = 100000
	defaultPublishTimeout = 2 * time.Second
)

// Publisher appends ledger events to a Redis stream. Entries carry the event
// type as a plain field next to the JSON body so streams can be inspected
// with XRANGE without decoding.
type Publisher struct {
	client  *redis.Client
	maxLen  int64
	timeout time.Duration
	now     func() time.Time
}

type PublisherOption func(*Publisher)

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(n int64) PublisherOption {
	return func(p *Publisher) { p.maxLen = n }
}

// WithPublishTimeout bounds each XADD so a slow Redis cannot hold up the
// request that committed the change.
func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) { p.timeout = d }
}

func NewPublisher(client *redis.Client, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:  client,
		maxLen:  defaultStreamMaxLen,
		timeout: defaultPublishTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	values, err := p.encode(eventType, data)
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

// encode builds the stream entry fields for one event.
func (p *Publisher) encode(eventType string, data any) (map[string]any, error) {
	body, err := json.Marshal(Event{
		ID:        utils.GenerateID("evt"),
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return map[string]any{
		fieldType:  eventType,
		fieldEvent: string(body),
	}, nil
}
