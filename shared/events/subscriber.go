package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream entry fields written by Publisher.
const (
	fieldType  = "type"
	fieldEvent = "event"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber consumes a stream through a consumer group. Entries are acked
// only after the handler succeeds; entries left pending by a crashed or
// failing consumer are reclaimed once they have been idle for ClaimIdle.
type Subscriber struct {
	client  *redis.Client
	cfg     SubscriberConfig
	backoff time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// ClaimIdle is how long an entry may sit unacked before this consumer
	// takes it over. Zero disables reclaiming.
	ClaimIdle time.Duration
}

func NewSubscriber(client *redis.Client, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	return &Subscriber{client: client, cfg: cfg, backoff: time.Second}
}

// Start blocks until ctx is cancelled, then returns nil.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}
	slog.Info("Subscriber started", "stream", s.cfg.Stream, "group", s.cfg.Group, "consumer", s.cfg.Consumer)

	lastClaim := time.Time{}
	for ctx.Err() == nil {
		if s.cfg.ClaimIdle > 0 && time.Since(lastClaim) >= s.cfg.ClaimIdle {
			lastClaim = time.Now()
			if err := s.claimStale(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("Reclaiming pending entries failed", "stream", s.cfg.Stream, "error", err)
			}
		}
		if err := s.readNew(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Error reading stream", "stream", s.cfg.Stream, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(s.backoff):
			}
		}
	}
	slog.Info("Subscriber stopping", "stream", s.cfg.Stream)
	return nil
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", s.cfg.Group, s.cfg.Stream, err)
	}
	return nil
}

func (s *Subscriber) readNew(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read group: %w", err)
	}
	for _, stream := range streams {
		s.handleBatch(ctx, stream.Messages)
	}
	return nil
}

func (s *Subscriber) claimStale(ctx context.Context) error {
	start := "0-0"
	for {
		msgs, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.cfg.Stream,
			Group:    s.cfg.Group,
			Consumer: s.cfg.Consumer,
			MinIdle:  s.cfg.ClaimIdle,
			Start:    start,
			Count:    s.cfg.BatchSize,
		}).Result()
		if err != nil {
			return err
		}
		if len(msgs) > 0 {
			slog.Info("Reclaimed pending entries", "stream", s.cfg.Stream, "count", len(msgs))
			s.handleBatch(ctx, msgs)
		}
		if next == "0-0" || len(msgs) == 0 {
			return nil
		}
		start = next
	}
}

func (s *Subscriber) handleBatch(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		if err := s.handle(ctx, msg); err != nil {
			// Left pending for a later claim.
			slog.Error("Failed to handle entry", "stream", s.cfg.Stream, "entry_id", msg.ID, "error", err)
			continue
		}
		if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, msg.ID).Err(); err != nil {
			slog.Error("Failed to ack entry", "stream", s.cfg.Stream, "entry_id", msg.ID, "error", err)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, msg redis.XMessage) error {
	event, err := decodeEntry(msg)
	if err != nil {
		return err
	}
	return s.cfg.Handler(ctx, event)
}

// decodeEntry turns a stream entry written by Publisher back into an Event.
func decodeEntry(msg redis.XMessage) (Event, error) {
	var raw []byte
	switch v := msg.Values[fieldEvent].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return Event{}, fmt.Errorf("entry %s: missing %q field", msg.ID, fieldEvent)
	}
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("entry %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		if t, ok := msg.Values[fieldType].(string); ok {
			event.Type = t
		}
	}
	return event, nil
}
