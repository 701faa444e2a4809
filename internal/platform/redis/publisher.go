// Package redis publishes review events to a Redis pub/sub channel so that
// other processes can follow session activity.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-review/internal/events"
)

// ErrNotInitialized is returned by a Publisher built without a client.
var ErrNotInitialized = errors.New("redis publisher not initialized")

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Publisher forwards review events to a Redis channel. It implements
// events.EventHandler so it can be registered on an in-memory emitter.
type Publisher struct {
	rdb     goredis.UniversalClient
	channel string
	logger  *slog.Logger
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher creates a publisher writing to channel.
func NewPublisher(rdb goredis.UniversalClient, channel string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With(slog.String("component", "redis_event_publisher")),
	}
}

// HandleEvent publishes event as JSON.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.ReviewEvent) error {
	if p == nil || p.rdb == nil {
		return ErrNotInitialized
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Warn("failed to publish event",
			slog.String("error", err.Error()),
			slog.String("event_type", event.Type),
			slog.String("session_id", event.SessionID))
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe delivers events from the channel to handler until ctx ends.
// It returns once the subscription is confirmed.
func (p *Publisher) Subscribe(ctx context.Context, handler events.EventHandler) error {
	if p == nil || p.rdb == nil {
		return ErrNotInitialized
	}
	if handler == nil {
		return errors.New("handler required")
	}

	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev events.ReviewEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					p.logger.Warn("bad event payload", slog.String("error", err.Error()))
					continue
				}
				if err := handler.HandleEvent(ctx, &ev); err != nil {
					p.logger.Warn("subscriber failed to handle event",
						slog.String("error", err.Error()),
						slog.String("event_type", ev.Type))
				}
			}
		}
	}()

	return nil
}
