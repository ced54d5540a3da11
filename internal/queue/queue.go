// Package queue carries serialized market batches between the dispatcher
// and the upsert consumer over a Redis stream. Delivery is at-least-once:
// a message is acknowledged only after its handler returns nil, and
// entries left pending are reclaimed and redelivered.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const payloadField = "payload"

// Handler processes one message body. A nil return acknowledges the
// message; an error leaves it pending for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Publisher appends batch messages to the stream.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	return &Publisher{rdb: rdb, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Consumer reads batch messages through a consumer group. Workers run
// independent read loops (no shared state between in-flight batches) and a
// claim loop periodically recovers messages whose consumer died before
// acknowledging.
type Consumer struct {
	rdb     *redis.Client
	stream  string
	group   string
	name    string
	block   time.Duration
	minIdle time.Duration
	workers int
	handler Handler
	logger  *zap.Logger
}

type ConsumerOptions struct {
	Stream  string
	Group   string
	Name    string
	Block   time.Duration
	MinIdle time.Duration
	Workers int
}

func NewConsumer(rdb *redis.Client, opts ConsumerOptions, handler Handler, logger *zap.Logger) *Consumer {
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.MinIdle <= 0 {
		opts.MinIdle = time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		rdb:     rdb,
		stream:  opts.Stream,
		group:   opts.Group,
		name:    opts.Name,
		block:   opts.Block,
		minIdle: opts.MinIdle,
		workers: opts.Workers,
		handler: handler,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	for i := 0; i < c.workers; i++ {
		go func(worker int) {
			c.readLoop(ctx, fmt.Sprintf("%s-%d", c.name, worker))
		}(i)
	}
	go func() {
		c.claimLoop(ctx)
		close(done)
	}()

	<-ctx.Done()
	<-done
	return ctx.Err()
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", c.group, c.stream, err)
	}
	return nil
}

func (c *Consumer) readLoop(ctx context.Context, consumerName string) {
	for {
		if ctx.Err() != nil {
			return
		}
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    c.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Warn("stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

// claimLoop re-delivers messages that have sat unacknowledged past
// MinIdle, e.g. because a previous batch attempt failed mid-write.
func (c *Consumer) claimLoop(ctx context.Context) {
	ticker := time.NewTicker(c.minIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		msgs, _, err := c.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.name + "-claim",
			MinIdle:  c.minIdle,
			Start:    "0-0",
			Count:    10,
		}).Result()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.Warn("stream claim failed", zap.Error(err))
			}
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	payload, err := payloadFromValues(msg.Values)
	if err != nil {
		// Unreadable messages can never succeed; ack so they stop
		// cycling through the claim loop.
		c.logger.Error("dropping malformed queue message",
			zap.String("id", msg.ID),
			zap.Error(err))
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.handler(ctx, payload); err != nil {
		c.logger.Warn("batch handler failed, leaving message for redelivery",
			zap.String("id", msg.ID),
			zap.Error(err))
		return
	}
	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		c.logger.Warn("ack failed", zap.String("id", id), zap.Error(err))
	}
}

func payloadFromValues(values map[string]any) ([]byte, error) {
	raw, ok := values[payloadField]
	if !ok {
		return nil, fmt.Errorf("message has no %s field", payloadField)
	}
	switch v := raw.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected payload type %T", raw)
	}
}
