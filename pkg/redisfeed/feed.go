package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/pipe"
)

// queueClient is the slice of the Redis API the consumer needs.
// redis.UniversalClient satisfies it.
type queueClient interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Config holds configuration for a Redis-fed pipeline consumer.
type Config struct {
	// Client is the Redis connection used for queue operations.
	Client redis.UniversalClient

	// Queue is the list jobs are popped from.
	Queue string

	// ResultQueue receives JSON-encoded output values. Empty disables
	// result publishing.
	ResultQueue string

	// ErrorQueue receives JSON-encoded failure records. Empty disables
	// failure publishing.
	ErrorQueue string

	// BlockTimeout bounds each blocking pop so the consumer can notice
	// context cancellation. Defaults to one second.
	BlockTimeout time.Duration

	// Logger for job logging. Defaults to a disabled logger.
	Logger zerolog.Logger

	// Metrics records per-queue job counts by terminal status. Nil
	// disables recording.
	Metrics *metrics.Registry
}

// failureRecord is the JSON shape pushed to the error queue.
type failureRecord struct {
	Queue   string `json:"queue"`
	Payload string `json:"payload"`
	Error   string `json:"error"`
}

// Consumer pops JSON-encoded jobs from a Redis list, runs each through a
// pipeline, and publishes outcomes: present values to the result queue,
// captured failures to the error queue, absent outcomes nowhere.
type Consumer[T any] struct {
	client  queueClient
	pipe    *pipe.Pipeline[T]
	queue   string
	results string
	errs    string
	block   time.Duration
	log     zerolog.Logger
	reg     *metrics.Registry
}

// New creates a consumer feeding p from cfg.Queue.
func New[T any](cfg Config, p *pipe.Pipeline[T]) (*Consumer[T], error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redisfeed: client is required")
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("redisfeed: queue name is required")
	}
	if p == nil {
		return nil, fmt.Errorf("redisfeed: pipeline is required")
	}

	block := cfg.BlockTimeout
	if block <= 0 {
		block = time.Second
	}
	return &Consumer[T]{
		client:  cfg.Client,
		pipe:    p,
		queue:   cfg.Queue,
		results: cfg.ResultQueue,
		errs:    cfg.ErrorQueue,
		block:   block,
		log:     cfg.Logger,
		reg:     cfg.Metrics,
	}, nil
}

// Run consumes jobs until ctx is done. Queue errors other than an empty pop
// are returned; job-level failures are published and consumption continues.
func (c *Consumer[T]) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.RunOne(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
	}
}

// RunOne pops and processes a single job. An empty pop returns redis.Nil.
func (c *Consumer[T]) RunOne(ctx context.Context) error {
	popped, err := c.client.BLPop(ctx, c.block, c.queue).Result()
	if err != nil {
		return err
	}
	// BLPop yields [key, value].
	if len(popped) < 2 {
		return fmt.Errorf("redisfeed: unexpected BLPop reply of length %d", len(popped))
	}
	payload := popped[1]

	var input T
	if err := json.Unmarshal([]byte(payload), &input); err != nil {
		c.count("malformed")
		c.log.Warn().Err(err).Str("queue", c.queue).Msg("malformed job payload")
		return c.publishFailure(ctx, payload, err)
	}

	out := c.pipe.Process(ctx, input)
	switch {
	case out.Failed():
		c.count("failed")
		c.log.Warn().Err(out.Err()).Str("queue", c.queue).Msg("job failed")
		return c.publishFailure(ctx, payload, out.Err())

	case out.Absent():
		c.count("discarded")
		c.log.Debug().Str("queue", c.queue).Msg("job discarded")
		return nil

	default:
		c.count("ok")
		return c.publishResult(ctx, out.Value())
	}
}

func (c *Consumer[T]) publishResult(ctx context.Context, v T) error {
	if c.results == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redisfeed: encode result: %w", err)
	}
	if err := c.client.RPush(ctx, c.results, data).Err(); err != nil {
		return fmt.Errorf("redisfeed: push result: %w", err)
	}
	return nil
}

func (c *Consumer[T]) publishFailure(ctx context.Context, payload string, cause error) error {
	if c.errs == "" {
		return nil
	}
	data, err := json.Marshal(failureRecord{Queue: c.queue, Payload: payload, Error: cause.Error()})
	if err != nil {
		return fmt.Errorf("redisfeed: encode failure: %w", err)
	}
	if err := c.client.RPush(ctx, c.errs, data).Err(); err != nil {
		return fmt.Errorf("redisfeed: push failure: %w", err)
	}
	return nil
}

func (c *Consumer[T]) count(status string) {
	if c.reg != nil {
		c.reg.FeedJobs.WithLabelValues(c.queue, status).Inc()
	}
}
