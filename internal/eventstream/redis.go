package eventstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coroviz/internal/wire"
)

// recordField is the stream entry field carrying the JSON-encoded record.
const recordField = "record"

// RedisSource reads records from a Redis Stream, for live ingestion from an
// instrumented runtime publishing with XADD.
type RedisSource struct {
	client  *redis.Client
	stream  string
	lastID  string
	pending []*wire.Record
}

// NewRedisSource connects to Redis and tails the given stream key starting
// from its current end.
func NewRedisSource(ctx context.Context, url, stream string) (*RedisSource, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisSource{
		client: client,
		stream: stream,
		lastID: "$",
	}, nil
}

// Read returns the next record from the stream, blocking in bounded XREAD
// calls until one arrives or the context is cancelled. Entries without a
// record field are skipped.
func (s *RedisSource) Read(ctx context.Context) (*wire.Record, error) {
	for {
		if len(s.pending) > 0 {
			rec := s.pending[0]
			s.pending = s.pending[1:]
			return rec, nil
		}

		res, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.stream, s.lastID},
			Count:   128,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Block timeout, nothing new yet.
				continue
			}
			return nil, fmt.Errorf("reading stream %s: %w", s.stream, err)
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				s.lastID = msg.ID
				payload, ok := msg.Values[recordField].(string)
				if !ok {
					continue
				}
				rec, err := wire.Decode([]byte(payload))
				if err != nil {
					continue
				}
				s.pending = append(s.pending, rec)
			}
		}
	}
}

// Close releases the Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
