package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedisBus implements Bus using Redis pub/sub. A single client is shared
// by every subscription; each Subscribe call gets its own PubSub handle
// so independent consumers of the same channel do not interfere.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(cfg RedisConfig) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBus{client: client}, nil
}

// Publish publishes an event to the specified channel.
func (r *RedisBus) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe opens a new subscription on the channel. The returned
// handle is independent of any other subscription on the same channel.
func (r *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, channel)

	// Force the subscription to be established before returning, so a
	// backfill started after Subscribe cannot race past event delivery.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{
		ps:      ps,
		eventCh: make(chan *Event, 100),
	}
	go sub.pump(ctx)

	return sub, nil
}

// Close closes the Redis client. Open subscriptions are closed with it.
func (r *RedisBus) Close() error {
	return r.client.Close()
}

type redisSubscription struct {
	ps      *redis.PubSub
	eventCh chan *Event
	once    sync.Once
}

func (s *redisSubscription) Events() <-chan *Event {
	return s.eventCh
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.eventCh)

	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				l := log.L()
				l.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping undecodable event")
				continue
			}

			select {
			case s.eventCh <- &event:
			case <-ctx.Done():
				s.Close()
				return
			}
		}
	}
}
