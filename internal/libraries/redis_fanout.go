package libraries

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisFanout forwards board updates between service instances.
type RedisFanout struct {
	rc      *redis.Client
	channel string
}

type fanoutEnvelope struct {
	BoardID string          `json:"boardId"`
	Payload json.RawMessage `json:"payload"`
}

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisFanout(rc *redis.Client, channel string) *RedisFanout {
	return &RedisFanout{rc: rc, channel: channel}
}

func (f *RedisFanout) Publish(ctx context.Context, boardID string, payload []byte) error {
	data, err := json.Marshal(fanoutEnvelope{BoardID: boardID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal board update: %w", err)
	}
	if err := f.rc.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("publish board update: %w", err)
	}
	return nil
}

// Subscribe delivers every update on the channel until ctx is done.
// ready, when non nil, is closed once the subscription is confirmed.
func (f *RedisFanout) Subscribe(ctx context.Context, ready chan<- struct{}, deliver func(boardID string, payload []byte)) error {
	sub := f.rc.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env fanoutEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.WithError(err).Error("unable to parse board update")
				continue
			}
			deliver(env.BoardID, env.Payload)
		}
	}
}
