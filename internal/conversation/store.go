package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long an idle conversation survives. There is no
// durability guarantee beyond it.
const stateTTL = 24 * time.Hour

// Store persists per-channel dialog state in redis as a JSON blob.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func stateKey(channelID string) string {
	return fmt.Sprintf("conversation:state:%s", channelID)
}

// Load fetches the state for a channel. A missing key returns (nil, nil).
func (s *Store) Load(ctx context.Context, channelID string) (*State, error) {
	data, err := s.client.Get(ctx, stateKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("conversation: decode state: %w", err)
	}
	return &st, nil
}

// Save writes the state for a channel, refreshing the TTL.
func (s *Store) Save(ctx context.Context, channelID string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("conversation: encode state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(channelID), data, stateTTL).Err(); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}
	return nil
}

// Reset drops the state for a channel.
func (s *Store) Reset(ctx context.Context, channelID string) error {
	if err := s.client.Del(ctx, stateKey(channelID)).Err(); err != nil {
		return fmt.Errorf("conversation: reset state: %w", err)
	}
	return nil
}
