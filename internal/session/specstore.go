package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studykit/studykit/internal/mcq"
)

const defaultSpecTTL = 2 * time.Hour

// SpecStore keeps pending test specs in Redis between the creation
// call and the start of the attempt. Specs expire unused; a started
// attempt holds its own copy, so eviction never affects a running
// session.
type SpecStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSpecStore creates a Redis-backed spec store.
func NewSpecStore(client *redis.Client, ttl time.Duration) *SpecStore {
	if ttl <= 0 {
		ttl = defaultSpecTTL
	}
	return &SpecStore{client: client, ttl: ttl}
}

func specKey(id string) string {
	return "testspec:" + id
}

// Put stores a spec under its ID.
func (s *SpecStore) Put(ctx context.Context, spec mcq.TestSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}
	return s.client.Set(ctx, specKey(spec.ID), data, s.ttl).Err()
}

// Get retrieves a spec by ID. A missing or expired spec returns
// (nil, nil).
func (s *SpecStore) Get(ctx context.Context, id string) (*mcq.TestSpec, error) {
	data, err := s.client.Get(ctx, specKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get spec: %w", err)
	}
	var spec mcq.TestSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("unmarshal spec: %w", err)
	}
	return &spec, nil
}
