package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Store caches raw provider responses keyed by (endpoint, params).
// Endpoint names are provider-scoped ("amadeus:flight-dates"), so entries
// from different providers can never collide.
type Store interface {
	Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool, error)
	Set(ctx context.Context, endpoint string, params map[string]string, value []byte) error
	ClearExpired(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

type Stats struct {
	Total   int `json:"total_entries"`
	Valid   int `json:"valid_entries"`
	Expired int `json:"expired_entries"`
}

// Key hashes endpoint plus a deterministic serialization of params.
// json.Marshal sorts map keys, so equal param sets always produce the
// same digest.
func Key(endpoint string, params map[string]string) string {
	serialized, _ := json.Marshal(params)
	sum := sha256.Sum256([]byte(endpoint + ":" + string(serialized)))
	return hex.EncodeToString(sum[:])
}

// NoOpStore disables caching; every Get is a miss.
type NoOpStore struct{}

func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

func (s *NoOpStore) Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoOpStore) Set(ctx context.Context, endpoint string, params map[string]string, value []byte) error {
	return nil
}

func (s *NoOpStore) ClearExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *NoOpStore) ClearAll(ctx context.Context) error {
	return nil
}

func (s *NoOpStore) Stats(ctx context.Context) (Stats, error) {
	return Stats{}, nil
}

func (s *NoOpStore) Close() error {
	return nil
}
