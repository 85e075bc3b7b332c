package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/speriment/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces artifact keys.
const DefaultPrefix = "speriment:artifact:"

// noExpiry is the index score of artifacts saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.ArtifactStore using Redis.
// Each artifact is a string key; a sorted set indexes names by expiry so List
// does not need to SCAN.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for artifacts. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for artifacts.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// indexKey cannot collide with an artifact: '#' never appears in an identifier.
func (s *Store) indexKey() string {
	return s.prefix + "#index"
}

// Save stores the artifact and indexes its name.
func (s *Store) Save(ctx context.Context, name string, artifact []byte) error {
	if !domain.ValidVariableName(name) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidVariableName, name)
	}

	score := float64(noExpiry)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), artifact, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: name})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save artifact to redis: %w", err)
	}
	return nil
}

// Load retrieves the artifact from Redis.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to get artifact from redis: %w", err)
	}
	return val, nil
}

// Delete removes the artifact and its index entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete artifact from redis: %w", err)
	}
	return nil
}

// List prunes expired names from the index and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired artifacts: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
