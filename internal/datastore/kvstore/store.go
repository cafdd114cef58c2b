// Package kvstore keeps the set of persisted entity types in Redis
package kvstore

import (
	"context"
	"fmt"
	"reflect"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/datastore"
	"github.com/conduit-lang/entitydict/internal/dictionary"
)

const defaultNamespace = "entitydict"

// Store reads persisted types from a Redis set at <namespace>:types. Members
// are type keys as produced by datastore.TypeKey.
type Store struct {
	client    redis.UniversalClient
	namespace string
	scope     []string
	logger    *zap.Logger
}

// New creates a store over an existing client
func New(client redis.UniversalClient, namespace string, scope []string, logger *zap.Logger) *Store {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, namespace: namespace, scope: scope, logger: logger}
}

// Dial connects to a single Redis server and pings it
func Dial(ctx context.Context, addr, namespace string, scope []string, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, namespace, scope, logger), nil
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}

// Name implements datastore.DataStore
func (s *Store) Name() string {
	return "redis"
}

func (s *Store) typesKey() string {
	return s.namespace + ":types"
}

// RegisterTypes records types as persisted
func (s *Store) RegisterTypes(ctx context.Context, types ...reflect.Type) error {
	if len(types) == 0 {
		return nil
	}
	members := make([]any, len(types))
	for i, t := range types {
		members[i] = datastore.TypeKey(t)
	}
	if err := s.client.SAdd(ctx, s.typesKey(), members...).Err(); err != nil {
		return fmt.Errorf("failed to register types: %w", err)
	}
	return nil
}

// PersistedKeys returns the recorded type keys
func (s *Store) PersistedKeys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.typesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted types: %w", err)
	}
	return keys, nil
}

// PopulateEntityDictionary implements datastore.DataStore
func (s *Store) PopulateEntityDictionary(ctx context.Context, d *dictionary.Dictionary) error {
	keys, err := s.PersistedKeys(ctx)
	if err != nil {
		return err
	}

	types := d.Catalog().Types(s.scope...)
	byKey := make(map[string]reflect.Type, len(types))
	for _, t := range types {
		byKey[datastore.TypeKey(t)] = t
	}

	var persistent []reflect.Type
	for _, key := range keys {
		t, ok := byKey[key]
		if !ok {
			s.logger.Warn("persisted type not in catalog", zap.String("key", key))
			continue
		}
		persistent = append(persistent, t)
	}

	s.logger.Info("loaded persisted types",
		zap.String("store", s.Name()),
		zap.String("key", s.typesKey()),
		zap.Int("mapped", len(persistent)),
	)
	return datastore.Populate(d, types, persistent)
}
