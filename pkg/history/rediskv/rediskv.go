// Package rediskv is a history.Store backed by Redis. Entries are JSON
// strings under a namespace prefix; listing uses SCAN MATCH.
package rediskv

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

// DefaultNamespace prefixes every key written by the store.
const DefaultNamespace = "catalogsync:history:"

const scanCount = 500

// Store is a Redis-backed history store.
type Store struct {
	rdb redis.UniversalClient
	ns  string
}

var _ history.Store = (*Store)(nil)

// Connect parses a redis:// URL, connects and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.NewConfigError("redis", "invalid url", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.WrapAPI("redis", 0, err)
	}
	return rdb, nil
}

// New wraps a client. An empty namespace selects DefaultNamespace.
func New(rdb redis.UniversalClient, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{rdb: rdb, ns: namespace}
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, key string) (*history.Entry, error) {
	data, err := s.rdb.Get(ctx, s.ns+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.NewNotFoundError("history entry", key)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", "history", key, err)
	}
	var e history.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.WrapParse("json", key, err)
	}
	return &e, nil
}

// Put implements history.Store.
func (s *Store) Put(ctx context.Context, key string, entry history.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapParse("json", key, err)
	}
	return errors.WrapResource("create", "history", key, s.rdb.Set(ctx, s.ns+key, data, 0).Err())
}

// Delete implements history.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	return errors.WrapResource("delete", "history", key, s.rdb.Del(ctx, s.ns+key).Err())
}

// List implements history.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(s.ns+prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.ns))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.WrapResource("list", "history", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
