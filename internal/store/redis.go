package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/logwarden/internal/ban"
)

// DefaultKeyPrefix namespaces the keys written by RedisStore.
const DefaultKeyPrefix = "logwarden"

// RedisStore keeps ban records in Redis:
//
//	<prefix>:bans         SET of banned addresses
//	<prefix>:ban:<addr>   HASH {path, pattern, banned_at}
//
// Every write touches both keys inside MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock overrides the clock used for banned_at timestamps.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// OpenRedis connects to the Redis server at url (redis:// or rediss://) and
// verifies the connection with PING.
func OpenRedis(ctx context.Context, url, prefix string, opts ...RedisOption) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedis(client, prefix, opts...), nil
}

// NewRedis wraps an existing client. An empty prefix means DefaultKeyPrefix.
func NewRedis(client *redis.Client, prefix string, opts ...RedisOption) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	s := &RedisStore{client: client, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) setKey() string {
	return s.prefix + ":bans"
}

func (s *RedisStore) recordKey(address string) string {
	return s.prefix + ":ban:" + address
}

// Exists reports whether a record is held for address.
func (s *RedisStore) Exists(ctx context.Context, address string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.setKey(), address).Result()
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return ok, nil
}

// Save stores rec, replacing any record already held for rec.Address.
func (s *RedisStore) Save(ctx context.Context, rec ban.Record) error {
	bannedAt := rec.BannedAt
	if bannedAt.IsZero() {
		bannedAt = s.now()
	}
	key := s.recordKey(rec.Address)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"path", rec.Path,
			"pattern", rec.Pattern,
			"banned_at", strconv.FormatInt(bannedAt.Unix(), 10),
		)
		pipe.SAdd(ctx, s.setKey(), rec.Address)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save ban: %w", err)
	}
	return nil
}

// Delete removes the record for address. Deleting an unknown address is not
// an error.
func (s *RedisStore) Delete(ctx context.Context, address string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(address))
		pipe.SRem(ctx, s.setKey(), address)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	return nil
}

// Get returns the record for address, or ban.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, address string) (ban.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.recordKey(address)).Result()
	if err != nil {
		return ban.Record{}, fmt.Errorf("get ban: %w", err)
	}
	if len(fields) == 0 {
		return ban.Record{}, ban.ErrNotFound
	}
	return recordFromHash(address, fields), nil
}

// List returns every record ordered by address.
func (s *RedisStore) List(ctx context.Context) ([]ban.Record, error) {
	addrs, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	sort.Strings(addrs)

	cmds := make([]*redis.MapStringStringCmd, len(addrs))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, addr := range addrs {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(addr))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list bans: %w", err)
	}

	records := make([]ban.Record, 0, len(addrs))
	for i, addr := range addrs {
		records = append(records, recordFromHash(addr, cmds[i].Val()))
	}
	return records, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func recordFromHash(address string, fields map[string]string) ban.Record {
	rec := ban.Record{
		Address: address,
		Path:    fields["path"],
		Pattern: fields["pattern"],
	}
	if ts, err := strconv.ParseInt(fields["banned_at"], 10, 64); err == nil && ts > 0 {
		rec.BannedAt = time.Unix(ts, 0).UTC()
	}
	return rec
}
