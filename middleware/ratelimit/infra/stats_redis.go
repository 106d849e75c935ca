package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"whitepaper-guard/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

const (
	fieldAllowed = "allowed"
	fieldDenied  = "denied"
)

// RedisStatsStore grava as decisões de admissão em hashes do Redis.
//
// Layout (prefix padrão "analyzer:stats"):
//
//	<prefix>:total              allowed|denied, cumulativo
//	<prefix>:minute:YYYYMMDDhhmm allowed|denied, expira com ttl
//	<prefix>:route              <rota>:allowed|<rota>:denied
//	<prefix>:key:<id>           allowed|denied, só com trackKeys
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// total e route são cumulativos; ttl vale para minute e key.
	ttl       time.Duration
	bucket    string // "minute" (padrão) ou "none"
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "analyzer:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) totalKey() string { return s.prefix + ":total" }
func (s *RedisStatsStore) routeKey() string { return s.prefix + ":route" }
func (s *RedisStatsStore) idKey(id string) string {
	return s.prefix + ":key:" + id
}
func (s *RedisStatsStore) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func outcome(allowed bool) string {
	if allowed {
		return fieldAllowed
	}
	return fieldDenied
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := outcome(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	if s.bucket == "minute" {
		k := s.minuteKey(at)
		pipe.HIncrBy(ctx, k, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
	}
	if route := strings.TrimSpace(ev.Route); route != "" {
		pipe.HIncrBy(ctx, s.routeKey(), route+":"+field, 1)
	}
	if id := strings.TrimSpace(string(ev.Key)); s.trackKeys && id != "" {
		k := s.idKey(id)
		pipe.HIncrBy(ctx, k, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot lê total, rotas e (com trackKeys) as chaves ainda vivas.
// Os contadores por chave são varridos com SCAN; não é uma foto atômica.
func (s *RedisStatsStore) Snapshot(ctx context.Context) (StatsSnapshot, error) {
	out := StatsSnapshot{ByRoute: make(map[string]Counters)}

	total, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return out, err
	}
	out.Total = countersFrom(total)

	routes, err := s.rdb.HGetAll(ctx, s.routeKey()).Result()
	if err != nil {
		return out, err
	}
	for f, v := range routes {
		i := strings.LastIndexByte(f, ':')
		if i <= 0 {
			continue
		}
		c := out.ByRoute[f[:i]]
		c.set(f[i+1:], v)
		out.ByRoute[f[:i]] = c
	}

	if !s.trackKeys {
		return out, nil
	}
	out.ByKey = make(map[string]Counters)
	base := s.idKey("")
	iter := s.rdb.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		vals, err := s.rdb.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return out, err
		}
		out.ByKey[strings.TrimPrefix(iter.Val(), base)] = countersFrom(vals)
	}
	return out, iter.Err()
}

func countersFrom(h map[string]string) Counters {
	var c Counters
	for f, v := range h {
		c.set(f, v)
	}
	return c
}
