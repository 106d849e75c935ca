package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"whitepaper-guard/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// INCR e PEXPIRE no mesmo script: o incremento e a criação da janela são
// atômicos para todas as instâncias que compartilham o Redis.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisWindowStore é a versão compartilhada do MemoryWindowStore: um contador
// por chave no Redis, com TTL igual à janela. A expiração fica a cargo do
// próprio Redis, então não existe janitor.
type RedisWindowStore struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisWindowStore(rdb redis.Scripter, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		prefix: "analyzer:rate",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.WindowStore.
func (s *RedisWindowStore) Hit(ctx context.Context, key domain.Key, window time.Duration) (domain.Window, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 1
	}

	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.prefix + ":" + string(key)}, ms).Int64Slice()
	if err != nil {
		return domain.Window{}, fmt.Errorf("redis fixed window: %w", err)
	}
	if len(res) != 2 {
		return domain.Window{}, fmt.Errorf("redis fixed window: unexpected reply %v", res)
	}

	return domain.Window{
		Count:   int(res[0]),
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
