package infra

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"whitepaper-guard/middleware/ratelimit/domain"
)

// MemoryWindowStore guarda uma janela fixa por chave, em memória, com limpeza
// periódica das janelas expiradas.
//
// O mapa é dividido em shards, cada um com seu próprio mutex: chaves diferentes
// normalmente não disputam o mesmo lock, e toda leitura-modificação-escrita de
// uma chave acontece sob o lock do seu shard (inclusive a limpeza).
//
// Limitação: o estado é por processo. Com N instâncias, o limite efetivo vira
// limit × N. Para isso existe o RedisWindowStore.
type MemoryWindowStore struct {
	shards     []*windowShard
	sweepEvery time.Duration
	now        func() time.Time
}

type windowShard struct {
	mu      sync.Mutex
	windows map[domain.Key]*domain.Window
}

type MemoryWindowOption func(*MemoryWindowStore)

// WithSweepEvery define o intervalo do janitor. <= 0 desliga o janitor.
func WithSweepEvery(d time.Duration) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.sweepEvery = d }
}

func WithShards(n int) MemoryWindowOption {
	return func(s *MemoryWindowStore) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

func WithClock(now func() time.Time) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.now = now }
}

func NewMemoryWindowStore(opts ...MemoryWindowOption) *MemoryWindowStore {
	s := &MemoryWindowStore{
		shards:     newShards(32),
		sweepEvery: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*windowShard {
	shards := make([]*windowShard, n)
	for i := range shards {
		shards[i] = &windowShard{windows: make(map[domain.Key]*domain.Window)}
	}
	return shards
}

func (s *MemoryWindowStore) SweepEvery() time.Duration { return s.sweepEvery }

func (s *MemoryWindowStore) shard(key domain.Key) *windowShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Hit implementa domain.WindowStore. Nunca faz I/O e nunca falha.
func (s *MemoryWindowStore) Hit(_ context.Context, key domain.Key, window time.Duration) (domain.Window, error) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || w.Expired(now) {
		w = &domain.Window{ResetAt: now.Add(window)}
		sh.windows[key] = w
	}
	w.Count++
	return *w, nil
}

// Sweep remove as janelas cujo ResetAt já passou e devolve quantas removeu.
func (s *MemoryWindowStore) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, w := range sh.windows {
			if w.Expired(now) {
				delete(sh.windows, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len devolve o número de janelas vivas no momento.
func (s *MemoryWindowStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

// StartJanitor inicia uma goroutine que remove janelas expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryWindowStore) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
