package infra

import (
	"context"

	"whitepaper-guard/middleware/ratelimit/domain"
)

// chanPool é um semáforo baseado em channel bufferizado.
type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool com capacidade max (max > 0).
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}

	var released bool
	return func() {
		if released {
			return
		}
		released = true
		<-p.sem
	}, true
}
