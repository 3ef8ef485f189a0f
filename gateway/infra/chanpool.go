package infra

import (
	"context"
	"sync"

	"inference-gateway/gateway/domain"
)

// ChanPool é um semáforo contador baseado em channel com capacidade fixa.
//
// Goroutines bloqueadas no envio são atendidas na ordem de chegada pelo runtime,
// então nenhum waiter fica esperando para sempre enquanto houver releases.
type ChanPool struct {
	sem chan struct{}
}

var _ domain.SlotPool = (*ChanPool)(nil)

// NewChanPool cria o pool com capacidade `max`. max < 1 vira 1.
func NewChanPool(max int) *ChanPool {
	if max < 1 {
		max = 1
	}
	return &ChanPool{sem: make(chan struct{}, max)}
}

func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	// ctx já cancelado não deve disputar vaga com o select abaixo
	if ctx.Err() != nil {
		return nil, false
	}
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse retorna quantas vagas estão ocupadas agora.
func (p *ChanPool) InUse() int { return len(p.sem) }

func (p *ChanPool) Cap() int { return cap(p.sem) }
