package application

import (
	"context"

	"inference-gateway/gateway/domain"
)

// WithSlot executa fn segurando uma vaga do pool.
//
// A vaga é devolvida num defer, então o release acontece no retorno normal,
// em panic e quando o ctx é cancelado no meio de fn. Se o ctx encerrar antes de
// conseguir a vaga, fn não roda e o erro do ctx é devolvido.
// Pool nil significa sem limite.
func WithSlot[T any](ctx context.Context, pool domain.SlotPool, fn func(context.Context) T) (T, error) {
	if pool == nil {
		return fn(ctx), nil
	}

	release, ok := pool.Acquire(ctx)
	if !ok {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, context.Canceled
	}
	defer release()

	return fn(ctx), nil
}
