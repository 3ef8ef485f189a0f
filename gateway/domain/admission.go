package domain

import "context"

// SlotPool representa o portão de admissão: um recurso com capacidade finita
// de chamadas simultâneas ao backend.
//
// A semântica é: Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Não existe timeout próprio; quem limita o tempo da requisição é o encaminhamento.
// Ao adquirir, retorna uma função de release que devolve a vaga; chamadas extras
// ao release são ignoradas.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
