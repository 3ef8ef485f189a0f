// Package application contém os casos de uso do gateway: admissão com escopo,
// encaminhamento com contabilidade de métricas, health check do backend e a
// decisão de rate limit.
//
// Ele depende apenas do pacote domain e não conhece net/http.
package application
