// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - ChanPool: semáforo de admissão baseado em channel
//   - BackendClient: cliente HTTP com pool de conexões para o backend de inferência
//   - PromMetrics: contadores e histograma Prometheus
//   - LimiterStore: token bucket por chave usando golang.org/x/time/rate
//   - RedisStatsStore / MemoryStatsStore: estatísticas por resultado
package infra
