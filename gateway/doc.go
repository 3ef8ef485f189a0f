// Package gateway fornece os adapters HTTP (net/http) do gateway de inferência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão, encaminhamento, health, rate limit)
//   - infra: implementações concretas (semáforo, cliente HTTP do backend, Prometheus, Redis)
//   - gateway (este pacote): rotas, validação do payload e tradução de Outcome para status/corpo
//
// Fluxo de POST /generate:
//
//  1. Valida o JSON {"prompts": [...]} (422 se inválido)
//  2. Rate limit opcional por cliente (429)
//  3. ForwardService: conta, espera vaga, encaminha, registra latência e erro
//  4. Traduz o Outcome: 200 / status do backend / 502 / 500
package gateway
