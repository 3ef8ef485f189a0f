// Package domain define contratos e tipos de domínio do gateway de inferência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Aqui ficam o payload de geração, o Outcome (resultado rotulado de um
// encaminhamento), o contrato do semáforo de admissão e os contratos de
// rate limit e de estatísticas.
package domain
