package domain

import "time"

// Metrics recebe os efeitos colaterais de observabilidade de cada /generate.
type Metrics interface {
	IncRequests()
	IncErrors()
	ObserveLatency(d time.Duration)
	SetBackendUp(up bool)
}
