package domain

import "fmt"

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeClientError
	OutcomeUpstreamError
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientError:
		return "client_error"
	case OutcomeUpstreamError:
		return "upstream_error"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome é o resultado rotulado de uma tentativa de encaminhamento.
//
// StatusCode guarda o status devolvido pelo backend (0 quando não houve resposta).
// Body/ContentType só são relevantes para Success e ClientError.
// Err explica UpstreamError/TransportFailure e nunca é exposto ao cliente.
type Outcome struct {
	Kind        OutcomeKind
	StatusCode  int
	Body        []byte
	ContentType string
	Err         error
}

func Success(body []byte) Outcome {
	return Outcome{Kind: OutcomeSuccess, StatusCode: 200, Body: body, ContentType: "application/json"}
}

func ClientError(status int, body []byte, contentType string) Outcome {
	return Outcome{Kind: OutcomeClientError, StatusCode: status, Body: body, ContentType: contentType}
}

func UpstreamError(status int, err error) Outcome {
	return Outcome{Kind: OutcomeUpstreamError, StatusCode: status, Err: err}
}

func TransportFailure(err error) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Err: err}
}

func (o Outcome) IsSuccess() bool { return o.Kind == OutcomeSuccess }
