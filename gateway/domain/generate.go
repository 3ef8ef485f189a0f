package domain

import "errors"

// ErrEmptyPrompts indica um GenerateRequest sem nenhum prompt.
var ErrEmptyPrompts = errors.New("prompts must contain at least one entry")

// GenerateRequest é o payload aceito em POST /generate e repassado ao backend.
// Strings vazias são permitidas; quem decide se são válidas é o backend.
type GenerateRequest struct {
	Prompts []string `json:"prompts"`
}

func (r GenerateRequest) Validate() error {
	if len(r.Prompts) == 0 {
		return ErrEmptyPrompts
	}
	return nil
}

// PromptOutput é um par (prompt, texto gerado).
type PromptOutput struct {
	Prompt string `json:"prompt"`
	Output string `json:"output"`
}

// GenerateResponse preserva a ordem dos prompts de entrada.
type GenerateResponse struct {
	Outputs []PromptOutput `json:"outputs"`
}
