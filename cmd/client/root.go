package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inference-gateway/gateway/domain"

	"github.com/spf13/cobra"
)

var defaultPrompts = []string{
	"1 + 1 equals:",
	"The capital of Japan is",
	"Hello, what is your name?",
	"Hello, what is my name?",
	"Hello, where are you from?",
	"500 + 500 = ?",
	"the capital of China is",
	"the capital of USA is",
}

// statusError indica uma resposta não-200 do gateway.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("request failed with status code: %d", e.code)
}

func newRootCmd() *cobra.Command {
	var (
		url     string
		prompts []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "client",
		Short:         "Send a batch of prompts to the inference gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(prompts) == 0 {
				prompts = defaultPrompts
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, http.DefaultClient, url, prompts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8081/generate", "gateway /generate endpoint")
	cmd.Flags().StringArrayVarP(&prompts, "prompt", "p", nil, "prompt to send (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "overall request timeout")
	return cmd
}

func run(ctx context.Context, hc *http.Client, url string, prompts []string, out io.Writer) error {
	payload, err := json.Marshal(domain.GenerateRequest{Prompts: prompts})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(out, "Request failed with status code:", resp.StatusCode)
		fmt.Fprintln(out, string(body))
		return statusError{code: resp.StatusCode}
	}

	var data domain.GenerateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	rule := strings.Repeat("-", 70)
	for _, item := range data.Outputs {
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "Prompt: %s\n\n", item.Prompt)
		fmt.Fprintf(out, "Output: %s\n\n", item.Output)
	}
	return nil
}
