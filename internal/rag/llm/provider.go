package llm

import "context"

// Provider produces a single chat completion from a system instruction and a
// user prompt. Implementations own their retry and timeout policy.
type Provider interface {
	Complete(ctx context.Context, system string, user string) (string, error)
	ModelName() string
}
