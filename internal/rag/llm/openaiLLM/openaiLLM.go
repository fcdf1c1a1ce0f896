package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/customHttpClient"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("llm_openai")

var ErrNoAPIKeys = errors.New("no completion api keys configured")

// Client talks to an OpenAI-compatible chat completion endpoint. When several
// API keys are configured it starts on a random one and rotates to the next
// after a failed attempt, so a rate-limited key does not stall the service.
type Client struct {
	baseURL string
	model   string
	keys    []string

	mu      sync.Mutex
	current int
}

func NewClient(baseURL string, keys []string) (*Client, error) {
	if len(keys) == 0 {
		return nil, ErrNoAPIKeys
	}
	return &Client{
		baseURL: baseURL,
		model:   config.CompletionModelName,
		keys:    keys,
		current: rand.Intn(len(keys)),
	}, nil
}

func (c *Client) ModelName() string { return c.model }

func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.CompletionTimeout)
	defer cancel()

	var answer string
	operation := func() error {
		client := c.apiClient()
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Model:       c.model,
			Temperature: openai.Float(config.CompletionTemperature),
			MaxTokens:   openai.Int(config.CompletionMaxTokens),
		})
		if err != nil {
			if isRetryable(err) {
				logger.Warn("Completion attempt failed, rotating key", "error", err)
				c.rotateKey()
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("completion returned no choices"))
		}
		answer = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, backoff.WithMaxRetries(b, config.CompletionMaxRetries)); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return answer, nil
}

// apiClient builds a client for the current key. Construction is cheap in
// this SDK, so rebuilding per call keeps rotation trivial.
func (c *Client) apiClient() openai.Client {
	c.mu.Lock()
	key := c.keys[c.current]
	c.mu.Unlock()

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(customHttpClient.Pooled()),
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	return openai.NewClient(opts...)
}

func (c *Client) rotateKey() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.keys) > 1 {
		c.current = (c.current + 1) % len(c.keys)
	}
}

// isRetryable treats timeouts, rate limits and server errors as transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
