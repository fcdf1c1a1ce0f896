package openaiLLM

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestNewClient_RequiresKeys(t *testing.T) {
	if _, err := NewClient("http://localhost:9", nil); !errors.Is(err, ErrNoAPIKeys) {
		t.Fatalf("expected ErrNoAPIKeys, got %v", err)
	}
}

func TestComplete_RotatesKeyOnRateLimit(t *testing.T) {
	var mu sync.Mutex
	var authHeaders []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		attempt := len(authHeaders)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if attempt == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
			return
		}
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"pong"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", []string{"key-one", "key-two"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	answer, err := client.Complete(context.Background(), "system prompt", "ping")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "pong" {
		t.Errorf("answer got %q, want %q", answer, "pong")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(authHeaders) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(authHeaders))
	}
	if authHeaders[0] == authHeaders[1] {
		t.Errorf("rate limited attempt did not rotate the api key: %v", authHeaders)
	}
}

func TestComplete_DoesNotRetryClientErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", []string{"key-one"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if attempts != 1 {
		t.Errorf("client error was retried %d times", attempts)
	}
}
