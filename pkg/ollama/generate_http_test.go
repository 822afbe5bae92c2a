package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hireloop/hireloop/pkg/ollama"
)

// writeSequence writes each object as a JSON line and flushes, simulating
// Ollama's streaming responses.
func writeSequence(w http.ResponseWriter, seq []map[string]any, delay time.Duration) {
	enc := json.NewEncoder(w)
	for i, obj := range seq {
		_ = enc.Encode(obj)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		if i < len(seq)-1 && delay > 0 {
			time.Sleep(delay)
		}
	}
}

func TestClient_GenerateText_Retries_Backoff_Succeeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			a := atomic.AddInt32(&attempts, 1)
			if a == 1 {
				http.Error(w, "temporary", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			writeSequence(w, []map[string]any{{"response": "ok", "done": true}}, 0)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := ollama.Config{
		BaseURL:                 srv.URL,
		Model:                   "m",
		Timeout:                 2 * time.Second,
		Retries:                 2,
		Backoff:                 10 * time.Millisecond,
		CircuitFailureThreshold: 10,
	}
	client, err := ollama.NewClient(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	out, err := client.GenerateText(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected success after retry, got error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if atomic.LoadInt32(&attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestClient_CircuitBreaker_Opens(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&attempts, 1)
			http.Error(w, "permanent", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := ollama.Config{
		BaseURL:                 srv.URL,
		Model:                   "m",
		Timeout:                 time.Second,
		Retries:                 0,
		Backoff:                 time.Millisecond,
		CircuitFailureThreshold: 2,
		CircuitReset:            time.Minute,
	}
	client, err := ollama.NewClient(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	ctx := context.Background()
	// first two calls fail against the server and trip the breaker
	for i := 0; i < 2; i++ {
		if _, err := client.GenerateText(ctx, "p"); err == nil {
			t.Fatalf("expected error on attempt %d", i+1)
		}
	}

	// circuit is now open: the server must not be reached again
	before := atomic.LoadInt32(&attempts)
	if _, err := client.GenerateText(ctx, "p"); err != ollama.ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != before {
		t.Fatalf("open circuit still reached the server")
	}
}
