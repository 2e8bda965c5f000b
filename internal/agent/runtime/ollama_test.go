package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/common/logger"
)

func newGenerateServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode generate request: %v", err)
		}
		if !req.Stream {
			t.Error("expected a streaming generate request")
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			fmt.Fprintln(w, line)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
}

func TestOllamaRunnerStreamsChunks(t *testing.T) {
	srv := newGenerateServer(t, []string{
		`{"response":"Hello ","done":false}`,
		`{"response":"world.","done":false}`,
		"",
		`{"done":true}`,
	})
	defer srv.Close()

	runner := NewOllamaRunner(srv.URL, "llama3", logger.Default())
	stream, err := runner.Run(context.Background(), "Say hello")
	if err != nil {
		t.Fatalf("failed to start generation: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	if len(items) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(items), items)
	}
	if items[0].Chunk.Type != ChunkTypeMessage || items[0].Chunk.Content != "Hello " {
		t.Errorf("unexpected first chunk: %+v", items[0].Chunk)
	}
	if items[1].Chunk.Type != ChunkTypeMessage || items[1].Chunk.Content != "world." {
		t.Errorf("unexpected second chunk: %+v", items[1].Chunk)
	}
	if items[2].Chunk.Type != ChunkTypeDone {
		t.Errorf("expected done chunk, got %+v", items[2].Chunk)
	}
}

func TestOllamaRunnerSkipsMalformedLines(t *testing.T) {
	srv := newGenerateServer(t, []string{
		`not json`,
		`{"response":"ok","done":false}`,
		`{"done":true}`,
	})
	defer srv.Close()

	runner := NewOllamaRunner(srv.URL, "llama3", logger.Default())
	stream, err := runner.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("failed to start generation: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	if len(items) != 2 {
		t.Fatalf("expected malformed line to be skipped, got %d chunks", len(items))
	}
	if items[0].Chunk.Content != "ok" {
		t.Errorf("unexpected chunk: %+v", items[0].Chunk)
	}
}

func TestOllamaRunnerMapsErrorLines(t *testing.T) {
	srv := newGenerateServer(t, []string{
		`{"error":"model 'llama3' not found"}`,
	})
	defer srv.Close()

	runner := NewOllamaRunner(srv.URL, "llama3", logger.Default())
	stream, err := runner.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("failed to start generation: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	if len(items) != 1 {
		t.Fatalf("expected a single error chunk, got %d", len(items))
	}
	if items[0].Chunk.Type != ChunkTypeError {
		t.Errorf("expected error chunk, got %+v", items[0].Chunk)
	}
	if !strings.Contains(items[0].Chunk.Content, "not found") {
		t.Errorf("expected error content preserved, got %q", items[0].Chunk.Content)
	}
}

func TestOllamaRunnerReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	runner := NewOllamaRunner(srv.URL, "llama3", logger.Default())
	if _, err := runner.Run(context.Background(), "prompt"); err == nil {
		t.Fatal("expected an error for a non-200 response")
	} else if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestOllamaRunnerStopCancelsGeneration(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	runner := NewOllamaRunner(srv.URL, "llama3", logger.Default())
	stream, err := runner.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("failed to start generation: %v", err)
	}

	first, ok := <-stream
	if !ok || first.Chunk == nil || first.Chunk.Content != "partial" {
		t.Fatalf("expected the partial chunk first, got %+v", first)
	}

	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("failed to stop runner: %v", err)
	}

	select {
	case _, open := <-stream:
		if open {
			// One buffered read error may surface before the close.
			if _, stillOpen := <-stream; stillOpen {
				t.Fatal("expected stream to close after stop")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after stop")
	}
}

func TestOllamaRunnerDefaultsHost(t *testing.T) {
	runner := NewOllamaRunner("", "llama3", logger.Default())
	if runner.host != "http://localhost:11434" {
		t.Errorf("unexpected default host: %q", runner.host)
	}

	trimmed := NewOllamaRunner("http://ollama.internal:11434/", "llama3", logger.Default())
	if trimmed.host != "http://ollama.internal:11434" {
		t.Errorf("expected trailing slash trimmed, got %q", trimmed.host)
	}
}
