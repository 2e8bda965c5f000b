package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
)

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is one NDJSON line of the /api/generate stream.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// OllamaRunner streams completions from a local Ollama daemon.
type OllamaRunner struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewOllamaRunner creates a runner against the given Ollama host.
// The client carries no global timeout: generations stream for as long as
// the model keeps producing, and cancellation goes through the context.
func NewOllamaRunner(host, model string, log *logger.Logger) *OllamaRunner {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &OllamaRunner{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{},
		logger:     log.WithFields(zap.String("component", "ollama-runner")),
	}
}

// Run starts a streaming generation and returns the chunk stream.
func (r *OllamaRunner) Run(ctx context.Context, prompt string) (<-chan StreamItem, error) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	body, err := json.Marshal(generateRequest{Model: r.model, Prompt: prompt, Stream: true})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, r.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to reach ollama at %s: %w", r.host, err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	out := make(chan StreamItem)
	go r.readStream(runCtx, resp.Body, out)
	return out, nil
}

func (r *OllamaRunner) readStream(ctx context.Context, body io.ReadCloser, out chan<- StreamItem) {
	defer close(out)
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			r.logger.Warn("failed to parse ollama response line", zap.Error(err))
			continue
		}

		if chunk.Error != "" {
			r.emit(ctx, out, StreamItem{Chunk: &Chunk{Type: ChunkTypeError, Content: chunk.Error}})
			return
		}
		if chunk.Response != "" {
			if !r.emit(ctx, out, StreamItem{Chunk: &Chunk{Type: ChunkTypeMessage, Content: chunk.Response}}) {
				return
			}
		}
		if chunk.Done {
			r.emit(ctx, out, StreamItem{Chunk: &Chunk{Type: ChunkTypeDone}})
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		r.emit(ctx, out, StreamItem{Err: fmt.Errorf("ollama stream read failed: %w", err)})
	}
}

func (r *OllamaRunner) emit(ctx context.Context, out chan<- StreamItem, item StreamItem) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop cancels the in-flight request, if any.
func (r *OllamaRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}
