package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/common/config"
	"github.com/missionctl/missionctl/internal/common/logger"
)

func collectItems(t *testing.T, stream <-chan StreamItem, timeout time.Duration) []StreamItem {
	t.Helper()
	var items []StreamItem
	deadline := time.After(timeout)
	for {
		select {
		case item, ok := <-stream:
			if !ok {
				return items
			}
			items = append(items, item)
		case <-deadline:
			t.Fatalf("timed out collecting stream items, got %d so far", len(items))
		}
	}
}

func TestChunkToolName(t *testing.T) {
	withName := &Chunk{Type: ChunkTypeToolUse, Metadata: map[string]string{"name": "search"}}
	if got := withName.ToolName(); got != "search" {
		t.Errorf("expected 'search', got %q", got)
	}

	empty := &Chunk{Type: ChunkTypeToolUse, Metadata: map[string]string{"name": ""}}
	if got := empty.ToolName(); got != "unknown" {
		t.Errorf("expected 'unknown' for empty name, got %q", got)
	}

	missing := &Chunk{Type: ChunkTypeToolUse}
	if got := missing.ToolName(); got != "unknown" {
		t.Errorf("expected 'unknown' for missing metadata, got %q", got)
	}
}

func TestDerive(t *testing.T) {
	base := Settings{
		Backend:         BackendScripted,
		Model:           "llama3",
		AnthropicAPIKey: "anthropic-key",
		OpenAIAPIKey:    "openai-key",
		OllamaHost:      "http://localhost:11434",
	}

	derived := Derive(base, BackendOllama)
	if derived.Backend != BackendOllama {
		t.Errorf("expected backend replaced, got %q", derived.Backend)
	}
	if derived.AnthropicAPIKey != "anthropic-key" || derived.OpenAIAPIKey != "openai-key" {
		t.Error("expected credentials to be shared")
	}
	if derived.Model != "llama3" || derived.OllamaHost != "http://localhost:11434" {
		t.Error("expected model and host to be shared")
	}

	// Base is untouched.
	if base.Backend != BackendScripted {
		t.Errorf("expected base backend unchanged, got %q", base.Backend)
	}

	same := Derive(base, "")
	if same.Backend != BackendScripted {
		t.Errorf("expected empty backend to keep base, got %q", same.Backend)
	}
}

func TestScriptedRunnerPlaysDefaultScript(t *testing.T) {
	runner := NewScriptedRunner(nil, 0)
	stream, err := runner.Run(context.Background(), "Summarize the weekly numbers")
	if err != nil {
		t.Fatalf("failed to start runner: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	if len(items) == 0 {
		t.Fatal("expected chunks from the default script")
	}

	last := items[len(items)-1]
	if last.Chunk == nil || last.Chunk.Type != ChunkTypeDone {
		t.Errorf("expected final chunk to be done, got %+v", last)
	}

	var sawToolUse, sawToolResult, sawMessage bool
	for _, item := range items {
		if item.Err != nil {
			t.Fatalf("unexpected stream error: %v", item.Err)
		}
		switch item.Chunk.Type {
		case ChunkTypeMessage:
			sawMessage = true
		case ChunkTypeToolUse:
			sawToolUse = true
			if item.Chunk.ToolName() == "unknown" {
				t.Error("expected tool_use chunk to carry a tool name")
			}
		case ChunkTypeToolResult:
			sawToolResult = true
		}
	}
	if !sawMessage || !sawToolUse || !sawToolResult {
		t.Errorf("expected message, tool_use and tool_result chunks, got %+v", items)
	}
}

func TestScriptedRunnerPlaysCustomScript(t *testing.T) {
	script := []Chunk{
		{Type: ChunkTypeMessage, Content: "only line"},
		{Type: ChunkTypeDone},
	}
	runner := NewScriptedRunner(script, 0)
	stream, err := runner.Run(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("failed to start runner: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	if len(items) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(items))
	}
	if items[0].Chunk.Content != "only line" {
		t.Errorf("unexpected first chunk: %+v", items[0].Chunk)
	}
}

func TestScriptedRunnerStopEndsPlayback(t *testing.T) {
	runner := NewScriptedRunner(nil, 50*time.Millisecond)
	stream, err := runner.Run(context.Background(), "long running work")
	if err != nil {
		t.Fatalf("failed to start runner: %v", err)
	}

	first, ok := <-stream
	if !ok {
		t.Fatal("expected at least one chunk before stop")
	}
	if first.Chunk == nil {
		t.Fatalf("expected a chunk, got %+v", first)
	}

	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("failed to stop runner: %v", err)
	}
	// Stop is idempotent.
	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	items := collectItems(t, stream, 2*time.Second)
	for _, item := range items {
		if item.Chunk != nil && item.Chunk.Type == ChunkTypeDone {
			t.Error("expected playback to end before the done chunk")
		}
	}
}

func TestScriptedRunnerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewScriptedRunner(nil, 50*time.Millisecond)
	stream, err := runner.Run(ctx, "work")
	if err != nil {
		t.Fatalf("failed to start runner: %v", err)
	}

	cancel()
	items := collectItems(t, stream, 2*time.Second)
	if len(items) >= 5 {
		t.Errorf("expected cancellation to cut the script short, got %d chunks", len(items))
	}
}

func TestProviderSelectsBackend(t *testing.T) {
	provider := NewProvider(config.AgentsConfig{
		DefaultBackend: BackendScripted,
		OllamaHost:     "http://localhost:11434",
	}, logger.Default())

	runner, err := provider.RunnerFor("")
	if err != nil {
		t.Fatalf("expected default backend runner: %v", err)
	}
	if _, ok := runner.(*ScriptedRunner); !ok {
		t.Errorf("expected scripted runner, got %T", runner)
	}

	runner, err = provider.RunnerFor(BackendOllama)
	if err != nil {
		t.Fatalf("expected ollama runner: %v", err)
	}
	if _, ok := runner.(*OllamaRunner); !ok {
		t.Errorf("expected ollama runner, got %T", runner)
	}

	if _, err := provider.RunnerFor("teleporter"); err == nil {
		t.Error("expected error for unknown backend")
	}
}
