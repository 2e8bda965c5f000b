package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ScriptedRunner plays a fixed chunk script with an optional inter-chunk
// delay. It is the default backend so the system runs end to end without
// any external model dependency.
type ScriptedRunner struct {
	script   []Chunk
	delay    time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewScriptedRunner creates a scripted runner. A nil script plays the
// default script derived from the prompt at run time.
func NewScriptedRunner(script []Chunk, delay time.Duration) *ScriptedRunner {
	return &ScriptedRunner{
		script: script,
		delay:  delay,
		stop:   make(chan struct{}),
	}
}

// DefaultScript returns the chunk sequence played when no explicit script
// is configured: a short acknowledgement, one simulated tool round trip,
// a worked answer echoing the prompt, and a done marker.
func DefaultScript(prompt string) []Chunk {
	firstLine := prompt
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	return []Chunk{
		{Type: ChunkTypeMessage, Content: "Picking up the task now."},
		{Type: ChunkTypeToolUse, Metadata: map[string]string{"name": "notes"}},
		{Type: ChunkTypeToolResult, Content: "notes captured"},
		{Type: ChunkTypeMessage, Content: fmt.Sprintf("Finished working through the request (%s). Findings are summarized above.", strings.TrimSpace(firstLine))},
		{Type: ChunkTypeDone},
	}
}

// Run plays the script. Each chunk waits out the configured delay first,
// so cancellation between chunks is observable.
func (r *ScriptedRunner) Run(ctx context.Context, prompt string) (<-chan StreamItem, error) {
	script := r.script
	if len(script) == 0 {
		script = DefaultScript(prompt)
	}

	out := make(chan StreamItem)
	go func() {
		defer close(out)
		for i := range script {
			if r.delay > 0 {
				select {
				case <-time.After(r.delay):
				case <-ctx.Done():
					return
				case <-r.stop:
					return
				}
			}
			chunk := script[i]
			select {
			case out <- StreamItem{Chunk: &chunk}:
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			}
		}
	}()
	return out, nil
}

// Stop ends the playback before the next chunk is emitted.
func (r *ScriptedRunner) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}
