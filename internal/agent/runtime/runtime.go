// Package runtime defines the execution backends that stream task output.
// A Runner turns one prompt into a stream of chunks; the orchestrator owns
// classification, persistence and fan-out of those chunks.
package runtime

import "context"

// ChunkType classifies a single unit of streamed runner output.
type ChunkType string

const (
	ChunkTypeMessage    ChunkType = "message"
	ChunkTypeToolUse    ChunkType = "tool_use"
	ChunkTypeToolResult ChunkType = "tool_result"
	ChunkTypeError      ChunkType = "error"
	ChunkTypeDone       ChunkType = "done"
)

// Chunk is one unit of streamed output from a runner.
type Chunk struct {
	Type     ChunkType
	Content  string
	Metadata map[string]string
}

// ToolName returns the tool name carried in the chunk metadata,
// or "unknown" when the runner did not include one.
func (c *Chunk) ToolName() string {
	if name, ok := c.Metadata["name"]; ok && name != "" {
		return name
	}
	return "unknown"
}

// StreamItem carries either a chunk or a pull fault from the backend.
// Exactly one of the fields is set.
type StreamItem struct {
	Chunk *Chunk
	Err   error
}

// Runner executes a single prompt and streams the resulting chunks.
// The returned channel is closed when the stream ends, whether or not a
// done chunk was seen. Stop asks the backend to abort the in-flight run;
// it is best-effort and safe to call concurrently with an active stream.
type Runner interface {
	Run(ctx context.Context, prompt string) (<-chan StreamItem, error)
	Stop(ctx context.Context) error
}
