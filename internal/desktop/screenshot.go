package desktop

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// captureTimeout bounds each individual capture attempt.
const captureTimeout = 5 * time.Second

// captureCommand is one way of writing the screen to a PNG file.
type captureCommand struct {
	name string
	args func(path string) []string
}

// captureCommands returns the capture tools to try for an OS, most
// reliable first.
func captureCommands(goos string) []captureCommand {
	switch goos {
	case "darwin":
		return []captureCommand{
			{name: "screencapture", args: func(p string) []string { return []string{"-x", p} }},
		}
	case "linux":
		return []captureCommand{
			{name: "gnome-screenshot", args: func(p string) []string { return []string{"-f", p} }},
			{name: "scrot", args: func(p string) []string { return []string{p} }},
			{name: "import", args: func(p string) []string { return []string{"-window", "root", p} }},
		}
	default:
		return nil
	}
}

// CaptureScreenshot writes a PNG of the screen into dir and returns the
// saved path. Capture tools are tried in order until one both exits
// cleanly and produces the file; when every attempt fails, the error
// carries each tool's failure joined with " | ".
func CaptureScreenshot(ctx context.Context, dir string) (string, error) {
	commands := captureCommands(runtime.GOOS)
	if len(commands) == 0 {
		return "", fmt.Errorf("screen capture not supported on %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	filename := "screenshot_" + time.Now().UTC().Format("20060102_150405") + ".png"
	path := filepath.Join(dir, filename)

	var attempts []string
	for _, cc := range commands {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := runCapture(ctx, cc, path); err != nil {
			attempts = append(attempts, err.Error())
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("all capture methods failed: %s", strings.Join(attempts, " | "))
}

func runCapture(ctx context.Context, cc captureCommand, path string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, cc.name, cc.args(path)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %v", cc.name, err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s did not create file", cc.name)
	}
	return nil
}
