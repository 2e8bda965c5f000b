// Package desktop exposes host-level tools: a system status snapshot
// and screen capture via whatever capture command the host provides.
package desktop

import (
	"os"
	"runtime"
	"time"

	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// Status returns a snapshot of the process and the host it runs on.
func Status() *v1.SystemStatus {
	hostname, _ := os.Hostname()
	wd, _ := os.Getwd()
	return &v1.SystemStatus{
		Hostname:   hostname,
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		NumCPU:     runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		PID:        os.Getpid(),
		WorkingDir: wd,
		Time:       time.Now().UTC(),
	}
}
