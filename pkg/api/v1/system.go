package v1

import "time"

// SystemStatus is a snapshot of the host running missionctl
type SystemStatus struct {
	Hostname   string    `json:"hostname"`
	Platform   string    `json:"platform"`
	Arch       string    `json:"arch"`
	NumCPU     int       `json:"num_cpu"`
	GoVersion  string    `json:"go_version"`
	PID        int       `json:"pid"`
	WorkingDir string    `json:"working_dir"`
	Time       time.Time `json:"time"`
}

// ScreenshotResponse reports where a captured screenshot was saved
type ScreenshotResponse struct {
	Path string `json:"path"`
}
