package executor

import (
	"fmt"
	"strings"

	"github.com/missionctl/missionctl/internal/mission/models"
)

// buildTaskPrompt renders the instruction text sent to the agent
// backend. Pure: the same task and agent always produce the same prompt.
func buildTaskPrompt(task *models.Task, agent *models.Agent) string {
	lines := []string{
		fmt.Sprintf("You are %s, a %s.", agent.Name, agent.Role),
	}

	if agent.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", agent.Description))
	}
	if len(agent.Specialties) > 0 {
		lines = append(lines, fmt.Sprintf("Specialties: %s", strings.Join(agent.Specialties, ", ")))
	}

	lines = append(lines,
		"",
		"## Task",
		fmt.Sprintf("**Title:** %s", task.Title),
	)

	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("**Description:** %s", task.Description))
	}

	lines = append(lines,
		fmt.Sprintf("**Priority:** %s", task.Priority),
		"",
		"Please complete this task. Provide your work and findings.",
	)

	return strings.Join(lines, "\n")
}
