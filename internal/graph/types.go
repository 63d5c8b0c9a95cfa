package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Task status values offered to users. The remote list accepts any string.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusOnHold   = "On Hold"
)

// Statuses lists the known task statuses in display order
var Statuses = []string{StatusActive, StatusInactive, StatusOnHold}

// Task is a to-do record stored as an item of the task list.
// ID is empty until the item exists remotely.
type Task struct {
	ID          string `json:"id,omitempty"`
	TaskName    string `json:"taskName"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status,omitempty"`
}

// Validate checks the fields a task form requires before create or update.
// The Service does not call it; the remote list is the authority.
func (t Task) Validate() error {
	var problems []string
	if strings.TrimSpace(t.TaskName) == "" {
		problems = append(problems, "task name is required")
	}
	if strings.TrimSpace(t.StartDate) == "" {
		problems = append(problems, "start date is required")
	}
	if strings.TrimSpace(t.DueDate) == "" {
		problems = append(problems, "due date is required")
	}
	if t.Status != "" && !isKnownStatus(t.Status) {
		problems = append(problems, fmt.Sprintf("status must be one of %s", strings.Join(quoted(Statuses), ", ")))
	}
	if len(problems) == 0 {
		return nil
	}
	return &Error{Kind: KindInvalidArgument, Op: "validate task", Err: errors.New(strings.Join(problems, "; "))}
}

func isKnownStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func quoted(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
