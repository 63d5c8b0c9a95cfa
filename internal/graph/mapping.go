package graph

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/graphplanner/internal/msgraph"
)

// Field names of the task list columns
const (
	FieldTaskName    = "TaskName2"
	FieldDescription = "Description"
	FieldStartDate   = "StartDate"
	FieldDueDate     = "DueDate"
	FieldStatus      = "Status"
)

// TaskFields are the columns read and written for a task, in display order
var TaskFields = []string{FieldTaskName, FieldDescription, FieldStartDate, FieldDueDate, FieldStatus}

// requiredTaskFields must be present for a mapped task to be usable
var requiredTaskFields = map[string]bool{
	FieldTaskName:  true,
	FieldStartDate: true,
	FieldDueDate:   true,
}

var dateFields = map[string]bool{
	FieldStartDate: true,
	FieldDueDate:   true,
}

// accepted layouts of date columns; SharePoint returns RFC 3339 in UTC, forms
// send datetime-local values
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// MappedTask is a Task read from a list item plus a report of the tracked
// columns that were absent or malformed.
type MappedTask struct {
	Task    Task     `json:"task"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

// Complete reports whether every tracked column was present and well-formed
func (m MappedTask) Complete() bool {
	return len(m.Missing) == 0 && len(m.Invalid) == 0
}

// Err returns a mapping error when a required column is missing or any
// column is malformed. Missing optional columns are not an error.
func (m MappedTask) Err() error {
	var problems []string
	var missingRequired []string
	for _, f := range m.Missing {
		if requiredTaskFields[f] {
			missingRequired = append(missingRequired, f)
		}
	}
	if len(missingRequired) > 0 {
		problems = append(problems, "missing "+strings.Join(missingRequired, ", "))
	}
	if len(m.Invalid) > 0 {
		problems = append(problems, "invalid "+strings.Join(m.Invalid, ", "))
	}
	if len(problems) == 0 {
		return nil
	}

	op := "map task"
	if m.Task.ID != "" {
		op = fmt.Sprintf("map task %s", m.Task.ID)
	}
	return &Error{Kind: KindMapping, Op: op, Err: errors.New(strings.Join(problems, "; "))}
}

// TaskFromFields builds a Task from the fields of the list item addressed by id
func TaskFromFields(id string, fields msgraph.FieldValueSet) MappedTask {
	m := MappedTask{Task: Task{ID: id}}

	targets := map[string]*string{
		FieldTaskName:    &m.Task.TaskName,
		FieldDescription: &m.Task.Description,
		FieldStartDate:   &m.Task.StartDate,
		FieldDueDate:     &m.Task.DueDate,
		FieldStatus:      &m.Task.Status,
	}

	for _, name := range TaskFields {
		raw, ok := fields[name]
		if !ok || raw == nil {
			m.Missing = append(m.Missing, name)
			continue
		}

		switch v := raw.(type) {
		case string:
			*targets[name] = v
			if dateFields[name] && v != "" && !isDate(v) {
				m.Invalid = append(m.Invalid, name)
			}
		case float64, bool:
			*targets[name] = fmt.Sprint(v)
			m.Invalid = append(m.Invalid, name)
		default:
			m.Invalid = append(m.Invalid, name)
		}
	}
	return m
}

// FieldsFromTask builds the column values written for a task. All tracked
// columns are always present; empty values are written as null.
func FieldsFromTask(t Task) msgraph.FieldValueSet {
	return msgraph.FieldValueSet{
		FieldTaskName:    nullable(t.TaskName),
		FieldDescription: nullable(t.Description),
		FieldStartDate:   nullable(t.StartDate),
		FieldDueDate:     nullable(t.DueDate),
		FieldStatus:      nullable(t.Status),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
