package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/graphplanner/internal/msgraph"
)

func TestTaskFromFields(t *testing.T) {
	tests := []struct {
		name        string
		fields      msgraph.FieldValueSet
		wantTask    Task
		wantMissing []string
		wantInvalid []string
		wantErr     bool
	}{
		{
			name: "complete",
			fields: msgraph.FieldValueSet{
				FieldTaskName:    "Write report",
				FieldDescription: "Q3",
				FieldStartDate:   "2024-03-11T09:00:00Z",
				FieldDueDate:     "2024-03-15T17:00:00Z",
				FieldStatus:      "Active",
				"Title":          "ignored",
				"@odata.etag":    `"1"`,
			},
			wantTask: Task{
				ID:          "7",
				TaskName:    "Write report",
				Description: "Q3",
				StartDate:   "2024-03-11T09:00:00Z",
				DueDate:     "2024-03-15T17:00:00Z",
				Status:      "Active",
			},
		},
		{
			name: "optional columns absent",
			fields: msgraph.FieldValueSet{
				FieldTaskName:  "Plan",
				FieldStartDate: "2024-03-11",
				FieldDueDate:   "2024-03-11T17:30",
			},
			wantTask:    Task{ID: "7", TaskName: "Plan", StartDate: "2024-03-11", DueDate: "2024-03-11T17:30"},
			wantMissing: []string{FieldDescription, FieldStatus},
		},
		{
			name:        "required column null",
			fields:      msgraph.FieldValueSet{FieldTaskName: nil, FieldStartDate: "2024-03-11", FieldDueDate: "2024-03-12"},
			wantTask:    Task{ID: "7", StartDate: "2024-03-11", DueDate: "2024-03-12"},
			wantMissing: []string{FieldTaskName, FieldDescription, FieldStatus},
			wantErr:     true,
		},
		{
			name: "wrong types",
			fields: msgraph.FieldValueSet{
				FieldTaskName:  float64(42),
				FieldStartDate: "2024-03-11",
				FieldDueDate:   "2024-03-12",
				FieldStatus:    map[string]any{"Value": "Active"},
			},
			wantTask:    Task{ID: "7", TaskName: "42", StartDate: "2024-03-11", DueDate: "2024-03-12"},
			wantMissing: []string{FieldDescription},
			wantInvalid: []string{FieldTaskName, FieldStatus},
			wantErr:     true,
		},
		{
			name:        "no fields",
			fields:      nil,
			wantTask:    Task{ID: "7"},
			wantMissing: TaskFields,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := TaskFromFields("7", tt.fields)
			assert.Equal(t, tt.wantTask, m.Task)
			assert.Equal(t, tt.wantMissing, m.Missing)
			assert.Equal(t, tt.wantInvalid, m.Invalid)
			if tt.wantErr {
				err := m.Err()
				require.Error(t, err)
				assert.Equal(t, KindMapping, KindOf(err))
				assert.Contains(t, err.Error(), "map task 7")
			} else {
				assert.NoError(t, m.Err())
			}
		})
	}
}

func TestFieldsFromTask(t *testing.T) {
	fields := FieldsFromTask(Task{ID: "9", TaskName: "Write report", StartDate: "2024-03-11"})

	assert.Len(t, fields, len(TaskFields))
	assert.Equal(t, "Write report", fields[FieldTaskName])
	assert.Equal(t, "2024-03-11", fields[FieldStartDate])
	assert.Nil(t, fields[FieldDescription])
	assert.Nil(t, fields[FieldDueDate])
	assert.Nil(t, fields[FieldStatus])
	assert.NotContains(t, fields, "id")
}

func TestTaskFieldsRoundTrip(t *testing.T) {
	task := Task{
		ID:          "3",
		TaskName:    "Write report",
		Description: "Q3",
		StartDate:   "2024-03-11T09:00:00Z",
		DueDate:     "2024-03-15T17:00:00Z",
		Status:      StatusOnHold,
	}
	m := TaskFromFields("3", FieldsFromTask(task))
	assert.True(t, m.Complete())
	assert.Equal(t, task, m.Task)
}

func TestTask_Validate(t *testing.T) {
	valid := Task{TaskName: "a", StartDate: "2024-03-11", DueDate: "2024-03-12"}
	assert.NoError(t, valid.Validate())

	withStatus := valid
	withStatus.Status = StatusOnHold
	assert.NoError(t, withStatus.Validate())

	badStatus := valid
	badStatus.Status = "Done"
	err := badStatus.Validate()
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
	assert.Contains(t, err.Error(), `"On Hold"`)

	err = Task{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task name is required")
	assert.Contains(t, err.Error(), "start date is required")
	assert.Contains(t, err.Error(), "due date is required")
}
