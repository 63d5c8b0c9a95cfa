package graph

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// DefaultListID is the task list used when Config.ListID is empty
const DefaultListID = "ToDoList"

// taskExpand expands the task columns of list items
var taskExpand = "fields(select=" + strings.Join(TaskFields, ",") + ")"

func (s *Service) taskList() (msgraph.ListRef, error) {
	if s.cfg.SiteID == "" {
		return msgraph.ListRef{}, invalidArgument("tasks", "task list site is not configured")
	}
	listID := s.cfg.ListID
	if listID == "" {
		listID = DefaultListID
	}
	return msgraph.ListRef{SiteID: s.cfg.SiteID, ListID: listID}, nil
}

func (s *Service) taskItem(op, id string) (msgraph.ListRef, error) {
	if strings.TrimSpace(id) == "" {
		return msgraph.ListRef{}, invalidArgument(op, "task id is required")
	}
	return s.taskList()
}

func resourceAttrs(id string) []attribute.KeyValue {
	return instrumentation.ResourceAttrs(instrumentation.ResourceListItem, id)
}

// GetTaskList returns every item of the task list with the task columns
// expanded. Continuation pages are followed.
func (s *Service) GetTaskList(ctx context.Context) ([]msgraph.ListItem, error) {
	list, err := s.taskList()
	if err != nil {
		return nil, err
	}

	var items []msgraph.ListItem
	err = s.do(ctx, instrumentation.ServiceTasks, instrumentation.OperationList, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		items, err = c.ListItems(ctx, list, taskExpand)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []msgraph.ListItem{}
	}
	return items, nil
}

// ListTasks returns the task list mapped to tasks
func (s *Service) ListTasks(ctx context.Context) ([]MappedTask, error) {
	items, err := s.GetTaskList(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]MappedTask, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, TaskFromFields(item.ID, item.Fields))
	}
	return tasks, nil
}

// CreateTask adds a list item for task. The returned item carries the
// server-assigned id; task.ID is ignored.
func (s *Service) CreateTask(ctx context.Context, task Task) (*msgraph.ListItem, error) {
	list, err := s.taskList()
	if err != nil {
		return nil, err
	}

	var created *msgraph.ListItem
	err = s.do(ctx, instrumentation.ServiceTasks, instrumentation.OperationCreate, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		created, err = c.CreateListItem(ctx, list, FieldsFromTask(task))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetTask reads the item addressed by id. The returned task's ID is id.
func (s *Service) GetTask(ctx context.Context, id string) (*MappedTask, error) {
	list, err := s.taskItem("tasks.get", id)
	if err != nil {
		return nil, err
	}

	var item *msgraph.ListItem
	err = s.do(ctx, instrumentation.ServiceTasks, instrumentation.OperationGet, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		item, err = c.GetListItem(ctx, list, id, taskExpand)
		return err
	}, resourceAttrs(id)...)
	if err != nil {
		return nil, err
	}

	mapped := TaskFromFields(id, item.Fields)
	return &mapped, nil
}

// UpdateTask replaces all task columns of the item addressed by task.ID and
// returns the column values the server reports.
func (s *Service) UpdateTask(ctx context.Context, task Task) (msgraph.FieldValueSet, error) {
	list, err := s.taskItem("tasks.update", task.ID)
	if err != nil {
		return nil, err
	}

	var fields msgraph.FieldValueSet
	err = s.do(ctx, instrumentation.ServiceTasks, instrumentation.OperationUpdate, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		fields, err = c.UpdateListItemFields(ctx, list, task.ID, FieldsFromTask(task))
		return err
	}, resourceAttrs(task.ID)...)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// DeleteTask deletes the item addressed by id
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	list, err := s.taskItem("tasks.delete", id)
	if err != nil {
		return err
	}

	return s.do(ctx, instrumentation.ServiceTasks, instrumentation.OperationDelete, func(ctx context.Context, c *msgraph.Client) error {
		return c.DeleteListItem(ctx, list, id)
	}, resourceAttrs(id)...)
}
