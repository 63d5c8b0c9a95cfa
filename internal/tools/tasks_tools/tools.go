package tasks_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/batch"
	"github.com/teemow/graphplanner/internal/tools/common"
)

const accountDescription = "Account name (default: the configured account). Used to manage multiple Microsoft accounts."

// RegisterTasksTools registers all task list tools with the MCP server.
// Write tools are only registered when readOnly is false.
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("tasks_list",
		mcp.WithDescription("List all tasks of the configured SharePoint task list. Each entry reports columns that were missing or malformed."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithService("tasks_list",
		instrumentation.ServiceTasks, instrumentation.OperationList, sc, handleListTasks(sc)))

	getTool := mcp.NewTool("tasks_get",
		mcp.WithDescription("Get one or more tasks by list item id"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to retrieve"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithService("tasks_get",
		instrumentation.ServiceTasks, instrumentation.OperationGet, sc, handleGetTasks(sc)))

	if readOnly {
		return nil
	}

	taskFieldOptions := func(idRequired bool) []mcp.ToolOption {
		opts := []mcp.ToolOption{
			mcp.WithString("account",
				mcp.Description(accountDescription),
			),
			mcp.WithString("taskName",
				mcp.Required(),
				mcp.Description("Name of the task"),
			),
			mcp.WithString("description",
				mcp.Description("Free-text description"),
			),
			mcp.WithString("startDate",
				mcp.Required(),
				mcp.Description("Start date, e.g. 2024-03-12 or 2024-03-12T09:00"),
			),
			mcp.WithString("dueDate",
				mcp.Required(),
				mcp.Description("Due date, e.g. 2024-03-15 or 2024-03-15T17:00"),
			),
			mcp.WithString("status",
				mcp.Description(fmt.Sprintf("Task status: %s", strings.Join(graph.Statuses, ", "))),
				mcp.Enum(graph.Statuses...),
			),
		}
		if idRequired {
			opts = append(opts, mcp.WithString("taskId",
				mcp.Required(),
				mcp.Description("ID of the task to update"),
			))
		}
		return opts
	}

	createTool := mcp.NewTool("tasks_create",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a task in the task list"),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
		}, taskFieldOptions(false)...)...,
	)
	s.AddTool(createTool, common.InstrumentedToolHandlerWithService("tasks_create",
		instrumentation.ServiceTasks, instrumentation.OperationCreate, sc, handleCreateTask(sc)))

	updateTool := mcp.NewTool("tasks_update",
		append([]mcp.ToolOption{
			mcp.WithDescription("Replace all columns of a task. Omitted optional values are cleared."),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		}, taskFieldOptions(true)...)...,
	)
	s.AddTool(updateTool, common.InstrumentedToolHandlerWithService("tasks_update",
		instrumentation.ServiceTasks, instrumentation.OperationUpdate, sc, handleUpdateTask(sc)))

	deleteTool := mcp.NewTool("tasks_delete",
		mcp.WithDescription("Delete one or more tasks"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithService("tasks_delete",
		instrumentation.ServiceTasks, instrumentation.OperationDelete, sc, handleDeleteTasks(sc)))

	return nil
}

// taskFromArgs reads the task form arguments
func taskFromArgs(args map[string]interface{}) graph.Task {
	return graph.Task{
		ID:          strings.TrimSpace(common.StringArg(args, "taskId")),
		TaskName:    strings.TrimSpace(common.StringArg(args, "taskName")),
		Description: common.StringArg(args, "description"),
		StartDate:   strings.TrimSpace(common.StringArg(args, "startDate")),
		DueDate:     strings.TrimSpace(common.StringArg(args, "dueDate")),
		Status:      strings.TrimSpace(common.StringArg(args, "status")),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleListTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		tasks, err := svc.ListTasks(ctx)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}
		return jsonResult(tasks)
	}
}

func handleGetTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskIDs, err := batch.ParseIDs(request.GetArguments()["taskIds"], "taskIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		// A single id answers with the task itself
		if len(taskIDs) == 1 {
			task, err := svc.GetTask(ctx, taskIDs[0])
			if err != nil {
				return common.ErrorResult(sc, account, err), nil
			}
			return jsonResult(task)
		}

		results := batch.Process(ctx, taskIDs, func(ctx context.Context, id string) (string, error) {
			task, err := svc.GetTask(ctx, id)
			if err != nil {
				return "", err
			}
			out, _ := json.Marshal(task)
			return string(out), nil
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleCreateTask(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task := taskFromArgs(request.GetArguments())
		task.ID = ""
		if err := task.Validate(); err != nil {
			return mcp.NewToolResultError(graph.DisplayMessage(err)), nil
		}

		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		item, err := svc.CreateTask(ctx, task)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}
		return jsonResult(graph.TaskFromFields(item.ID, item.Fields))
	}
}

func handleUpdateTask(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task := taskFromArgs(request.GetArguments())
		if task.ID == "" {
			return mcp.NewToolResultError("taskId is required"), nil
		}
		if err := task.Validate(); err != nil {
			return mcp.NewToolResultError(graph.DisplayMessage(err)), nil
		}

		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		fields, err := svc.UpdateTask(ctx, task)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}
		return jsonResult(graph.TaskFromFields(task.ID, fields))
	}
}

func handleDeleteTasks(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskIDs, err := batch.ParseIDs(request.GetArguments()["taskIds"], "taskIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		svc, _, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		results := batch.Process(ctx, taskIDs, func(ctx context.Context, id string) (string, error) {
			if err := svc.DeleteTask(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("Task %s deleted successfully", id), nil
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}
