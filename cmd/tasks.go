package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/tools/batch"
)

func newTasksCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with the SharePoint task list",
	}

	cmd.AddCommand(newTasksListCmd(root))
	cmd.AddCommand(newTasksGetCmd(root))
	cmd.AddCommand(newTasksCreateCmd(root))
	cmd.AddCommand(newTasksUpdateCmd(root))
	cmd.AddCommand(newTasksDeleteCmd(root))
	return cmd
}

// taskFlags are the editable task columns
type taskFlags struct {
	name        string
	description string
	startDate   string
	dueDate     string
	status      string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Task name")
	cmd.Flags().StringVar(&f.description, "description", "", "Task description")
	cmd.Flags().StringVar(&f.startDate, "start", "", "Start date, e.g. 2024-03-11")
	cmd.Flags().StringVar(&f.dueDate, "due", "", "Due date, e.g. 2024-03-15")
	cmd.Flags().StringVar(&f.status, "status", "", fmt.Sprintf("Status (%s)", strings.Join(graph.Statuses, ", ")))
}

func (f *taskFlags) task(id string) graph.Task {
	return graph.Task{
		ID:          id,
		TaskName:    strings.TrimSpace(f.name),
		Description: strings.TrimSpace(f.description),
		StartDate:   strings.TrimSpace(f.startDate),
		DueDate:     strings.TrimSpace(f.dueDate),
		Status:      strings.TrimSpace(f.status),
	}
}

func newTasksListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, svc, err := root.taskService(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			tasks, err := svc.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tasks as JSON")
	return cmd
}

func printTasks(w io.Writer, tasks []graph.MappedTask) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tDUE\tSTATUS")
	for _, m := range tasks {
		t := m.Task
		status := t.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.TaskName, t.StartDate, t.DueDate, status)
	}
	return tw.Flush()
}

func newTasksGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID...",
		Short: "Show one or more tasks as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, svc, err := root.taskService(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			if len(args) == 1 {
				task, err := svc.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), task)
			}

			ids, err := batch.ParseIDs(args, "ID")
			if err != nil {
				return err
			}
			results := batch.Process(cmd.Context(), ids, func(ctx context.Context, id string) (string, error) {
				task, err := svc.GetTask(ctx, id)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s (%s to %s)", task.Task.TaskName, task.Task.StartDate, task.Task.DueDate), nil
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), batch.FormatResults(results))
			return err
		},
	}
}

func newTasksCreateCmd(root *rootOptions) *cobra.Command {
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a task to the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			task := flags.task("")
			if err := task.Validate(); err != nil {
				return err
			}

			sc, svc, err := root.taskService(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			item, err := svc.CreateTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", item.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newTasksUpdateCmd(root *rootOptions) *cobra.Command {
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the columns of a task",
		Long: `Replace the columns of a task.

Every column is written: a column left out is cleared on the list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := flags.task(args[0])
			if err := task.Validate(); err != nil {
				return err
			}

			sc, svc, err := root.taskService(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			if _, err := svc.UpdateTask(cmd.Context(), task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", task.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newTasksDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete one or more tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, svc, err := root.taskService(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			ids, err := batch.ParseIDs(args, "ID")
			if err != nil {
				return err
			}
			results := batch.Process(cmd.Context(), ids, func(ctx context.Context, id string) (string, error) {
				return "Deleted", svc.DeleteTask(ctx, id)
			})

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if r.Status == batch.StatusError {
					failed++
					fmt.Fprintf(out, "%s: %s\n", r.ID, r.Error)
					continue
				}
				fmt.Fprintf(out, "%s: deleted\n", r.ID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", failed, len(results))
			}
			return nil
		},
	}
}
