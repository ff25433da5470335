package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/seed"
	"github.com/dori/taskdeck/internal/store"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task>",
		Short: "Quick add a task",
		Long: `Quick add a task. Words starting with ! set the priority, words
starting with # set the status.

  taskdeck add "Buy groceries"
  taskdeck add "Review PR !high #doing"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.CreateTask(seed.QuickAdd(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Created #%d: %s\n", task.ID, task.Title)
			if task.Priority != model.PriorityMedium {
				fmt.Fprintf(opts.stdout, "Priority: %s\n", task.Priority)
			}
			if task.Status != model.StatusTodo {
				fmt.Fprintf(opts.stdout, "Status: %s\n", task.Status)
			}
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var (
		search     string
		priorities []string
		statuses   []string
		sortField  string
		order      string
		page       int
		pageSize   int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.View(func(s *store.Store) error {
				s.SetSearchTerm(search)
				ps := make([]model.Priority, 0, len(priorities))
				for _, p := range priorities {
					ps = append(ps, seed.NormalizePriority(p))
				}
				if err := s.SetPriorityFilter(ps); err != nil {
					return err
				}
				ss := make([]model.Status, 0, len(statuses))
				for _, st := range statuses {
					ss = append(ss, seed.NormalizeStatus(st))
				}
				if err := s.SetStatusFilter(ss); err != nil {
					return err
				}
				if err := s.SetSortField(sortField); err != nil {
					return err
				}
				if err := s.SetSortOrder(store.SortOrder(order)); err != nil {
					return err
				}
				if pageSize > 0 {
					if err := s.SetPageSize(pageSize); err != nil {
						return err
					}
				}
				s.SetCurrentPage(page)
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(opts.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printTasks(opts.stdout, result.Tasks)
			fmt.Fprintf(opts.stdout, "\npage %d/%d, %d of %d tasks\n",
				result.CurrentPage, result.PageCount, result.FilteredCount, result.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringSliceVarP(&priorities, "priority", "p", nil, "only these priorities (high, medium, low)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses (todo, in_progress, done)")
	cmd.Flags().StringVar(&sortField, "sort", store.SortCreatedAt, "sort field (createdAt, title, priority, status or a custom field)")
	cmd.Flags().StringVar(&order, "order", string(store.SortDesc), "sort order (asc, desc)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "tasks per page (default view.page_size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	return cmd
}

func printTasks(w io.Writer, tasks []model.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIORITY\tSTATUS\tCREATED\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Priority, t.Status, t.CreatedAt.Local().Format(time.DateTime), t.Title)
	}
	tw.Flush()
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task (undoable)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", model.ErrInvalidID, args[0])
			}

			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.GetTask(id)
			if err != nil {
				return err
			}
			if err := a.DeleteTask(id); err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Deleted #%d: %s\n", id, task.Title)
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append tasks from a YAML or JSON seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := seed.ParseFile(args[0], time.Now().UTC())
			if err != nil {
				return err
			}

			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.Import(tasks)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Imported %d task(s)\n", len(added))
			return nil
		},
	}
}

func newUndoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			desc := a.HistoryState().LastAction
			ok, err := a.Undo()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(opts.stdout, "Nothing to undo")
				return nil
			}
			fmt.Fprintf(opts.stdout, "Undid: %s\n", desc)
			return nil
		},
	}
}

func newRedoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			desc := a.HistoryState().NextRedo
			ok, err := a.Redo()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(opts.stdout, "Nothing to redo")
				return nil
			}
			fmt.Fprintf(opts.stdout, "Redid: %s\n", desc)
			return nil
		},
	}
}
