package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"donelog/internal/dateutil"
	"donelog/internal/store"
	"donelog/internal/task"
	"donelog/internal/views"
)

// AmbiguousIDError is returned when an id prefix matches more than one task.
type AmbiguousIDError struct {
	Prefix  string
	Matches int
}

func (e AmbiguousIDError) Error() string {
	return fmt.Sprintf("id prefix %q matches %d tasks", e.Prefix, e.Matches)
}

// resolveID expands a unique id prefix, as printed by list, to a full id.
func resolveID(st *store.Store, prefix string) (string, error) {
	var found []string
	for _, t := range st.Snapshot() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			found = append(found, t.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", task.NotFoundError{ID: prefix}
	case 1:
		return found[0], nil
	default:
		return "", AmbiguousIDError{Prefix: prefix, Matches: len(found)}
	}
}

// withStore opens the app for a CLI command and closes it afterwards.
func withStore(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// addCmd implements 'todo add'.
func addCmd() *cobra.Command {
	var description, priority, due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := task.ParsePriority(priority)
			if err != nil {
				return err
			}
			dueDate, err := dateutil.ParseDate(due, time.Local)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(a *app) error {
				t, err := a.store.Add(cmd.Context(), task.Draft{
					Title:       strings.Join(args, " "),
					Description: description,
					Priority:    p,
					DueDate:     dueDate,
				})
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(t))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority (high, medium, low)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

// editCmd implements 'todo edit'.
func editCmd() *cobra.Command {
	var title, description, priority, due string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description, priority or due date",
		Long:  "Change a task's fields. Pass an empty --description or --due to clear it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch task.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				if strings.TrimSpace(description) == "" {
					patch.Description = task.Clear[string]()
				} else {
					patch.Description = task.SetTo(strings.TrimSpace(description))
				}
			}
			if flags.Changed("priority") {
				p, err := task.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("due") {
				d, err := dateutil.ParseDate(due, time.Local)
				if err != nil {
					return err
				}
				if d == nil {
					patch.DueDate = task.Clear[time.Time]()
				} else {
					patch.DueDate = task.SetTo(*d)
				}
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change: pass --title, --description, --priority or --due")
			}
			return withStore(cmd.Context(), func(a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				t, err := a.store.Update(cmd.Context(), id, patch)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(t))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority (high, medium, low)")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	return cmd
}

// listCmd implements 'todo list'.
func listCmd() *cobra.Command {
	var filter, sortMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, overdue first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(a *app) error {
				f, err := views.ParseFilter(firstNonEmpty(filter, a.cfg.DefaultFilter))
				if err != nil {
					return err
				}
				s, err := views.ParseSortMode(firstNonEmpty(sortMode, a.cfg.DefaultSort))
				if err != nil {
					return err
				}
				printOutput(formatter.FormatItems(views.List(a.store.Snapshot(), f, s, time.Now())))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter (all, active, completed)")
	cmd.Flags().StringVarP(&sortMode, "sort", "s", "", "Sort (date, priority)")
	return cmd
}

// doneCmd implements 'todo done'. Without --reflection the reflection is skipped.
func doneCmd() *cobra.Command {
	var reflection string
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task, optionally with a reflection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				res, err := a.store.ToggleComplete(ctx, id, true)
				if err != nil {
					return err
				}
				if !res.Pending {
					printOutput(formatter.FormatMessage(fmt.Sprintf("%q is already completed", res.Task.Title)))
					return nil
				}
				var t task.Task
				if strings.TrimSpace(reflection) == "" {
					t, err = a.store.SkipReflection(ctx)
				} else {
					t, err = a.store.SaveReflection(ctx, reflection)
				}
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(t))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reflection, "reflection", "r", "", "What you learned finishing it")
	return cmd
}

// undoneCmd implements 'todo undone'.
func undoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undone <id>",
		Short: "Reopen a completed task, clearing its reflection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				res, err := a.store.ToggleComplete(ctx, id, false)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(res.Task))
				return nil
			})
		},
	}
}

// rmCmd implements 'todo rm'.
func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				if err := a.store.Delete(ctx, id); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage("Deleted " + id))
				return nil
			})
		},
	}
}

// statsCmd implements 'todo stats'.
func statsCmd() *cobra.Command {
	var rangeName string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion metrics for a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(a *app) error {
				r, err := views.ParseTimeRange(firstNonEmpty(rangeName, a.cfg.DefaultRange))
				if err != nil {
					return err
				}
				printOutput(formatter.FormatMetrics(views.Compute(a.store.Snapshot(), r, time.Now())))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rangeName, "range", "", "Time range (7d, 30d, 90d, all)")
	return cmd
}

// trendCmd implements 'todo trend'.
func trendCmd() *cobra.Command {
	var rangeName string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: fmt.Sprintf("Show daily completions for the last %d days", views.TrendDays),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(a *app) error {
				r, err := views.ParseTimeRange(firstNonEmpty(rangeName, a.cfg.DefaultRange))
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTrend(views.Trend(a.store.Snapshot(), r, time.Now())))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rangeName, "range", "", "Only count tasks created within this range (7d, 30d, 90d, all)")
	return cmd
}

// timelineCmd implements 'todo timeline'.
func timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Show completed tasks grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(a *app) error {
				history, err := a.store.History(cmd.Context())
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTimeline(views.Timeline(history, time.Local)))
				return nil
			})
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
