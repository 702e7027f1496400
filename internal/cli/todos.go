package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tally-cli/internal/model"
	"tally-cli/internal/todo"
	"tally-cli/internal/view"

	"github.com/spf13/cobra"
)

// listView is the payload of list-shaped commands.
type listView struct {
	Filter todo.Filter  `json:"filter"`
	Route  string       `json:"route"`
	Items  []model.Task `json:"items"`
	Stats  todo.Stats   `json:"stats"`
}

func (v listView) Text() string {
	var b strings.Builder
	for _, t := range v.Items {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s %s  (%s)\n", check, t.Title, shortID(t.ID))
	}
	noun := "items"
	if v.Stats.Remaining == 1 {
		noun = "item"
	}
	fmt.Fprintf(&b, "%d %s left", v.Stats.Remaining, noun)
	if v.Stats.Completed > 0 {
		fmt.Fprintf(&b, ", %d completed", v.Stats.Completed)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func visibleView(s *session) listView {
	out := listView{Filter: s.filter.Value(), Route: view.Route(s.filter.Value()), Items: []model.Task{}, Stats: s.list.Stats()}
	for _, ic := range s.view.Visible() {
		if t, ok := s.list.Get(ic.ID()); ok {
			out.Items = append(out.Items, t.Record())
		}
	}
	return out
}

// withSession opens a fetched session for the duration of fn.
func withSession(cmd *cobra.Command, app *App, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, app, true)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()
	if err := fn(ctx, s); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// resolveItem finds a todo by id or unique id prefix.
func resolveItem(s *session, id string) (*view.ItemController, error) {
	id = strings.TrimSpace(id)
	if ic, ok := s.view.Item(id); ok {
		return ic, nil
	}
	var matches []string
	for _, ic := range s.view.Items() {
		if id != "" && strings.HasPrefix(ic.ID(), id) {
			matches = append(matches, ic.ID())
		}
	}
	switch len(matches) {
	case 0:
		return nil, errNotFound("todo", id)
	case 1:
		ic, _ := s.view.Item(matches[0])
		return ic, nil
	default:
		sort.Strings(matches)
		return nil, ambiguousIDError{prefix: id, matches: matches}
	}
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				s.view.SetInput(strings.Join(args, " "))
				t, err := s.view.CreateOnEnter(ctx, app.cfg.Keys.Commit)
				if err != nil {
					return err
				}
				if t == nil {
					return todo.ErrEmptyTitle
				}
				return writeOut(cmd, app, t.Record())
			})
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := todo.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				s.filter.Set(f)
				return writeOut(cmd, app, visibleView(s))
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Filter (all|active|completed)")
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a todo's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				ic, err := resolveItem(s, args[0])
				if err != nil {
					return err
				}
				if err := ic.ToggleCompleted(ctx); err != nil {
					return err
				}
				t, _ := s.list.Get(ic.ID())
				return writeOut(cmd, app, t.Record())
			})
		},
	}
}

func newToggleAllCmd(app *App) *cobra.Command {
	var completed bool
	cmd := &cobra.Command{
		Use:   "toggle-all",
		Short: "Mark every todo completed (or, if all are, active)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				checked := completed
				if !cmd.Flags().Changed("completed") {
					// Same as clicking the toggle-all checkbox.
					checked = !s.view.State().AllChecked
				}
				if err := s.view.ToggleAllComplete(ctx, checked); err != nil {
					return err
				}
				return writeOut(cmd, app, visibleView(s))
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", true, "Completed state to set (default: flip the all-done state)")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Change a todo's title (an empty title deletes it)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				ic, err := resolveItem(s, args[0])
				if err != nil {
					return err
				}
				id := ic.ID()
				if err := ic.Edit(); err != nil {
					return err
				}
				ic.SetDraft(strings.Join(args[1:], " "))
				if err := ic.Close(ctx); err != nil {
					return err
				}
				if t, ok := s.list.Get(id); ok {
					return writeOut(cmd, app, t.Record())
				}
				return writeOut(cmd, app, map[string]any{"deleted": id})
			})
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				ic, err := resolveItem(s, args[0])
				if err != nil {
					return err
				}
				id := ic.ID()
				if err := ic.Clear(ctx); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"deleted": id})
			})
		},
	}
}

func newClearCompletedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				before := s.list.Len()
				err := s.view.ClearCompleted(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"removed": before - s.list.Len(),
					"stats":   s.list.Stats(),
				})
			})
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completed/remaining counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) error {
				return writeOut(cmd, app, s.list.Stats())
			})
		},
	}
}
