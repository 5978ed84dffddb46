package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vango-dev/cellgraph/internal/todos"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

func addCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a todo to the top of the list",
		Example: `  todos add buy milk
  todos add "walk the dog"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			title := strings.Join(args, " ")
			var added todos.Todo
			err = s.update(func(m *todos.Model) error {
				h := m.Add(title)
				if h.IsZero() {
					return fmt.Errorf("title is blank")
				}
				added = h.Peek()
				return nil
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Added %q", added.Title)
			return nil
		},
	}
}

func listCmd(g *globals) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := todos.ParseFilter(filter)
			if !ok {
				return fmt.Errorf("unknown filter %q", filter)
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.model.SetRoute(f.Route()); err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), s.model)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", todos.FilterAll.String(), "Filter: all, active, completed")

	return cmd
}

// printList writes the filtered todos numbered by their position in the
// whole list, so the numbers stay valid as arguments.
func printList(w io.Writer, m *todos.Model) {
	v := m.View(nil)
	if !v.TodosExist {
		info(w, "Nothing to do.")
		return
	}

	position := make(map[string]int, v.TotalCount)
	for i, t := range m.Todos(nil).Values(nil) {
		position[t.ID.String()] = i + 1
	}

	for _, t := range v.Todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "%3d. [%s] %s\n", position[t.ID], mark, t.Title)
	}
	fmt.Fprintln(w)
	info(w, "%d total, %d active, %d completed (%s)",
		v.TotalCount, v.ActiveCount, v.CompletedCount, v.Filter)
}

// resolve finds a todo by UUID or by its 1-based position in the list.
func resolve(m *todos.Model, arg string) (cellgraph.Var[todos.Todo], error) {
	if id, err := uuid.Parse(arg); err == nil {
		h, ok := m.Find(id)
		if !ok {
			return h, fmt.Errorf("%w: %s", todos.ErrTodoNotFound, arg)
		}
		return h, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return cellgraph.Var[todos.Todo]{}, fmt.Errorf("%q is neither a todo id nor a list position", arg)
	}
	list := m.Todos(nil)
	if n < 1 || n > list.Len() {
		return cellgraph.Var[todos.Todo]{}, fmt.Errorf("%w: no todo at position %d", todos.ErrTodoNotFound, n)
	}
	return list.At(n - 1), nil
}

func toggleCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|position>",
		Short: "Mark a todo completed or active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var t todos.Todo
			err = s.update(func(m *todos.Model) error {
				h, err := resolve(m, args[0])
				if err != nil {
					return err
				}
				m.ToggleTodo(h)
				t = h.Peek()
				return nil
			})
			if err != nil {
				return err
			}
			state := "active"
			if t.Completed {
				state = "completed"
			}
			success(cmd.OutOrStdout(), "%q is %s", t.Title, state)
			return nil
		},
	}
}

func removeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|position>",
		Aliases: []string{"rm"},
		Short:   "Remove a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var title string
			err = s.update(func(m *todos.Model) error {
				h, err := resolve(m, args[0])
				if err != nil {
					return err
				}
				title = h.Peek().Title
				m.RemoveTodo(h)
				return nil
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Removed %q", title)
			return nil
		},
	}
}

func renameCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|position> <title>...",
		Short: "Change the title of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			title := strings.Join(args[1:], " ")
			err = s.update(func(m *todos.Model) error {
				h, err := resolve(m, args[0])
				if err != nil {
					return err
				}
				return m.RenameByID(h.Peek().ID, title)
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Renamed to %q", title)
			return nil
		},
	}
}

func toggleAllCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen them all if all are completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.update(func(m *todos.Model) error {
				m.CheckOrUncheckAll()
				return nil
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%d active, %d completed",
				s.model.ActiveCount(nil), s.model.CompletedCount(nil))
			return nil
		},
	}
}

func clearCompletedCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove every completed todo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var n int
			err = s.update(func(m *todos.Model) error {
				n = m.RemoveCompleted()
				return nil
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Removed %d completed", n)
			return nil
		},
	}
}
