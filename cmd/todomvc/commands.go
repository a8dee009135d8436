package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"todomvc/app"
	"todomvc/config"
	"todomvc/model"
	"todomvc/tui"
)

var (
	errNoMatch   = errors.New("no todo matches")
	errAmbiguous = errors.New("ambiguous todo id")
)

const shortIDLen = 8

// withStore runs fn against a hydrated store and reports write failures.
func withStore(cmd *cobra.Command, opts *rootOptions, fn func(s *app.TodoStore, out io.Writer) error) error {
	sess, err := openSession(cmd, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := fn(sess.store, cmd.OutOrStdout()); err != nil {
		return err
	}
	if err := sess.store.SaveErr(); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	return nil
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				item, ok := s.Add(strings.Join(args, " "))
				if !ok {
					return errors.New("todo text must not be empty")
				}
				fmt.Fprintf(out, "added %s %s\n", shortID(item.ID), item.Content)
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos under the current filter",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				renderList(out, s)
				return nil
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				id, err := resolveID(s, args[0])
				if err != nil {
					return err
				}
				if !s.Update(id, strings.Join(args[1:], " ")) {
					return errors.New("todo text must not be empty")
				}
				item, _ := s.Get(id)
				fmt.Fprintf(out, "updated %s %s\n", shortID(id), item.Content)
				return nil
			})
		},
	}
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				id, err := resolveID(s, args[0])
				if err != nil {
					return err
				}
				s.ToggleComplete(id)
				item, _ := s.Get(id)
				state := "active"
				if item.Complete {
					state = "completed"
				}
				fmt.Fprintf(out, "%s %s is %s\n", shortID(id), item.Content, state)
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				id, err := resolveID(s, args[0])
				if err != nil {
					return err
				}
				item, _ := s.Get(id)
				s.Delete(id)
				fmt.Fprintf(out, "deleted %s %s\n", shortID(id), item.Content)
				return nil
			})
		},
	}
}

func newToggleAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen all when none is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				if s.Len() == 0 {
					fmt.Fprintln(out, "nothing to toggle")
					return nil
				}
				s.ToggleAll()
				fmt.Fprintln(out, tui.ItemsLeft(len(s.ActiveItems())))
				return nil
			})
		},
	}
}

func newClearCompletedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete all completed todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(s *app.TodoStore, out io.Writer) error {
				n := s.ClearCompleted()
				fmt.Fprintf(out, "cleared %d completed\n", n)
				return nil
			})
		},
	}
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the todo file with its newest readable backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != config.BackendFile {
				return fmt.Errorf("restore needs the file backend, have %s", cfg.Storage.Backend)
			}

			sess, err := openSession(cmd, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			items, from, err := sess.file.Restore()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d todos from %s\n", len(items), from)
			return nil
		},
	}
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(s *app.TodoStore, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errNoMatch
	}
	if _, ok := s.Get(arg); ok {
		return arg, nil
	}
	var matches []string
	for _, item := range s.AllItems() {
		if strings.HasPrefix(item.ID, arg) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w %q", errNoMatch, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w %q matches %d todos", errAmbiguous, arg, len(matches))
	}
}

func renderList(out io.Writer, s *app.TodoStore) {
	done := lipgloss.NewStyle().Faint(true).Strikethrough(true)
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	items := s.FilteredItems()
	switch {
	case len(items) > 0:
	case s.Filter() == model.FilterAll:
		fmt.Fprintln(out, "no todos")
	default:
		fmt.Fprintf(out, "no %s todos\n", strings.ToLower(string(s.Filter())))
	}
	for _, item := range items {
		check := "[ ]"
		text := item.Content
		if item.Complete {
			check = "[x]"
			text = done.Render(text)
		}
		fmt.Fprintf(out, "%s %s %s\n", check, idStyle.Render(shortID(item.ID)), text)
	}

	active := len(s.ActiveItems())
	footer := []string{tui.ItemsLeft(active), "filter: " + string(s.Filter())}
	if active < s.Len() {
		footer = append(footer, fmt.Sprintf("%d completed", s.Len()-active))
	}
	fmt.Fprintln(out, strings.Join(footer, " • "))
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
