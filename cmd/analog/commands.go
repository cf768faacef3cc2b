package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/analog/pkg/board"
)

// withBoard opens the board for the duration of fn.
func (app *App) withBoard(cmd *cobra.Command, fn func(b *board.Board) error) error {
	b, err := app.openBoard(cmd)
	if err != nil {
		return err
	}
	defer app.close()
	return fn(b)
}

// withTask resolves listArg and taskRef before calling fn.
func (app *App) withTask(cmd *cobra.Command, listArg, taskRef string, fn func(b *board.Board, kind board.ListKind, t board.Task) error) error {
	kind, err := board.ParseListKind(listArg)
	if err != nil {
		return err
	}
	return app.withBoard(cmd, func(b *board.Board) error {
		t, err := resolveTask(b.Card(kind), taskRef)
		if err != nil {
			return err
		}
		return fn(b, kind, t)
	})
}

// updated re-reads the task after a mutation and prints it.
func (app *App) updated(cmd *cobra.Command, b *board.Board, kind board.ListKind, t board.Task) error {
	card := b.Card(kind)
	if fresh, ok := card.Task(t.ID); ok {
		t = fresh
	}
	return app.taskResult(cmd.OutOrStdout(), "Updated", card, t)
}

func todayFullError(b *board.Board) error {
	return fmt.Errorf("today is full (%s)", b.TodayCapacityText())
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [list]",
		Short: "Show the board or a single list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kinds []board.ListKind
			if len(args) == 1 {
				kind, err := board.ParseListKind(args[0])
				if err != nil {
					return err
				}
				kinds = []board.ListKind{kind}
			}
			return app.withBoard(cmd, func(b *board.Board) error {
				w := cmd.OutOrStdout()
				if app.JSON {
					if len(kinds) == 1 {
						return outputJSON(w, b.Card(kinds[0]))
					}
					return outputJSON(w, b.Snapshot())
				}
				if kinds == nil {
					kinds = board.Lists[:]
				}
				for i, k := range kinds {
					if i > 0 {
						fmt.Fprintln(w)
					}
					printCard(w, b.Card(k))
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, capacityLine(b))
				return nil
			})
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list> <text...>",
		Short: "Append a task to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := board.ParseListKind(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("task text is empty")
			}
			return app.withBoard(cmd, func(b *board.Board) error {
				if !b.AddTask(text, kind) {
					return todayFullError(b)
				}
				card := b.Card(kind)
				return app.taskResult(cmd.OutOrStdout(), "Added to", card, card.Tasks[len(card.Tasks)-1])
			})
		},
	}
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <list> <task>",
		Short: "Advance a task's signal: empty, in progress, delegated, done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.ToggleSignal(t.ID, kind)
				return app.updated(cmd, b, kind, t)
			})
		},
	}
}

func newSignalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signal <list> <task> <signal>",
		Short: "Set a task's signal directly (empty, inProgress, delegated, done, canceled)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			signal, err := board.ParseSignal(args[2])
			if err != nil {
				return err
			}
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.SetSignal(t.ID, kind, signal)
				return app.updated(cmd, b, kind, t)
			})
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to> <task>",
		Short: "Move a task to the end of another list",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := board.ParseListKind(args[1])
			if err != nil {
				return err
			}
			return app.withTask(cmd, args[0], args[2], func(b *board.Board, from board.ListKind, t board.Task) error {
				if !b.MoveTask(t.ID, from, to) {
					return todayFullError(b)
				}
				card := b.Card(to)
				moved, _ := card.Task(t.ID)
				return app.taskResult(cmd.OutOrStdout(), "Moved to", card, moved)
			})
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <list> <task>",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.RemoveTask(t.ID, kind)
				if app.JSON {
					return outputJSON(cmd.OutOrStdout(), map[string]string{"deleted": t.ID.String()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", t.Text)
				return nil
			})
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <list> <task> <text...>",
		Short: "Replace a task's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[2:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("task text is empty")
			}
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.EditTask(t.ID, kind, text)
				return app.updated(cmd, b, kind, t)
			})
		},
	}
}

func newAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <list> <task> [who...]",
		Short: "Record who a task is delegated to (no name clears it)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := strings.Join(args[2:], " ")
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.SetAssignee(t.ID, kind, who)
				return app.updated(cmd, b, kind, t)
			})
		},
	}
}

func newNoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "note <list> <task> [text...]",
		Short: "Attach a note to a task (no text clears it)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note := strings.Join(args[2:], " ")
			return app.withTask(cmd, args[0], args[1], func(b *board.Board, kind board.ListKind, t board.Task) error {
				b.SetNote(t.ID, kind, note)
				return app.updated(cmd, b, kind, t)
			})
		},
	}
}

func newDotsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dots <list> <0-3>",
		Short: "Set a card's dot rating",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := board.ParseListKind(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid dots %q: %w", args[1], err)
			}
			return app.withBoard(cmd, func(b *board.Board) error {
				b.SetDots(kind, n)
				card := b.Card(kind)
				if app.JSON {
					return outputJSON(cmd.OutOrStdout(), card)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", card.Title, formatDots(card.Dots))
				return nil
			})
		},
	}
}

func newCloseCmd(app *App) *cobra.Command {
	var keepIncomplete bool
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Archive today and start a fresh card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, func(b *board.Board) error {
				carry := app.cfg.Board.CarryIncomplete
				if cmd.Flags().Changed("keep-incomplete") {
					carry = keepIncomplete
				}
				old := b.Card(board.ListToday)
				b.CloseToday(carry)

				if app.JSON {
					return outputJSON(cmd.OutOrStdout(), b.Snapshot())
				}
				w := cmd.OutOrStdout()
				unfinished := len(old.Unfinished())
				fmt.Fprintf(w, "Closed %s: %d done, %d unfinished\n", old.Title, len(old.Tasks)-unfinished, unfinished)
				if carry && unfinished > 0 {
					fmt.Fprintf(w, "Carried %d to Next\n", unfinished)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&keepIncomplete, "keep-incomplete", true, "Move unfinished tasks to next (default from config)")
	return cmd
}

func newArchiveCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Show closed days, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, func(b *board.Board) error {
				cards := b.Archive()
				if limit > 0 {
					cards = b.RecentArchive(limit)
				}
				w := cmd.OutOrStdout()
				if app.JSON {
					return outputJSON(w, cards)
				}
				if len(cards) == 0 {
					fmt.Fprintln(w, "Archive is empty. Run `analog close` at the end of a day.")
					return nil
				}
				for i, c := range cards {
					if i > 0 {
						fmt.Fprintln(w)
					}
					printCard(w, c)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of cards to show (0 for all)")
	return cmd
}

func newSelectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "select <list>",
		Short: "Remember the focused list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := board.ParseListKind(args[0])
			if err != nil {
				return err
			}
			return app.withBoard(cmd, func(b *board.Board) error {
				b.SelectTab(kind)
				if app.JSON {
					return outputJSON(cmd.OutOrStdout(), map[string]string{"selectedTab": string(kind)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", kind.Title())
				return nil
			})
		},
	}
}

func newCapacityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Show how many of today's slots are used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, func(b *board.Board) error {
				if app.JSON {
					return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
						"count": b.TodayCount(),
						"limit": board.TodayLimit,
						"text":  b.TodayCapacityText(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), capacityLine(b))
				return nil
			})
		},
	}
}
