package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/stefanpenner/analog/pkg/board"
)

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolveTask finds a task on the card by 1-based position or by a unique
// prefix of its id. Positions win when the ref is all digits.
func resolveTask(card board.Card, ref string) (board.Task, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(card.Tasks) {
			return board.Task{}, fmt.Errorf("%s has no task #%d (it has %d)", card.Title, n, len(card.Tasks))
		}
		return card.Tasks[n-1], nil
	}

	prefix := strings.ToLower(ref)
	if prefix == "" {
		return board.Task{}, fmt.Errorf("empty task reference")
	}
	var matches []board.Task
	for _, t := range card.Tasks {
		if strings.HasPrefix(t.ID.String(), prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return board.Task{}, fmt.Errorf("no task %q on %s", ref, card.Title)
	case 1:
		return matches[0], nil
	default:
		return board.Task{}, fmt.Errorf("task %q is ambiguous on %s (%d matches)", ref, card.Title, len(matches))
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatDots(n int) string {
	n = max(0, min(n, board.MaxDots))
	return strings.Repeat(IconDotOn, n) + strings.Repeat(IconDotOff, board.MaxDots-n)
}

func printCard(w io.Writer, c board.Card) {
	header := titleStyle(c.List).Render(c.Title)
	if c.Archived {
		header += " " + SubtitleStyle.Render(c.Date.Local().Format("Mon Jan 2"))
	}
	fmt.Fprintf(w, "%s  %s\n", header, DotsStyle.Render(formatDots(c.Dots)))
	if c.Subtitle != "" {
		fmt.Fprintln(w, SubtitleStyle.Render(c.Subtitle))
	}
	if len(c.Tasks) == 0 {
		fmt.Fprintln(w, MetaStyle.Render("  (no tasks)"))
		return
	}
	for i, t := range c.Tasks {
		printTask(w, i+1, t)
	}
}

func printTask(w io.Writer, pos int, t board.Task) {
	line := fmt.Sprintf("%3d. %s %s", pos, signalStyle(t.Signal).Render(t.Signal.Icon()), taskTextStyle(t.Signal).Render(t.Text))
	if t.Assignee != "" {
		line += MetaStyle.Render(fmt.Sprintf(" %s %s", IconAssign, t.Assignee))
	}
	line += MetaStyle.Render("  " + shortID(t.ID))
	fmt.Fprintln(w, line)
	if t.Note != "" {
		fmt.Fprintln(w, MetaStyle.Render(fmt.Sprintf("       %s %s", IconNote, t.Note)))
	}
}

func capacityLine(b *board.Board) string {
	text := b.TodayCapacityText()
	if b.TodayCount() >= board.TodayLimit {
		return FullStyle.Render(text + " (full)")
	}
	return FooterStyle.Render(text)
}

// taskResult prints a single task after a mutation.
func (app *App) taskResult(w io.Writer, verb string, card board.Card, t board.Task) error {
	if app.JSON {
		return outputJSON(w, t)
	}
	fmt.Fprintf(w, "%s %s: %s %s (%s)\n", verb, card.Title, t.Signal.Icon(), t.Text, t.Signal.Label())
	return nil
}
