package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the persisted snapshot of the whole board.
type State struct {
	ActiveCards map[ListKind]Card `json:"activeCards"`
	Archive     []Card            `json:"archive"`
	SelectedTab ListKind          `json:"selectedTab"`
}

// EmptyState returns a board with three empty default cards.
func EmptyState(now time.Time) State {
	st := State{
		ActiveCards: make(map[ListKind]Card, numLists),
		SelectedTab: ListToday,
	}
	for _, k := range Lists {
		st.ActiveCards[k] = NewCard(k, now)
	}
	return st
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{SelectedTab: s.SelectedTab}
	if s.ActiveCards != nil {
		out.ActiveCards = make(map[ListKind]Card, len(s.ActiveCards))
		for k, c := range s.ActiveCards {
			out.ActiveCards[k] = c.Clone()
		}
	}
	if s.Archive != nil {
		out.Archive = make([]Card, len(s.Archive))
		for i, c := range s.Archive {
			out.Archive[i] = c.Clone()
		}
	}
	return out
}

// Validate checks a decoded snapshot for values the board cannot hold.
func (s State) Validate() error {
	var errs []error
	if !s.SelectedTab.Valid() {
		errs = append(errs, fmt.Errorf("selectedTab: unknown list %q", s.SelectedTab))
	}
	owner := make(map[uuid.UUID]ListKind)
	for _, k := range Lists {
		c, ok := s.ActiveCards[k]
		if !ok {
			continue
		}
		for _, t := range c.Tasks {
			if prev, dup := owner[t.ID]; dup {
				errs = append(errs, fmt.Errorf("activeCards.%s: task %s is also on %s", k, t.ID, prev))
				continue
			}
			owner[t.ID] = k
		}
	}
	for k, c := range s.ActiveCards {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("activeCards: unknown list %q", k))
			continue
		}
		if c.List != k {
			errs = append(errs, fmt.Errorf("activeCards.%s: card belongs to %q", k, c.List))
		}
		if c.Archived {
			errs = append(errs, fmt.Errorf("activeCards.%s: card is marked archived", k))
		}
		if k == ListToday && len(c.Tasks) > TodayLimit {
			errs = append(errs, fmt.Errorf("activeCards.today: %d tasks exceeds limit of %d", len(c.Tasks), TodayLimit))
		}
		if err := validateCard(c); err != nil {
			errs = append(errs, fmt.Errorf("activeCards.%s: %w", k, err))
		}
	}
	for i, c := range s.Archive {
		if !c.List.Valid() {
			errs = append(errs, fmt.Errorf("archive[%d]: unknown list %q", i, c.List))
		}
		if err := validateCard(c); err != nil {
			errs = append(errs, fmt.Errorf("archive[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func validateCard(c Card) error {
	if c.Dots < 0 || c.Dots > MaxDots {
		return fmt.Errorf("dots %d out of range [0,%d]", c.Dots, MaxDots)
	}
	for i, t := range c.Tasks {
		if !t.Signal.Valid() {
			return fmt.Errorf("tasks[%d]: unknown signal %q", i, t.Signal)
		}
		if strings.TrimSpace(t.Text) == "" {
			return fmt.Errorf("tasks[%d]: empty text", i)
		}
	}
	return nil
}
