package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TodayLimit is the maximum number of tasks the today card may hold.
const TodayLimit = 10

// MaxDots is the highest dot rating a card can carry.
const MaxDots = 3

// ListKind identifies one of the three fixed lists on the board.
type ListKind string

const (
	ListToday   ListKind = "today"
	ListNext    ListKind = "next"
	ListSomeday ListKind = "someday"
)

// Lists holds every list kind in display order.
var Lists = [...]ListKind{ListToday, ListNext, ListSomeday}

const numLists = len(Lists)

// index returns the ordinal of the list kind, or -1 if unknown.
func (k ListKind) index() int {
	switch k {
	case ListToday:
		return 0
	case ListNext:
		return 1
	case ListSomeday:
		return 2
	}
	return -1
}

// Valid reports whether k is one of the known list kinds.
func (k ListKind) Valid() bool {
	return k.index() >= 0
}

// Title returns the default card title for the list.
func (k ListKind) Title() string {
	switch k {
	case ListToday:
		return "Today"
	case ListNext:
		return "Next"
	case ListSomeday:
		return "Someday"
	}
	return string(k)
}

// Subtitle returns the default card subtitle for the list.
func (k ListKind) Subtitle() string {
	switch k {
	case ListToday:
		return "Up to 10 tasks to focus on now"
	case ListNext:
		return "Queue for what comes soon"
	case ListSomeday:
		return "Ideas and long bets"
	}
	return ""
}

// Accent returns the list's accent color as a hex string.
func (k ListKind) Accent() string {
	switch k {
	case ListToday:
		return "#D19A66"
	case ListNext:
		return "#4285F4"
	case ListSomeday:
		return "#C678DD"
	}
	return "#626262"
}

// ParseListKind parses a list name such as "today" or "Someday".
func ParseListKind(s string) (ListKind, error) {
	k := ListKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown list %q (use today, next, or someday)", s)
	}
	return k, nil
}

// Task is a single line item on a card.
type Task struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Signal    Signal    `json:"signal"`
	Assignee  string    `json:"assignee,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsDone returns true if the task is marked done.
func (t Task) IsDone() bool {
	return t.Signal == SignalDone
}

// Card is a named container of tasks for one list.
type Card struct {
	ID       uuid.UUID `json:"id"`
	List     ListKind  `json:"listKind"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Date     time.Time `json:"date"`
	Dots     int       `json:"dots"`
	Tasks    []Task    `json:"tasks"`
	Archived bool      `json:"isArchived"`
}

// NewCard returns an empty, active card for the list with the list's
// default title and subtitle.
func NewCard(kind ListKind, now time.Time) Card {
	return Card{
		ID:       uuid.New(),
		List:     kind,
		Title:    kind.Title(),
		Subtitle: kind.Subtitle(),
		Date:     Timestamp(now),
	}
}

// Timestamp strips the monotonic reading and location from t so that it
// survives an encode and decode unchanged.
func Timestamp(t time.Time) time.Time {
	return t.Round(0).UTC()
}

// Clone returns a copy of the card that shares no task storage with c.
func (c Card) Clone() Card {
	if c.Tasks != nil {
		tasks := make([]Task, len(c.Tasks))
		copy(tasks, c.Tasks)
		c.Tasks = tasks
	}
	return c
}

// indexOf returns the position of the first task with the id, or -1.
func (c *Card) indexOf(id uuid.UUID) int {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Task returns the task with the given id.
func (c Card) Task(id uuid.UUID) (Task, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Tasks[i], true
	}
	return Task{}, false
}

// Unfinished returns the tasks whose signal is not done, in card order.
func (c Card) Unfinished() []Task {
	var out []Task
	for _, t := range c.Tasks {
		if !t.IsDone() {
			out = append(out, t)
		}
	}
	return out
}

func clampDots(v int) int {
	return max(0, min(v, MaxDots))
}
