package board

import (
	"time"

	"github.com/google/uuid"
)

// SampleState returns the first-run board: a few tasks on every list and one
// archived day.
func SampleState(now time.Time) State {
	now = Timestamp(now)
	task := func(text string, s Signal) Task {
		return Task{ID: uuid.New(), Text: text, Signal: s, CreatedAt: now}
	}

	today := NewCard(ListToday, now)
	today.Subtitle = "Ship 1-3 things that matter"
	today.Dots = 2
	today.Tasks = []Task{
		task("Draft board structure", SignalInProgress),
		task("Pull 3 tasks from Next", SignalDelegated),
		task("Block 90 mins focus session", SignalEmpty),
	}

	next := NewCard(ListNext, now)
	next.Subtitle = "Important but not forced into today"
	next.Tasks = []Task{
		task("Sketch focus mode", SignalEmpty),
		task("Define export format", SignalEmpty),
		task("Prep export to Markdown", SignalInProgress),
		task("Research notification cues", SignalDelegated),
	}

	someday := NewCard(ListSomeday, now)
	someday.Tasks = []Task{
		task("Add texture pack", SignalEmpty),
		task("Explore handwriting capture", SignalEmpty),
		task("Try linked cards for projects", SignalEmpty),
	}

	yesterday := NewCard(ListToday, now.Add(-24*time.Hour))
	yesterday.Subtitle = "Yesterday"
	yesterday.Dots = 3
	yesterday.Archived = true
	yesterday.Tasks = []Task{
		task("Storyboard onboarding", SignalDone),
		task("Write release notes", SignalDone),
		task("Refine card divider concept", SignalDone),
	}

	return State{
		ActiveCards: map[ListKind]Card{
			ListToday:   today,
			ListNext:    next,
			ListSomeday: someday,
		},
		Archive:     []Card{yesterday},
		SelectedTab: ListToday,
	}
}
