package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Storage is the persistence gateway the board writes through.
//
// Load returns false when there is no usable snapshot. Save is best effort:
// implementations log their own failures and never report them back.
type Storage interface {
	Load() (State, bool)
	Save(State)
}

// Option configures a Board.
type Option func(*Board)

// WithState starts the board from st instead of loading from storage.
func WithState(st State) Option {
	return func(b *Board) {
		s := st.Clone()
		b.initial = &s
	}
}

// WithClock sets the time source used for new tasks and cards.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithSeed sets the state used when storage has no snapshot.
func WithSeed(seed func(now time.Time) State) Option {
	return func(b *Board) { b.seed = seed }
}

// Board owns the three active cards and the archive.
//
// A Board is not safe for concurrent use. Callers that share one across
// goroutines must serialize every call (see pkg/server).
type Board struct {
	storage Storage
	logger  *log.Logger
	now     func() time.Time
	seed    func(time.Time) State
	initial *State

	active   [numLists]Card
	archive  []Card
	selected ListKind

	subs   map[int]func(State)
	nextID int
}

// New builds a board backed by storage. Unless WithState is given, the board
// starts from storage.Load(), falling back to the seed state (SampleState by
// default) when nothing usable is stored.
func New(storage Storage, opts ...Option) *Board {
	b := &Board{
		storage: storage,
		logger:  log.Default(),
		now:     time.Now,
		seed:    SampleState,
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(b)
	}
	clock := b.now
	b.now = func() time.Time { return Timestamp(clock()) }

	switch {
	case b.initial != nil:
		b.adopt(*b.initial)
		b.initial = nil
	default:
		if st, ok := storage.Load(); ok {
			b.adopt(st)
		} else {
			b.logger.Debug("no stored board, starting from seed")
			b.adopt(b.seed(b.now()))
		}
	}
	return b
}

// adopt replaces the in-memory state, synthesizing a default card for any
// list the state does not carry.
func (b *Board) adopt(st State) {
	now := b.now()
	for _, k := range Lists {
		c, ok := st.ActiveCards[k]
		if !ok {
			c = NewCard(k, now)
		}
		c = c.Clone()
		c.List = k
		c.Dots = clampDots(c.Dots)
		b.active[k.index()] = c
	}
	b.archive = make([]Card, len(st.Archive))
	for i, c := range st.Archive {
		b.archive[i] = c.Clone()
	}
	b.selected = st.SelectedTab
	if !b.selected.Valid() {
		b.selected = ListToday
	}
}

// Card returns a copy of the active card for the list.
func (b *Board) Card(kind ListKind) Card {
	i := kind.index()
	if i < 0 {
		return NewCard(kind, b.now())
	}
	return b.active[i].Clone()
}

// Snapshot returns a deep copy of the current board state.
func (b *Board) Snapshot() State {
	st := State{
		ActiveCards: make(map[ListKind]Card, numLists),
		Archive:     make([]Card, len(b.archive)),
		SelectedTab: b.selected,
	}
	for _, k := range Lists {
		st.ActiveCards[k] = b.active[k.index()].Clone()
	}
	for i, c := range b.archive {
		st.Archive[i] = c.Clone()
	}
	return st
}

// Archive returns the archived cards, newest first.
func (b *Board) Archive() []Card {
	return b.RecentArchive(len(b.archive))
}

// RecentArchive returns at most n archived cards, newest first.
func (b *Board) RecentArchive(n int) []Card {
	n = max(0, min(n, len(b.archive)))
	out := make([]Card, n)
	for i := range out {
		out[i] = b.archive[i].Clone()
	}
	return out
}

// SelectedTab returns the list the front end last focused.
func (b *Board) SelectedTab() ListKind {
	return b.selected
}

// TodayCount returns the number of tasks on the today card.
func (b *Board) TodayCount() int {
	return len(b.active[ListToday.index()].Tasks)
}

// TodayCapacityText describes how much of today's capacity is used.
func (b *Board) TodayCapacityText() string {
	return fmt.Sprintf("%d/%d slots used", b.TodayCount(), TodayLimit)
}

func (b *Board) todayFull() bool {
	return b.TodayCount() >= TodayLimit
}

// SelectTab records the focused list.
func (b *Board) SelectTab(kind ListKind) bool {
	if !kind.Valid() {
		return false
	}
	b.selected = kind
	b.persist()
	return true
}

// SetDots sets the card's dot rating, clamped to [0,3].
func (b *Board) SetDots(kind ListKind, value int) {
	if !kind.Valid() {
		return
	}
	c := b.active[kind.index()]
	c.Dots = clampDots(value)
	b.commit(c)
}

// AddTask appends a new task to the list. It fails when the trimmed text is
// empty or when the today card is already at TodayLimit.
func (b *Board) AddTask(text string, kind ListKind) bool {
	text = strings.TrimSpace(text)
	if text == "" || !kind.Valid() {
		return false
	}
	if kind == ListToday && b.todayFull() {
		b.logger.Debug("today is full", "limit", TodayLimit)
		return false
	}

	c := b.active[kind.index()]
	c.Tasks = append(c.Tasks[:len(c.Tasks):len(c.Tasks)], Task{
		ID:        uuid.New(),
		Text:      text,
		Signal:    SignalEmpty,
		CreatedAt: b.now(),
	})
	b.commit(c)
	return true
}

// ToggleSignal advances the task's signal to Signal.Next().
func (b *Board) ToggleSignal(id uuid.UUID, kind ListKind) bool {
	return b.updateTask(id, kind, func(t *Task) bool {
		t.Signal = t.Signal.Next()
		return true
	})
}

// SetSignal assigns a signal directly, bypassing the cycle.
func (b *Board) SetSignal(id uuid.UUID, kind ListKind, signal Signal) bool {
	if !signal.Valid() {
		return false
	}
	return b.updateTask(id, kind, func(t *Task) bool {
		t.Signal = signal
		return true
	})
}

// EditTask replaces the task's text. Empty text is rejected.
func (b *Board) EditTask(id uuid.UUID, kind ListKind, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return b.updateTask(id, kind, func(t *Task) bool {
		t.Text = text
		return true
	})
}

// SetAssignee sets who a task is delegated to. An empty name clears it.
func (b *Board) SetAssignee(id uuid.UUID, kind ListKind, who string) bool {
	who = strings.TrimSpace(who)
	return b.updateTask(id, kind, func(t *Task) bool {
		t.Assignee = who
		return true
	})
}

// SetNote sets the task's note. An empty note clears it.
func (b *Board) SetNote(id uuid.UUID, kind ListKind, note string) bool {
	note = strings.TrimSpace(note)
	return b.updateTask(id, kind, func(t *Task) bool {
		t.Note = note
		return true
	})
}

// MoveTask moves a task from one list to the end of another. Moving into
// today fails when today is already at TodayLimit, counted before the move.
// The signal resets to empty when the lists differ; moving within the same
// list only sends the task to the end.
func (b *Board) MoveTask(id uuid.UUID, from, to ListKind) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == ListToday && b.todayFull() {
		b.logger.Debug("move rejected, today is full", "task", id)
		return false
	}

	src := b.active[from.index()]
	i := src.indexOf(id)
	if i < 0 {
		return false
	}
	task := src.Tasks[i]
	src.Tasks = append(src.Tasks[:i:i], src.Tasks[i+1:]...)
	b.active[from.index()] = src

	dst := b.active[to.index()]
	if to != from {
		task.Signal = SignalEmpty
	}
	dst.Tasks = append(dst.Tasks[:len(dst.Tasks):len(dst.Tasks)], task)
	b.commit(dst)
	return true
}

// RemoveTask deletes the first task with the id from the list.
func (b *Board) RemoveTask(id uuid.UUID, kind ListKind) bool {
	if !kind.Valid() {
		return false
	}
	c := b.active[kind.index()]
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.Tasks = append(c.Tasks[:i:i], c.Tasks[i+1:]...)
	b.commit(c)
	return true
}

// CloseToday archives the today card and starts a fresh one with the same
// title and subtitle. When moveIncompleteToNext is set, every task that is
// not done is appended to next with its signal forced to in progress.
func (b *Board) CloseToday(moveIncompleteToNext bool) {
	old := b.active[ListToday.index()]
	old.Archived = true
	b.archive = append([]Card{old}, b.archive...)

	unfinished := old.Unfinished()
	if moveIncompleteToNext && len(unfinished) > 0 {
		next := b.active[ListNext.index()]
		next.Tasks = next.Tasks[:len(next.Tasks):len(next.Tasks)]
		for _, t := range unfinished {
			t.Signal = SignalInProgress
			next.Tasks = append(next.Tasks, t)
		}
		b.active[ListNext.index()] = next
	}

	fresh := NewCard(ListToday, b.now())
	fresh.Title = old.Title
	fresh.Subtitle = old.Subtitle

	b.logger.Info("closed today",
		"archived", len(old.Tasks),
		"unfinished", len(unfinished),
		"carried", moveIncompleteToNext)
	b.commit(fresh)
}

// Reload re-reads the stored snapshot and adopts it without saving.
// Subscribers are notified when a snapshot was found.
func (b *Board) Reload() bool {
	st, ok := b.storage.Load()
	if !ok {
		return false
	}
	b.adopt(st)
	b.notify(b.Snapshot())
	return true
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned func removes the subscription.
func (b *Board) Subscribe(fn func(State)) func() {
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() { delete(b.subs, id) }
}

// updateTask applies fn to the task in place and commits if fn reports a
// change.
func (b *Board) updateTask(id uuid.UUID, kind ListKind, fn func(*Task) bool) bool {
	if !kind.Valid() {
		return false
	}
	c := b.active[kind.index()].Clone()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	if !fn(&c.Tasks[i]) {
		return false
	}
	b.commit(c)
	return true
}

// commit writes the card back to the active set and persists the board.
// Every successful mutation goes through here.
func (b *Board) commit(c Card) {
	b.active[c.List.index()] = c
	b.persist()
}

func (b *Board) persist() {
	st := b.Snapshot()
	b.storage.Save(st)
	b.notify(st)
}

func (b *Board) notify(st State) {
	for _, fn := range b.subs {
		fn(st.Clone())
	}
}
