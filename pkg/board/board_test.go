package board

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage records every save and serves the last one back.
type memStorage struct {
	stored *State
	saves  int
}

func (m *memStorage) Load() (State, bool) {
	if m.stored == nil {
		return State{}, false
	}
	return m.stored.Clone(), true
}

func (m *memStorage) Save(st State) {
	s := st.Clone()
	m.stored = &s
	m.saves++
}

var testNow = time.Date(2026, 2, 8, 9, 30, 0, 0, time.UTC)

func setupTestBoard(t *testing.T) (*Board, *memStorage) {
	t.Helper()
	mem := &memStorage{}
	b := New(mem,
		WithState(EmptyState(testNow)),
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(io.Discard)),
	)
	return b, mem
}

func addTasks(t *testing.T, b *Board, kind ListKind, texts ...string) []uuid.UUID {
	t.Helper()
	for _, text := range texts {
		require.True(t, b.AddTask(text, kind), "add %q", text)
	}
	var ids []uuid.UUID
	for _, task := range b.Card(kind).Tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestNewSeedsWhenStorageEmpty(t *testing.T) {
	mem := &memStorage{}
	b := New(mem, WithLogger(log.New(io.Discard)))

	assert.Len(t, b.Card(ListToday).Tasks, 3)
	assert.Len(t, b.Card(ListNext).Tasks, 4)
	assert.Len(t, b.Archive(), 1)
	assert.Equal(t, 0, mem.saves, "loading must not save")
}

func TestNewLoadsFromStorage(t *testing.T) {
	st := EmptyState(testNow)
	st.SelectedTab = ListSomeday
	mem := &memStorage{stored: &st}

	b := New(mem, WithLogger(log.New(io.Discard)))
	assert.Equal(t, ListSomeday, b.SelectedTab())
	assert.Empty(t, b.Card(ListToday).Tasks)
	assert.Empty(t, b.Archive())
}

func TestNewSynthesizesMissingCards(t *testing.T) {
	st := State{
		ActiveCards: map[ListKind]Card{ListNext: NewCard(ListNext, testNow)},
		SelectedTab: ListNext,
	}
	b := New(&memStorage{}, WithState(st), WithClock(func() time.Time { return testNow }))

	for _, k := range Lists {
		c := b.Card(k)
		assert.Equal(t, k, c.List)
		assert.Equal(t, k.Title(), c.Title)
		assert.Equal(t, k.Subtitle(), c.Subtitle)
		assert.Equal(t, 0, c.Dots)
		assert.Empty(t, c.Tasks)
	}
}

func TestBoardTimestampsAreUTCWithoutMonotonic(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	local := time.Now().In(zone)
	b := New(&memStorage{},
		WithState(EmptyState(local)),
		WithClock(func() time.Time { return local }),
		WithLogger(log.New(io.Discard)),
	)
	addTasks(t, b, ListToday, "stamp")
	b.CloseToday(false)

	want := local.Round(0).UTC()
	created := b.Archive()[0].Tasks[0].CreatedAt
	assert.Equal(t, want, created)
	assert.Equal(t, time.UTC, created.Location())
	assert.Equal(t, want, b.Card(ListToday).Date)
	assert.True(t, assert.ObjectsAreEqual(want, b.Card(ListNext).Date))
}

func TestCardIsACopy(t *testing.T) {
	b, _ := setupTestBoard(t)
	addTasks(t, b, ListNext, "one")

	c := b.Card(ListNext)
	c.Tasks[0].Text = "mutated"
	c.Tasks = append(c.Tasks, Task{Text: "extra"})

	assert.Equal(t, "one", b.Card(ListNext).Tasks[0].Text)
	assert.Len(t, b.Card(ListNext).Tasks, 1)
}

func TestSetDotsClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-4, 0},
		{0, 0},
		{2, 2},
		{3, 3},
		{9, 3},
	}
	b, mem := setupTestBoard(t)
	for _, tt := range tests {
		b.SetDots(ListSomeday, tt.in)
		assert.Equal(t, tt.want, b.Card(ListSomeday).Dots, "SetDots(%d)", tt.in)
	}
	assert.Equal(t, len(tests), mem.saves)
}

func TestAddTask(t *testing.T) {
	b, mem := setupTestBoard(t)

	ok := b.AddTask("  Write the report \n", ListNext)
	require.True(t, ok)

	tasks := b.Card(ListNext).Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write the report", tasks[0].Text)
	assert.Equal(t, SignalEmpty, tasks[0].Signal)
	assert.Equal(t, testNow, tasks[0].CreatedAt)
	assert.NotEqual(t, uuid.Nil, tasks[0].ID)

	require.NotNil(t, mem.stored)
	assert.Len(t, mem.stored.ActiveCards[ListNext].Tasks, 1)
}

func TestAddTaskRejectsBlankText(t *testing.T) {
	b, mem := setupTestBoard(t)
	before := b.Snapshot()

	assert.False(t, b.AddTask("", ListToday))
	assert.False(t, b.AddTask("   ", ListToday))
	assert.False(t, b.AddTask("\t\n", ListNext))

	assert.Equal(t, before, b.Snapshot())
	assert.Equal(t, 0, mem.saves)
}

func TestAddTaskTodayCapacity(t *testing.T) {
	b, _ := setupTestBoard(t)

	for i := 0; i < TodayLimit; i++ {
		require.True(t, b.AddTask("task", ListToday), "task %d", i+1)
	}
	assert.False(t, b.AddTask("one too many", ListToday))
	assert.Len(t, b.Card(ListToday).Tasks, TodayLimit)
	assert.Equal(t, "10/10 slots used", b.TodayCapacityText())

	// Other lists are unbounded.
	for i := 0; i < TodayLimit+5; i++ {
		require.True(t, b.AddTask("later", ListSomeday))
	}
	assert.Len(t, b.Card(ListSomeday).Tasks, TodayLimit+5)
}

func TestTodayCapacityText(t *testing.T) {
	b, _ := setupTestBoard(t)
	assert.Equal(t, "0/10 slots used", b.TodayCapacityText())
	addTasks(t, b, ListToday, "a", "b", "c")
	assert.Equal(t, "3/10 slots used", b.TodayCapacityText())
}

func TestToggleSignalCycles(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListToday, "cycle me")[0]

	want := []Signal{SignalInProgress, SignalDelegated, SignalDone, SignalEmpty, SignalInProgress}
	for i, w := range want {
		require.True(t, b.ToggleSignal(id, ListToday))
		task, ok := b.Card(ListToday).Task(id)
		require.True(t, ok)
		assert.Equal(t, w, task.Signal, "after %d toggles", i+1)
	}
}

func TestToggleSignalFromCanceled(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListNext, "dropped")[0]

	require.True(t, b.SetSignal(id, ListNext, SignalCanceled))
	require.True(t, b.ToggleSignal(id, ListNext))
	task, _ := b.Card(ListNext).Task(id)
	assert.Equal(t, SignalEmpty, task.Signal)
}

func TestToggleSignalMissingTask(t *testing.T) {
	b, mem := setupTestBoard(t)
	id := addTasks(t, b, ListNext, "here")[0]
	saves := mem.saves

	assert.False(t, b.ToggleSignal(uuid.New(), ListNext))
	// Right id, wrong list.
	assert.False(t, b.ToggleSignal(id, ListToday))
	assert.Equal(t, saves, mem.saves)
}

func TestSetSignal(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListToday, "task")[0]

	for _, s := range Signals {
		require.True(t, b.SetSignal(id, ListToday, s))
		task, _ := b.Card(ListToday).Task(id)
		assert.Equal(t, s, task.Signal)
	}

	assert.False(t, b.SetSignal(id, ListToday, Signal("bogus")))
	assert.False(t, b.SetSignal(uuid.New(), ListToday, SignalDone))
}

func TestMoveTaskBetweenLists(t *testing.T) {
	b, mem := setupTestBoard(t)
	ids := addTasks(t, b, ListNext, "first", "second", "third")
	addTasks(t, b, ListSomeday, "existing")
	require.True(t, b.SetSignal(ids[1], ListNext, SignalDone))

	ok := b.MoveTask(ids[1], ListNext, ListSomeday)
	require.True(t, ok)

	next := b.Card(ListNext).Tasks
	require.Len(t, next, 2)
	assert.Equal(t, "first", next[0].Text)
	assert.Equal(t, "third", next[1].Text)

	someday := b.Card(ListSomeday).Tasks
	require.Len(t, someday, 2)
	moved := someday[len(someday)-1]
	assert.Equal(t, ids[1], moved.ID)
	assert.Equal(t, "second", moved.Text)
	assert.Equal(t, SignalEmpty, moved.Signal)

	assert.Len(t, mem.stored.ActiveCards[ListNext].Tasks, 2)
	assert.Len(t, mem.stored.ActiveCards[ListSomeday].Tasks, 2)
}

func TestMoveTaskIntoFullToday(t *testing.T) {
	b, mem := setupTestBoard(t)
	for i := 0; i < TodayLimit; i++ {
		require.True(t, b.AddTask("today", ListToday))
	}
	id := addTasks(t, b, ListNext, "waiting")[0]
	before := b.Snapshot()
	saves := mem.saves

	assert.False(t, b.MoveTask(id, ListNext, ListToday))
	assert.Equal(t, before, b.Snapshot())
	assert.Equal(t, saves, mem.saves)
}

func TestMoveTaskNotFound(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListNext, "task")[0]
	before := b.Snapshot()

	assert.False(t, b.MoveTask(uuid.New(), ListNext, ListSomeday))
	assert.False(t, b.MoveTask(id, ListSomeday, ListNext))
	assert.Equal(t, before, b.Snapshot())
}

func TestMoveTaskSameListSendsToEnd(t *testing.T) {
	b, _ := setupTestBoard(t)
	ids := addTasks(t, b, ListNext, "a", "b", "c")
	require.True(t, b.SetSignal(ids[0], ListNext, SignalDelegated))

	require.True(t, b.MoveTask(ids[0], ListNext, ListNext))

	tasks := b.Card(ListNext).Tasks
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{tasks[0].Text, tasks[1].Text, tasks[2].Text})
	assert.Equal(t, SignalDelegated, tasks[2].Signal, "same-list move keeps the signal")
}

func TestMoveTaskPreservesIdentity(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListSomeday, "travel")[0]
	require.True(t, b.SetNote(id, ListSomeday, "remember passport"))

	require.True(t, b.MoveTask(id, ListSomeday, ListNext))
	require.True(t, b.MoveTask(id, ListNext, ListToday))

	task, ok := b.Card(ListToday).Task(id)
	require.True(t, ok)
	assert.Equal(t, "travel", task.Text)
	assert.Equal(t, "remember passport", task.Note)
	assert.Empty(t, b.Card(ListNext).Tasks)
	assert.Empty(t, b.Card(ListSomeday).Tasks)
}

func TestRemoveTask(t *testing.T) {
	b, _ := setupTestBoard(t)
	ids := addTasks(t, b, ListToday, "a", "b", "c")

	require.True(t, b.RemoveTask(ids[1], ListToday))
	tasks := b.Card(ListToday).Tasks
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Text)
	assert.Equal(t, "c", tasks[1].Text)

	assert.False(t, b.RemoveTask(ids[1], ListToday))
	assert.Len(t, b.Card(ListToday).Tasks, 2)
}

func TestCloseTodayCarriesIncomplete(t *testing.T) {
	b, mem := setupTestBoard(t)
	ids := addTasks(t, b, ListToday, "finished", "started", "dropped")
	require.True(t, b.SetSignal(ids[0], ListToday, SignalDone))
	require.True(t, b.SetSignal(ids[1], ListToday, SignalInProgress))
	require.True(t, b.SetSignal(ids[2], ListToday, SignalCanceled))
	b.SetDots(ListToday, 2)
	addTasks(t, b, ListNext, "already next")
	oldToday := b.Card(ListToday)

	b.CloseToday(true)

	archive := b.Archive()
	require.Len(t, archive, 1)
	archived := archive[0]
	assert.True(t, archived.Archived)
	assert.Equal(t, oldToday.ID, archived.ID)
	assert.Equal(t, oldToday.Date, archived.Date)
	assert.Equal(t, 2, archived.Dots)
	assert.Equal(t, oldToday.Tasks, archived.Tasks, "archived tasks are unmodified")

	next := b.Card(ListNext).Tasks
	require.Len(t, next, 3)
	assert.Equal(t, "already next", next[0].Text)
	assert.Equal(t, ids[1], next[1].ID)
	assert.Equal(t, ids[2], next[2].ID)
	assert.Equal(t, SignalInProgress, next[1].Signal)
	assert.Equal(t, SignalInProgress, next[2].Signal)

	today := b.Card(ListToday)
	assert.Empty(t, today.Tasks)
	assert.Equal(t, 0, today.Dots)
	assert.False(t, today.Archived)
	assert.Equal(t, oldToday.Title, today.Title)
	assert.Equal(t, oldToday.Subtitle, today.Subtitle)
	assert.NotEqual(t, oldToday.ID, today.ID)

	require.NotNil(t, mem.stored)
	assert.Len(t, mem.stored.Archive, 1)
	assert.Len(t, mem.stored.ActiveCards[ListNext].Tasks, 3)
	assert.Empty(t, mem.stored.ActiveCards[ListToday].Tasks)
}

func TestCloseTodayWithoutCarry(t *testing.T) {
	b, _ := setupTestBoard(t)
	ids := addTasks(t, b, ListToday, "done", "open")
	require.True(t, b.SetSignal(ids[0], ListToday, SignalDone))

	b.CloseToday(false)

	assert.Empty(t, b.Card(ListNext).Tasks)
	assert.Empty(t, b.Card(ListToday).Tasks)
	require.Len(t, b.Archive(), 1)
	assert.Len(t, b.Archive()[0].Tasks, 2)
}

func TestCloseTodayArchiveNewestFirst(t *testing.T) {
	clock := testNow
	b := New(&memStorage{},
		WithState(EmptyState(clock)),
		WithClock(func() time.Time { return clock }),
		WithLogger(log.New(io.Discard)),
	)

	var archivedIDs []uuid.UUID
	for day := 0; day < 3; day++ {
		archivedIDs = append(archivedIDs, b.Card(ListToday).ID)
		clock = clock.Add(24 * time.Hour)
		b.CloseToday(true)
	}

	archive := b.Archive()
	require.Len(t, archive, 3)
	assert.Equal(t, archivedIDs[2], archive[0].ID)
	assert.Equal(t, archivedIDs[1], archive[1].ID)
	assert.Equal(t, archivedIDs[0], archive[2].ID)
	assert.Equal(t, clock, b.Card(ListToday).Date)

	recent := b.RecentArchive(2)
	require.Len(t, recent, 2)
	assert.Equal(t, archivedIDs[2], recent[0].ID)
	assert.Len(t, b.RecentArchive(10), 3)
}

func TestArchivedCardsAreNotMutatedLater(t *testing.T) {
	b, _ := setupTestBoard(t)
	ids := addTasks(t, b, ListToday, "carry me")
	b.CloseToday(true)

	require.True(t, b.ToggleSignal(ids[0], ListNext))
	require.True(t, b.EditTask(ids[0], ListNext, "renamed"))

	archived := b.Archive()[0].Tasks[0]
	assert.Equal(t, "carry me", archived.Text)
	assert.Equal(t, SignalEmpty, archived.Signal)
}

func TestTodayNeverExceedsLimit(t *testing.T) {
	b, _ := setupTestBoard(t)
	addTasks(t, b, ListNext, "n1", "n2", "n3", "n4", "n5", "n6")

	for i := 0; i < 3*TodayLimit; i++ {
		b.AddTask("t", ListToday)
		if next := b.Card(ListNext).Tasks; len(next) > 0 {
			b.MoveTask(next[0].ID, ListNext, ListToday)
		}
		if i%7 == 6 {
			b.CloseToday(true)
			// Refill next from what carried over.
			for _, task := range b.Card(ListNext).Tasks {
				b.MoveTask(task.ID, ListNext, ListToday)
			}
		}
		require.LessOrEqual(t, len(b.Card(ListToday).Tasks), TodayLimit)
	}
}

func TestEditTaskAndMetadata(t *testing.T) {
	b, _ := setupTestBoard(t)
	id := addTasks(t, b, ListNext, "draft")[0]

	assert.True(t, b.EditTask(id, ListNext, "  final  "))
	assert.False(t, b.EditTask(id, ListNext, "   "))
	assert.True(t, b.SetAssignee(id, ListNext, "sam"))
	assert.True(t, b.SetNote(id, ListNext, "due friday"))

	task, _ := b.Card(ListNext).Task(id)
	assert.Equal(t, "final", task.Text)
	assert.Equal(t, "sam", task.Assignee)
	assert.Equal(t, "due friday", task.Note)

	assert.True(t, b.SetAssignee(id, ListNext, ""))
	task, _ = b.Card(ListNext).Task(id)
	assert.Empty(t, task.Assignee)

	assert.False(t, b.SetNote(uuid.New(), ListNext, "x"))
}

func TestSelectTab(t *testing.T) {
	b, mem := setupTestBoard(t)

	assert.True(t, b.SelectTab(ListSomeday))
	assert.Equal(t, ListSomeday, b.SelectedTab())
	assert.Equal(t, ListSomeday, mem.stored.SelectedTab)

	assert.False(t, b.SelectTab(ListKind("later")))
	assert.Equal(t, ListSomeday, b.SelectedTab())
}

func TestSubscribe(t *testing.T) {
	b, _ := setupTestBoard(t)

	var got []State
	unsubscribe := b.Subscribe(func(st State) { got = append(got, st) })

	addTasks(t, b, ListNext, "one")
	b.SetDots(ListNext, 1)
	require.Len(t, got, 2)
	assert.Len(t, got[0].ActiveCards[ListNext].Tasks, 1)
	assert.Equal(t, 1, got[1].ActiveCards[ListNext].Dots)

	// Snapshots handed to subscribers are independent of the board.
	got[1].ActiveCards[ListNext].Tasks[0].Text = "changed"
	assert.Equal(t, "one", b.Card(ListNext).Tasks[0].Text)

	unsubscribe()
	b.SetDots(ListNext, 2)
	assert.Len(t, got, 2)

	// Failed operations do not notify.
	b.Subscribe(func(st State) { got = append(got, st) })
	b.AddTask("", ListNext)
	assert.Len(t, got, 2)
}

func TestReload(t *testing.T) {
	b, mem := setupTestBoard(t)
	addTasks(t, b, ListNext, "local")

	external := EmptyState(testNow)
	external.SelectedTab = ListNext
	c := external.ActiveCards[ListSomeday]
	c.Tasks = []Task{{ID: uuid.New(), Text: "from disk", Signal: SignalDone, CreatedAt: testNow}}
	external.ActiveCards[ListSomeday] = c
	mem.stored = &external
	saves := mem.saves

	var notified int
	b.Subscribe(func(State) { notified++ })

	require.True(t, b.Reload())
	assert.Empty(t, b.Card(ListNext).Tasks)
	assert.Equal(t, "from disk", b.Card(ListSomeday).Tasks[0].Text)
	assert.Equal(t, ListNext, b.SelectedTab())
	assert.Equal(t, saves, mem.saves, "reload must not save")
	assert.Equal(t, 1, notified)

	mem.stored = nil
	assert.False(t, b.Reload())
}

func TestInvalidListKindsAreRejected(t *testing.T) {
	b, mem := setupTestBoard(t)
	bogus := ListKind("inbox")

	assert.False(t, b.AddTask("x", bogus))
	assert.False(t, b.MoveTask(uuid.New(), bogus, ListNext))
	assert.False(t, b.RemoveTask(uuid.New(), bogus))
	b.SetDots(bogus, 2)
	assert.Equal(t, 0, mem.saves)
	assert.Equal(t, bogus, b.Card(bogus).List)
}
