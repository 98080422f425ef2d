package ledger

import (
	"testing"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// Thursday.
var t0 = time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: t0}
	svc := New(newTestStore(t), WithClock(clock.now), WithDefaults(DefaultDecay, "UTC"))
	return svc, clock
}

// newInitedService returns a service with the default season active.
func newInitedService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	svc, clock := newTestService(t)
	if _, _, err := svc.Init(false, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	return svc, clock
}

func ptr[T any](v T) *T { return &v }

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func addCompleted(t *testing.T, svc *Service, desc, difficulty string, minutes float64) *store.Task {
	t.Helper()
	task, err := svc.AddTask(NewTask{Description: desc, Difficulty: difficulty, Completed: true, DurationMinutes: &minutes})
	if err != nil {
		t.Fatalf("add %q: %v", desc, err)
	}
	return task
}

func gain(t *testing.T, task *store.Task) float64 {
	t.Helper()
	if task.LPGain == nil {
		t.Fatalf("task %d has no gain", task.ID)
	}
	return *task.LPGain
}

// ============================================================
// Init
// ============================================================

func TestCurrentSeasonBeforeInit(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CurrentSeason()
	wantKind(t, err, apperr.State)

	_, err = svc.AddTask(NewTask{Description: "x"})
	wantKind(t, err, apperr.State)
}

func TestInitCreatesDefaultSeason(t *testing.T) {
	svc, _ := newTestService(t)

	se, created, err := svc.Init(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if !created || se.Name != DefaultSeasonName || !se.Active {
		t.Fatalf("unexpected init result %+v created=%v", se, created)
	}
	if se.DailyDecay != DefaultDecay || se.Timezone != "UTC" {
		t.Fatalf("expected configured defaults, got %+v", se)
	}
	if !se.StartDate.Equal(t0) {
		t.Fatalf("start = %v, want %v", se.StartDate, t0)
	}

	again, created, err := svc.Init(false, false)
	if err != nil || created || again.ID != se.ID {
		t.Fatalf("second init should be a no-op: %+v %v %v", again, created, err)
	}
}

func TestInitForce(t *testing.T) {
	svc, _ := newInitedService(t)
	addCompleted(t, svc, "x", "Easy", 60)

	_, _, err := svc.Init(true, false)
	wantKind(t, err, apperr.ConfirmationRequired)
	if tasks, _ := svc.ListCompletedTasks(0); len(tasks) != 1 {
		t.Fatal("unconfirmed init must not touch data")
	}

	se, created, err := svc.Init(true, true)
	if err != nil || !created || se.ID != 1 {
		t.Fatalf("forced init: %+v %v %v", se, created, err)
	}
	if tasks, _ := svc.ListCompletedTasks(0); len(tasks) != 0 {
		t.Fatal("forced init should discard tasks")
	}
}

// ============================================================
// Seasons
// ============================================================

func TestStartSeasonValidation(t *testing.T) {
	svc, _ := newInitedService(t)

	_, err := svc.StartSeason("   ")
	wantKind(t, err, apperr.Validation)

	_, err = svc.StartSeason(DefaultSeasonName)
	wantKind(t, err, apperr.Validation)
}

func TestStartSetsEndDateSwitchDoesNot(t *testing.T) {
	svc, clock := newInitedService(t)
	first, _ := svc.CurrentSeason()

	clock.advance(48 * time.Hour)
	second, err := svc.StartSeason("Summer")
	if err != nil {
		t.Fatal(err)
	}

	seasons, _ := svc.ListSeasons()
	if len(seasons) != 2 {
		t.Fatalf("expected 2 seasons, got %d", len(seasons))
	}
	archived := seasons[0]
	if archived.Active || archived.EndDate == nil || !archived.EndDate.Equal(clock.t) {
		t.Fatalf("start should archive the previous season at now: %+v", archived)
	}

	clock.advance(24 * time.Hour)
	if _, err := svc.SwitchSeason(first.ID); err != nil {
		t.Fatal(err)
	}
	seasons, _ = svc.ListSeasons()
	if !seasons[0].EndDate.Equal(t0.Add(48 * time.Hour)) {
		t.Fatalf("switch must not move the end date: %v", seasons[0].EndDate)
	}
	if seasons[1].ID != second.ID || seasons[1].Active || seasons[1].EndDate != nil {
		t.Fatalf("switch must not stamp an end date: %+v", seasons[1])
	}
	if !seasons[0].Active {
		t.Fatal("first season should be active again")
	}
}

func TestSwitchSeasonUnknown(t *testing.T) {
	svc, _ := newInitedService(t)
	_, err := svc.SwitchSeason(42)
	wantKind(t, err, apperr.NotFound)
}

func TestSwitchToActiveSeasonIsNoop(t *testing.T) {
	svc, _ := newInitedService(t)
	cur, _ := svc.CurrentSeason()
	se, err := svc.SwitchSeason(cur.ID)
	if err != nil || !se.Active || se.EndDate != nil {
		t.Fatalf("unexpected %+v %v", se, err)
	}
}

func TestSetDecay(t *testing.T) {
	svc, _ := newInitedService(t)

	_, err := svc.SetDecay(-1)
	wantKind(t, err, apperr.Validation)

	se, err := svc.SetDecay(30)
	if err != nil {
		t.Fatal(err)
	}
	cur, _ := svc.CurrentSeason()
	if se.DailyDecay != 30 || cur.DailyDecay != 30 {
		t.Fatalf("decay not persisted: %+v", cur)
	}
}

func TestSetTimezone(t *testing.T) {
	svc, _ := newInitedService(t)

	_, err := svc.SetTimezone("Mars/Olympus")
	wantKind(t, err, apperr.Validation)

	se, err := svc.SetTimezone("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	if se.Timezone != "Asia/Tokyo" || !se.StartDate.Equal(t0) {
		t.Fatalf("unexpected season %+v", se)
	}
}

func TestSetSeasonStart(t *testing.T) {
	svc, _ := newInitedService(t)

	_, err := svc.SetSeasonStart("yesterday")
	wantKind(t, err, apperr.Validation)

	se, err := svc.SetSeasonStart("2025-06-01 08:30")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	if !se.StartDate.Equal(want) {
		t.Fatalf("start = %v, want %v", se.StartDate, want)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestAddCompletedScenarios(t *testing.T) {
	svc, _ := newInitedService(t)

	if g := gain(t, addCompleted(t, svc, "long", "Hard", 90)); g != 24 {
		t.Fatalf("Hard 90m = %v, want 24", g)
	}
	if g := gain(t, addCompleted(t, svc, "short", "Hard", 40)); g != 12 {
		t.Fatalf("Hard 40m = %v, want 12", g)
	}

	task, err := svc.AddTask(NewTask{Description: "no duration", Difficulty: "Hard", Completed: true})
	if err != nil {
		t.Fatal(err)
	}
	if g := gain(t, task); g != 0 {
		t.Fatalf("no duration should earn 0, got %v", g)
	}
	if task.FinishTime == nil || !task.FinishTime.Equal(t0) {
		t.Fatalf("finish should default to now, got %v", task.FinishTime)
	}
	if task.DOW != "Thu" {
		t.Fatalf("dow = %q, want Thu", task.DOW)
	}
}

func TestAddTaskDefaults(t *testing.T) {
	svc, _ := newInitedService(t)

	task, err := svc.AddTask(NewTask{Description: "  read  ", Project: "books", Difficulty: "3", DOW: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Description != "read" || task.Difficulty != "Med" || task.DOW != "Mon" || task.Project != "books" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Completed || task.LPGain != nil || task.FinishTime != nil {
		t.Fatalf("open task should have no gain or finish: %+v", task)
	}

	noDifficulty, err := svc.AddTask(NewTask{Description: "chores", Completed: true})
	if err != nil {
		t.Fatal(err)
	}
	if noDifficulty.LPGain != nil {
		t.Fatal("completed task without difficulty should have no gain")
	}
}

func TestAddTaskWithFinish(t *testing.T) {
	svc, _ := newInitedService(t)

	task, err := svc.AddTask(NewTask{Description: "run", Difficulty: "Med", Completed: true, Finish: "2025-06-10 18:00"})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	if task.FinishTime == nil || !task.FinishTime.Equal(want) {
		t.Fatalf("finish = %v, want %v", task.FinishTime, want)
	}
	if task.DOW != "Tue" {
		t.Fatalf("dow should follow the finish time, got %q", task.DOW)
	}
}

func TestAddTaskValidation(t *testing.T) {
	svc, _ := newInitedService(t)

	cases := []NewTask{
		{Description: ""},
		{Description: "x", Difficulty: "Extreme"},
		{Description: "x", DOW: "Funday"},
		{Description: "x", DurationMinutes: ptr(-5.0)},
		{Description: "x", Finish: "2025-06-10 18:00"},
		{Description: "x", Completed: true, Finish: "not a date"},
	}
	for _, in := range cases {
		_, err := svc.AddTask(in)
		wantKind(t, err, apperr.Validation)
	}
	if tasks, _ := svc.ListActiveTasks(); len(tasks) != 0 {
		t.Fatalf("invalid adds must not create tasks, got %d", len(tasks))
	}
}

func TestTaskLifecycle(t *testing.T) {
	svc, clock := newInitedService(t)

	task, err := svc.AddTask(NewTask{Description: "study", Difficulty: "Med"})
	if err != nil {
		t.Fatal(err)
	}
	if lp.StateOf(*task) != lp.Created {
		t.Fatalf("state = %s", lp.StateOf(*task))
	}

	task, err = svc.StartTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if lp.StateOf(*task) != lp.InProgress {
		t.Fatalf("state = %s", lp.StateOf(*task))
	}
	running, _ := svc.InProgressTask()
	if running == nil || running.ID != task.ID {
		t.Fatalf("expected task %d in progress, got %+v", task.ID, running)
	}

	clock.advance(50 * time.Minute)
	task, err = svc.StopTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if lp.StateOf(*task) != lp.Stopped {
		t.Fatalf("state = %s", lp.StateOf(*task))
	}

	clock.advance(time.Hour)
	task, err = svc.CompleteTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	// 50 minutes rounds to 45; Med earns 4 per hour.
	if g := gain(t, task); g != 3 {
		t.Fatalf("gain = %v, want 3", g)
	}
	if !task.FinishTime.Equal(t0.Add(50 * time.Minute)) {
		t.Fatalf("done must keep the stop time, got %v", task.FinishTime)
	}
}

func TestDoneStopsRunningTask(t *testing.T) {
	svc, clock := newInitedService(t)
	task, _ := svc.AddTask(NewTask{Description: "deep work", Difficulty: "Hard"})
	svc.StartTask(task.ID)

	clock.advance(90 * time.Minute)
	task, err := svc.CompleteTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !task.FinishTime.Equal(clock.t) {
		t.Fatalf("finish = %v, want now", task.FinishTime)
	}
	if g := gain(t, task); g != 24 {
		t.Fatalf("gain = %v, want 24", g)
	}
}

func TestInvalidTransitions(t *testing.T) {
	svc, _ := newInitedService(t)
	open, _ := svc.AddTask(NewTask{Description: "open"})
	done := addCompleted(t, svc, "done", "Easy", 15)

	_, err := svc.StopTask(open.ID)
	wantKind(t, err, apperr.Validation)

	_, err = svc.StartTask(done.ID)
	wantKind(t, err, apperr.Validation)

	_, err = svc.CompleteTask(done.ID)
	wantKind(t, err, apperr.Validation)

	svc.StartTask(open.ID)
	svc.StopTask(open.ID)
	_, err = svc.StopTask(open.ID)
	wantKind(t, err, apperr.Validation)

	_, err = svc.StartTask(999)
	wantKind(t, err, apperr.NotFound)
}

func TestUpdateRecomputesGain(t *testing.T) {
	svc, _ := newInitedService(t)
	task := addCompleted(t, svc, "gym", "Hard", 90)

	task, err := svc.UpdateTask(task.ID, TaskPatch{Difficulty: ptr("Easy")})
	if err != nil {
		t.Fatal(err)
	}
	if g := gain(t, task); g != 1.5 {
		t.Fatalf("gain after difficulty change = %v, want 1.5", g)
	}

	task, err = svc.UpdateTask(task.ID, TaskPatch{DurationMinutes: ptr(40.0)})
	if err != nil {
		t.Fatal(err)
	}
	if g := gain(t, task); g != 0.75 {
		t.Fatalf("gain after duration change = %v, want 0.75", g)
	}

	task, err = svc.UpdateTask(task.ID, TaskPatch{Difficulty: ptr("")})
	if err != nil {
		t.Fatal(err)
	}
	if task.LPGain != nil {
		t.Fatal("clearing the difficulty should clear the gain")
	}

	stored, _ := svc.GetTask(task.ID)
	if stored.LPGain != nil || stored.Difficulty != "" {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	svc, _ := newInitedService(t)
	task := addCompleted(t, svc, "gym", "Med-Hard", 37.5)
	before := gain(t, task)

	for i := 0; i < 3; i++ {
		var err error
		task, err = svc.UpdateTask(task.ID, TaskPatch{Difficulty: ptr("Med-Hard"), DurationMinutes: ptr(37.5)})
		if err != nil {
			t.Fatal(err)
		}
		if g := gain(t, task); g != before {
			t.Fatalf("update %d changed gain %v -> %v", i, before, g)
		}
	}
	if before != 6 {
		t.Fatalf("37.5 minutes at Med-Hard should earn 6, got %v", before)
	}
}

func TestUpdateOpenTaskHasNoGain(t *testing.T) {
	svc, _ := newInitedService(t)
	task, _ := svc.AddTask(NewTask{Description: "later"})

	task, err := svc.UpdateTask(task.ID, TaskPatch{Difficulty: ptr("Hard"), DurationMinutes: ptr(60.0), Reflection: ptr("plan first")})
	if err != nil {
		t.Fatal(err)
	}
	if task.LPGain != nil || task.Reflection != "plan first" {
		t.Fatalf("unexpected task %+v", task)
	}

	_, err = svc.UpdateTask(task.ID, TaskPatch{Description: ptr(" ")})
	wantKind(t, err, apperr.Validation)
}

func TestUpdateFinishRecomputesFromTimestamps(t *testing.T) {
	svc, clock := newInitedService(t)
	task, _ := svc.AddTask(NewTask{Description: "walk", Difficulty: "Easy-Med"})
	svc.StartTask(task.ID)
	clock.advance(10 * time.Minute)
	task, _ = svc.CompleteTask(task.ID)
	if g := gain(t, task); g != 0.5 {
		t.Fatalf("10 minutes rounds to 15 at 2/h = 0.5, got %v", g)
	}

	task, err := svc.UpdateTask(task.ID, TaskPatch{Finish: ptr("2025-06-12 11:00")})
	if err != nil {
		t.Fatal(err)
	}
	if g := gain(t, task); g != 4 {
		t.Fatalf("two hours at 2/h = 4, got %v", g)
	}
}

func TestListCompletedOrder(t *testing.T) {
	svc, clock := newInitedService(t)
	a := addCompleted(t, svc, "a", "Easy", 15)
	clock.advance(time.Hour)
	b := addCompleted(t, svc, "b", "Easy", 15)
	svc.AddTask(NewTask{Description: "open"})

	tasks, err := svc.ListCompletedTasks(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 || tasks[0].ID != b.ID || tasks[1].ID != a.ID {
		t.Fatalf("unexpected order %+v", tasks)
	}
	if tasks, _ := svc.ListCompletedTasks(1); len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Fatalf("limit not applied: %+v", tasks)
	}
	if open, _ := svc.ListActiveTasks(); len(open) != 1 {
		t.Fatalf("expected 1 open task, got %d", len(open))
	}
}

func TestRecalculateSeason(t *testing.T) {
	st := newTestStore(t)
	clock := &fakeClock{t: t0}
	svc := New(st, WithClock(clock.now), WithDefaults(DefaultDecay, "UTC"))
	svc.Init(false, false)
	se, _ := svc.CurrentSeason()

	stale := 99.0
	legacy, err := st.CreateTask(store.Task{
		SeasonID: se.ID, Description: "legacy", Difficulty: "Medium",
		DurationMinutes: ptr(60.0), LPGain: &stale, Completed: true, CreatedAt: t0,
	})
	if err != nil {
		t.Fatal(err)
	}
	current := addCompleted(t, svc, "current", "Hard", 60)

	changed, err := svc.RecalculateSeason()
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
	got, _ := svc.GetTask(legacy.ID)
	if got.Difficulty != "Med" || gain(t, got) != 4 {
		t.Fatalf("legacy task not normalised: %+v", got)
	}
	got, _ = svc.GetTask(current.ID)
	if gain(t, got) != 16 {
		t.Fatalf("current task changed: %+v", got)
	}
}

// ============================================================
// Season partition and status
// ============================================================

func TestSeasonPartition(t *testing.T) {
	svc, clock := newInitedService(t)
	a, _ := svc.StartSeason("A")
	task := addCompleted(t, svc, "in A", "Med", 60)

	clock.advance(time.Hour)
	if _, err := svc.StartSeason("B"); err != nil {
		t.Fatal(err)
	}
	log, _ := svc.ListCompletedTasks(0)
	if len(log) != 0 {
		t.Fatalf("season B should show no tasks, got %d", len(log))
	}
	_, err := svc.GetTask(task.ID)
	wantKind(t, err, apperr.NotFound)

	if _, err := svc.SwitchSeason(a.ID); err != nil {
		t.Fatal(err)
	}
	log, _ = svc.ListCompletedTasks(0)
	if len(log) != 1 || log[0].ID != task.ID {
		t.Fatalf("season A should show its task again, got %+v", log)
	}
}

func TestStatusScenario(t *testing.T) {
	svc, clock := newInitedService(t)
	if _, err := svc.SetDecay(30); err != nil {
		t.Fatal(err)
	}
	clock.advance(3*24*time.Hour + time.Minute)
	addCompleted(t, svc, "walk", "Easy", 60)

	rep, err := svc.Status()
	if err != nil {
		t.Fatal(err)
	}
	st := rep.Status
	if st.TotalGain != 1 || st.TotalDecay != 90 || st.NetTotal != -89 || st.TodayGain != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
	if rep.Season.Name != DefaultSeasonName {
		t.Fatalf("unexpected season %+v", rep.Season)
	}
}

func TestArchivedSeasonDecayFrozen(t *testing.T) {
	svc, clock := newInitedService(t)
	svc.SetDecay(10)
	first, _ := svc.CurrentSeason()

	clock.advance(2*24*time.Hour + time.Hour)
	svc.StartSeason("next")
	clock.advance(10 * 24 * time.Hour)

	svc.SwitchSeason(first.ID)
	rep, err := svc.Status()
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status.TotalDecay != 20 {
		t.Fatalf("decay should stop at the archive date: %v", rep.Status.TotalDecay)
	}
}

func TestSeriesAndWeek(t *testing.T) {
	svc, clock := newInitedService(t)
	addCompleted(t, svc, "a", "Hard", 60)
	clock.advance(24 * time.Hour)
	addCompleted(t, svc, "b", "Easy", 60)

	_, points, err := svc.Series()
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].Gain != 16 || points[1].CumulativeGain != 17 {
		t.Fatalf("unexpected series %+v", points)
	}

	_, week, err := svc.Week(0)
	if err != nil {
		t.Fatal(err)
	}
	if week.Total != 17 {
		t.Fatalf("week total = %v, want 17", week.Total)
	}
}
