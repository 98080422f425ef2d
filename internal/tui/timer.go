package tui

import (
	"time"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

// timerModel follows the in-progress task and its elapsed time. The clock
// runs from the task's stored start time, so a task started from the
// command line is picked up as well.
type timerModel struct {
	svc *ledger.Service
	now func() time.Time

	task    *store.Task
	elapsed time.Duration

	// Idle detection only flags the display; it never stops the task.
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(svc *ledger.Service, now func() time.Time) timerModel {
	return timerModel{
		svc:          svc,
		now:          now,
		lastActivity: now(),
		idleTimeout:  5 * time.Minute,
	}
}

func (t *timerModel) start(id int64) (*store.Task, error) {
	task, err := t.svc.StartTask(id)
	if err != nil {
		return nil, err
	}
	t.track(task)
	return task, nil
}

// track adopts a task that is already in progress.
func (t *timerModel) track(task *store.Task) {
	t.task = task
	t.isIdle = false
	t.lastActivity = t.now()
	t.tick()
}

func (t *timerModel) clear() {
	t.task = nil
	t.elapsed = 0
	t.isIdle = false
}

func (t *timerModel) stop() (*store.Task, error) {
	if t.task == nil {
		return nil, nil
	}
	task, err := t.svc.StopTask(t.task.ID)
	if err != nil {
		return nil, err
	}
	t.clear()
	return task, nil
}

func (t *timerModel) tick() {
	if t.task == nil || t.task.StartTime == nil {
		return
	}
	t.elapsed = t.now().Sub(*t.task.StartTime)
	if !t.isIdle && t.now().Sub(t.lastActivity) > t.idleTimeout {
		t.isIdle = true
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.now()
	t.isIdle = false
}

func (t timerModel) running() bool {
	return t.task != nil
}

func (t timerModel) taskID() int64 {
	if t.task == nil {
		return 0
	}
	return t.task.ID
}

func (t timerModel) currentElapsed() time.Duration {
	if t.task == nil {
		return 0
	}
	return t.elapsed
}
