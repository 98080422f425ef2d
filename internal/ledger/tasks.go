package ledger

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// NewTask describes a task to add. Empty strings mean "not given".
type NewTask struct {
	Description     string
	Project         string
	Difficulty      string
	DOW             string
	Completed       bool
	DurationMinutes *float64
	Finish          string
}

// TaskPatch lists the fields to change. Nil means unchanged; an empty
// difficulty clears it.
type TaskPatch struct {
	Description     *string
	Project         *string
	Difficulty      *string
	DOW             *string
	DurationMinutes *float64
	Reflection      *string
	Finish          *string
}

func validDuration(m *float64) error {
	if m != nil && (*m < 0 || math.IsNaN(*m) || math.IsInf(*m, 0)) {
		return apperr.Validationf("duration must be a non-negative number of minutes, got %v", *m)
	}
	return nil
}

func normalizeDifficulty(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := lp.ParseDifficulty(s)
	return string(d), err
}

// AddTask creates a task in the active season.
func (s *Service) AddTask(in NewTask) (*store.Task, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apperr.Validationf("task description must not be empty")
	}
	difficulty, err := normalizeDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	if err := validDuration(in.DurationMinutes); err != nil {
		return nil, err
	}
	if in.Finish != "" && !in.Completed {
		return nil, apperr.Validationf("a finish time can only be given for a completed task")
	}

	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	now := s.Now(*se)

	t := store.Task{
		SeasonID:        se.ID,
		Description:     desc,
		Project:         strings.TrimSpace(in.Project),
		Difficulty:      difficulty,
		DurationMinutes: in.DurationMinutes,
		Completed:       in.Completed,
		CreatedAt:       now,
	}
	if in.Completed {
		finish := now
		if in.Finish != "" {
			if finish, err = parseLocalTime(in.Finish, lp.Location(*se)); err != nil {
				return nil, err
			}
		}
		t.FinishTime = &finish
	}

	if in.DOW != "" {
		if t.DOW, err = lp.ParseDayOfWeek(in.DOW); err != nil {
			return nil, err
		}
	} else if t.FinishTime != nil {
		t.DOW = lp.DayOfWeek(t.FinishTime.Weekday())
	} else {
		t.DOW = lp.DayOfWeek(now.Weekday())
	}

	if t.LPGain, err = lp.TaskGain(t); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTask(t)
	if err != nil {
		return nil, err
	}
	s.log.Info("task added", "id", created.ID, "season", se.ID, "completed", created.Completed, "lp", gainValue(created))
	return created, nil
}

// task returns task id when it belongs to the active season.
func (s *Service) task(id int64) (*store.Season, *store.Task, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, nil, err
	}
	t, err := s.store.GetTask(id)
	if isNoRows(err) {
		return nil, nil, apperr.NotFoundf("task %d not found", id)
	}
	if err != nil {
		return nil, nil, err
	}
	if t.SeasonID != se.ID {
		return nil, nil, apperr.NotFoundf("task %d not found in season %q", id, se.Name)
	}
	return se, t, nil
}

// GetTask returns a task of the active season.
func (s *Service) GetTask(id int64) (*store.Task, error) {
	_, t, err := s.task(id)
	return t, err
}

// StartTask stamps the start time and clears any finish time.
func (s *Service) StartTask(id int64) (*store.Task, error) {
	se, t, err := s.task(id)
	if err != nil {
		return nil, err
	}
	if t.Completed {
		return nil, apperr.Validationf("task %d is already completed", id)
	}
	now := s.Now(*se)
	t.StartTime = &now
	t.FinishTime = nil
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	s.log.Info("task started", "id", id)
	return t, nil
}

// StopTask stamps the finish time of an in-progress task.
func (s *Service) StopTask(id int64) (*store.Task, error) {
	se, t, err := s.task(id)
	if err != nil {
		return nil, err
	}
	if lp.StateOf(*t) != lp.InProgress {
		return nil, apperr.Validationf("task %d is %s, not in progress", id, lp.StateOf(*t))
	}
	now := s.Now(*se)
	t.FinishTime = &now
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	s.log.Info("task stopped", "id", id, "minutes", lp.ResolveDuration(*t, nil))
	return t, nil
}

// CompleteTask marks a task completed and computes its gain. An unset finish
// time becomes now.
func (s *Service) CompleteTask(id int64) (*store.Task, error) {
	se, t, err := s.task(id)
	if err != nil {
		return nil, err
	}
	if t.Completed {
		return nil, apperr.Validationf("task %d is already completed", id)
	}
	if t.FinishTime == nil {
		now := s.Now(*se)
		t.FinishTime = &now
	}
	t.Completed = true
	if t.LPGain, err = lp.TaskGain(*t); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	s.log.Info("task completed", "id", id, "lp", gainValue(t))
	return t, nil
}

// UpdateTask applies patch and, for completed tasks, recomputes the gain from
// the updated fields.
func (s *Service) UpdateTask(id int64, patch TaskPatch) (*store.Task, error) {
	se, t, err := s.task(id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			return nil, apperr.Validationf("task description must not be empty")
		}
		t.Description = desc
	}
	if patch.Project != nil {
		t.Project = strings.TrimSpace(*patch.Project)
	}
	if patch.Difficulty != nil {
		if t.Difficulty, err = normalizeDifficulty(*patch.Difficulty); err != nil {
			return nil, err
		}
	}
	if patch.DOW != nil {
		if t.DOW, err = lp.ParseDayOfWeek(*patch.DOW); err != nil {
			return nil, err
		}
	}
	if patch.DurationMinutes != nil {
		if err := validDuration(patch.DurationMinutes); err != nil {
			return nil, err
		}
		t.DurationMinutes = patch.DurationMinutes
	}
	if patch.Reflection != nil {
		t.Reflection = strings.TrimSpace(*patch.Reflection)
	}
	if patch.Finish != nil {
		finish, err := parseLocalTime(*patch.Finish, lp.Location(*se))
		if err != nil {
			return nil, err
		}
		t.FinishTime = &finish
	}

	before := gainValue(t)
	if t.LPGain, err = lp.TaskGain(*t); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	s.log.Info("task updated", "id", id, "lp_before", before, "lp", gainValue(t))
	return t, nil
}

// RecalculateSeason recomputes the gain of every completed task in the active
// season, normalising legacy difficulty names. It returns how many tasks
// changed.
func (s *Service) RecalculateSeason() (int, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return 0, err
	}
	done := true
	tasks, err := s.store.ListTasks(store.TaskFilter{SeasonID: &se.ID, Completed: &done})
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range tasks {
		t := &tasks[i]
		oldDifficulty, oldGain := t.Difficulty, t.LPGain
		if t.Difficulty, err = normalizeDifficulty(t.Difficulty); err != nil {
			s.log.Warn("skipping task with unknown difficulty", "id", t.ID, "difficulty", oldDifficulty)
			continue
		}
		if t.LPGain, err = lp.TaskGain(*t); err != nil {
			return changed, err
		}
		if t.Difficulty == oldDifficulty && sameGain(oldGain, t.LPGain) {
			continue
		}
		if err := s.store.UpdateTask(t); err != nil {
			return changed, err
		}
		changed++
	}
	s.log.Info("season recalculated", "season", se.ID, "tasks", len(tasks), "changed", changed)
	return changed, nil
}

// ListActiveTasks returns the incomplete tasks of the active season by id.
func (s *Service) ListActiveTasks() ([]store.Task, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	open := false
	return s.store.ListTasks(store.TaskFilter{SeasonID: &se.ID, Completed: &open})
}

// ListCompletedTasks returns the completed tasks of the active season, most
// recently finished first. limit <= 0 returns all of them.
func (s *Service) ListCompletedTasks(limit int) ([]store.Task, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	done := true
	tasks, err := s.store.ListTasks(store.TaskFilter{SeasonID: &se.ID, Completed: &done})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := finishedAt(tasks[i]), finishedAt(tasks[j])
		if a.Equal(b) {
			return tasks[i].ID > tasks[j].ID
		}
		return a.After(b)
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

// InProgressTask returns the most recently started in-progress task of the
// active season, or nil.
func (s *Service) InProgressTask() (*store.Task, error) {
	tasks, err := s.ListActiveTasks()
	if err != nil {
		return nil, err
	}
	var latest *store.Task
	for i := range tasks {
		t := &tasks[i]
		if lp.StateOf(*t) != lp.InProgress {
			continue
		}
		if latest == nil || t.StartTime.After(*latest.StartTime) {
			latest = t
		}
	}
	return latest, nil
}

func finishedAt(t store.Task) time.Time {
	if t.FinishTime != nil {
		return *t.FinishTime
	}
	return t.CreatedAt
}

func gainValue(t *store.Task) float64 {
	if t.LPGain == nil {
		return 0
	}
	return *t.LPGain
}

func sameGain(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
