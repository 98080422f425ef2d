package ledger

import (
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// Report pairs a season with its LP status.
type Report struct {
	Season store.Season
	Status lp.Status
}

func (s *Service) seasonTasks(se *store.Season) ([]store.Task, error) {
	return s.store.ListTasks(store.TaskFilter{SeasonID: &se.ID})
}

// Status computes the LP summary of the active season at the current time.
func (s *Service) Status() (*Report, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	tasks, err := s.seasonTasks(se)
	if err != nil {
		return nil, err
	}
	return &Report{Season: *se, Status: lp.ComputeStatus(*se, tasks, s.now())}, nil
}

// Series returns the daily LP history of the active season.
func (s *Service) Series() (*store.Season, []lp.DayPoint, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.seasonTasks(se)
	if err != nil {
		return nil, nil, err
	}
	return se, lp.DailySeries(*se, tasks, s.now()), nil
}

// Week returns the gains of the week offset weeks back in the active season.
func (s *Service) Week(offset int) (*store.Season, lp.Week, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, lp.Week{}, err
	}
	tasks, err := s.seasonTasks(se)
	if err != nil {
		return nil, lp.Week{}, err
	}
	return se, lp.WeekSummary(*se, tasks, s.now(), offset), nil
}
