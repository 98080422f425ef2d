package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// CurrentSeason returns the active season.
func (s *Service) CurrentSeason() (*store.Season, error) {
	se, err := s.store.GetActiveSeason()
	if err != nil {
		return nil, err
	}
	if se == nil {
		return nil, apperr.Statef("no active season; run `lptrack init` first")
	}
	return se, nil
}

func (s *Service) ListSeasons() ([]store.Season, error) {
	return s.store.ListSeasons()
}

// StartSeason archives the active season and starts a new one named name.
func (s *Service) StartSeason(name string) (*store.Season, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("season name must not be empty")
	}
	existing, err := s.store.GetSeasonByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validationf("season %q already exists (id %d)", name, existing.ID)
	}

	next := store.Season{Name: name, DailyDecay: s.decay, Timezone: s.timezone}
	next.StartDate = s.Now(next)

	archivedAt := next.StartDate
	prev, err := s.store.GetActiveSeason()
	if err != nil {
		return nil, err
	}
	if prev != nil {
		archivedAt = s.Now(*prev)
	}

	se, err := s.store.StartSeason(next, archivedAt)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		s.log.Info("season archived", "id", prev.ID, "name", prev.Name)
	}
	s.log.Info("season started", "id", se.ID, "name", se.Name, "decay", se.DailyDecay, "tz", se.Timezone)
	return se, nil
}

// SwitchSeason activates season id. The previous season keeps its end date.
func (s *Service) SwitchSeason(id int64) (*store.Season, error) {
	target, err := s.store.GetSeason(id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("season %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if target.Active {
		return target, nil
	}
	if err := s.store.ActivateSeason(id); err != nil {
		return nil, err
	}
	s.log.Info("season switched", "id", id, "name", target.Name)
	return s.store.GetSeason(id)
}

// SetDecay sets the daily decay of the active season.
func (s *Service) SetDecay(value float64) (*store.Season, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperr.Validationf("daily decay must be a non-negative number, got %v", value)
	}
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	se.DailyDecay = value
	if err := s.store.UpdateSeason(se); err != nil {
		return nil, err
	}
	s.log.Info("decay set", "season", se.ID, "decay", value)
	return se, nil
}

// SetTimezone assigns an IANA time zone to the active season.
func (s *Service) SetTimezone(name string) (*store.Season, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("time zone must not be empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "unknown time zone %q", name)
	}
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	se.Timezone = name
	se.StartDate = se.StartDate.In(loc)
	if err := s.store.UpdateSeason(se); err != nil {
		return nil, err
	}
	s.log.Info("time zone set", "season", se.ID, "tz", name)
	return se, nil
}

// SetSeasonStart moves the start date of the active season. value is read in
// the season's time zone.
func (s *Service) SetSeasonStart(value string) (*store.Season, error) {
	se, err := s.CurrentSeason()
	if err != nil {
		return nil, err
	}
	start, err := parseLocalTime(value, lp.Location(*se))
	if err != nil {
		return nil, err
	}
	if se.EndDate != nil && start.After(*se.EndDate) {
		return nil, apperr.Validationf("start %s is after the season end %s",
			start.Format(time.RFC3339), se.EndDate.Format(time.RFC3339))
	}
	old := se.StartDate
	se.StartDate = start
	if err := s.store.UpdateSeason(se); err != nil {
		return nil, err
	}
	s.log.Info("season start moved", "season", se.ID, "from", old.Format(time.RFC3339), "to", start.Format(time.RFC3339))
	return se, nil
}
