// Package ledger applies season and task lifecycle operations to the store,
// recomputing LP through package lp after every change that affects it.
package ledger

import (
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// DefaultSeasonName is the season created by Init on an empty database.
const DefaultSeasonName = "Default Season"

// DefaultDecay is the daily decay of new seasons unless configured otherwise.
const DefaultDecay = 56.0

// Service runs every ledger operation against one store.
type Service struct {
	store *store.Store
	log   *log.Logger
	now   func() time.Time

	decay    float64
	timezone string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger for mutations. Logs are discarded by default.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithDefaults sets the decay and time zone given to new seasons.
func WithDefaults(decay float64, timezone string) Option {
	return func(s *Service) {
		s.decay = decay
		s.timezone = timezone
	}
}

// New returns a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		log:      log.New(io.Discard),
		now:      time.Now,
		decay:    DefaultDecay,
		timezone: lp.DefaultTimezone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the zone of season se.
func (s *Service) Now(se store.Season) time.Time {
	return s.now().In(lp.Location(se))
}

// Init prepares an empty database by creating the default season. With force
// it first discards all data, which requires confirmation.
func (s *Service) Init(force, confirmed bool) (*store.Season, bool, error) {
	if force {
		if !confirmed {
			return nil, false, apperr.Confirm("init --force")
		}
		if err := s.store.Reset(); err != nil {
			return nil, false, err
		}
		s.log.Warn("database reset")
	}

	seasons, err := s.store.ListSeasons()
	if err != nil {
		return nil, false, err
	}
	if len(seasons) > 0 {
		se, err := s.CurrentSeason()
		return se, false, err
	}
	se, err := s.StartSeason(DefaultSeasonName)
	return se, true, err
}

// parseLocalTime parses a user supplied date and time in loc.
func parseLocalTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validationf("invalid date %q (want YYYY-MM-DD HH:MM)", value)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
