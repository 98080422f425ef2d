// Package lp computes Life Points: gain per task from difficulty and time
// spent, and the per-day decay of a season. Every function is pure.
package lp

import (
	"math"
	"time"
	_ "time/tzdata"

	"github.com/sadopc/lptrack/internal/store"
)

// DefaultTimezone is used for seasons without an assigned zone.
const DefaultTimezone = "America/New_York"

const day = 24 * time.Hour

// Round15 rounds minutes to the nearest quarter hour, ties rounding up.
// Negative input yields 0.
func Round15(minutes float64) float64 {
	if minutes <= 0 || math.IsNaN(minutes) {
		return 0
	}
	return math.Floor(minutes/15+0.5) * 15
}

// ComputeGain returns BasePoints(d) * Round15(minutes) / 60.
func ComputeGain(d Difficulty, minutes float64) (float64, error) {
	b, err := BasePoints(d)
	if err != nil {
		return 0, err
	}
	return b * Round15(minutes) / 60, nil
}

// ResolveDuration returns the minutes to credit for t. An explicit override
// wins, then the override stored on the task, then finish minus start.
// Anything else resolves to 0.
func ResolveDuration(t store.Task, override *float64) float64 {
	if override != nil {
		return *override
	}
	if t.DurationMinutes != nil {
		return *t.DurationMinutes
	}
	if t.StartTime != nil && t.FinishTime != nil {
		return t.FinishTime.Sub(*t.StartTime).Minutes()
	}
	return 0
}

// TaskGain recomputes the gain of t from its current fields. It returns nil
// unless t is completed and has a difficulty.
func TaskGain(t store.Task) (*float64, error) {
	if !t.Completed || t.Difficulty == "" {
		return nil, nil
	}
	d, err := ParseDifficulty(t.Difficulty)
	if err != nil {
		return nil, err
	}
	g, err := ComputeGain(d, ResolveDuration(t, nil))
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ElapsedDays is the number of whole days between the season start and asOf,
// with asOf clamped to the season end date.
func ElapsedDays(s store.Season, asOf time.Time) int {
	if s.EndDate != nil && asOf.After(*s.EndDate) {
		asOf = *s.EndDate
	}
	elapsed := asOf.Sub(s.StartDate)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}

// ComputeDecay returns the decay accrued by asOf. Only completed days count.
func ComputeDecay(s store.Season, asOf time.Time) float64 {
	return float64(ElapsedDays(s, asOf)) * s.DailyDecay
}

// Location returns the season's time zone, falling back to DefaultTimezone
// and then UTC.
func Location(s store.Season) *time.Location {
	for _, name := range []string{s.Timezone, DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Status is the LP summary of one season.
type Status struct {
	SeasonID    int64
	TotalGain   float64
	TotalDecay  float64
	NetTotal    float64
	TodayGain   float64
	DaysElapsed int
	DailyDecay  float64
	Completed   int
}

// ComputeStatus summarises the tasks of season s at now. Tasks of other
// seasons are ignored.
func ComputeStatus(s store.Season, tasks []store.Task, now time.Time) Status {
	loc := Location(s)
	today := dateOf(now.In(loc))

	st := Status{
		SeasonID:    s.ID,
		TotalDecay:  ComputeDecay(s, now),
		DaysElapsed: ElapsedDays(s, now),
		DailyDecay:  s.DailyDecay,
	}
	for _, t := range tasks {
		if t.SeasonID != s.ID || !t.Completed {
			continue
		}
		st.Completed++
		g := gainOf(t)
		st.TotalGain += g
		if at := completedAt(t); dateOf(at.In(loc)) == today {
			st.TodayGain += g
		}
	}
	st.NetTotal = st.TotalGain - st.TotalDecay
	return st
}

// StateOf reports where t is in its lifecycle.
func StateOf(t store.Task) State {
	switch {
	case t.Completed:
		return Completed
	case t.StartTime != nil && t.FinishTime == nil:
		return InProgress
	case t.StartTime != nil:
		return Stopped
	default:
		return Created
	}
}

type State string

const (
	Created    State = "created"
	InProgress State = "in progress"
	Stopped    State = "stopped"
	Completed  State = "completed"
)

func gainOf(t store.Task) float64 {
	if t.LPGain == nil {
		return 0
	}
	return *t.LPGain
}

// completedAt is the finish time, or the creation time for completed tasks
// that never recorded one.
func completedAt(t store.Task) time.Time {
	if t.FinishTime != nil {
		return *t.FinishTime
	}
	return t.CreatedAt
}

type date struct {
	y int
	m time.Month
	d int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{y, m, d}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
