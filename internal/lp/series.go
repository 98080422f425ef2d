package lp

import (
	"time"

	"github.com/sadopc/lptrack/internal/store"
)

// DayPoint is one calendar day of a season's LP history.
type DayPoint struct {
	Date           time.Time // midnight in the season zone
	Gain           float64
	CumulativeGain float64
	Decay          float64
	Net            float64
}

// DailySeries returns one point per calendar day from the season start up to
// asOf (clamped to the season end). Net on each day is the gain earned so far
// minus the decay accrued by the end of that day, or by asOf on the last day.
// Gains finished outside the range are counted on the first or last day so
// the final point matches ComputeStatus.
func DailySeries(s store.Season, tasks []store.Task, asOf time.Time) []DayPoint {
	loc := Location(s)
	if s.EndDate != nil && asOf.After(*s.EndDate) {
		asOf = *s.EndDate
	}
	first := startOfDay(s.StartDate.In(loc))
	last := startOfDay(asOf.In(loc))
	if last.Before(first) {
		last = first
	}

	byDay := make(map[date]float64)
	for _, t := range tasks {
		if t.SeasonID != s.ID || !t.Completed {
			continue
		}
		at := startOfDay(completedAt(t).In(loc))
		if at.Before(first) {
			at = first
		}
		if at.After(last) {
			at = last
		}
		byDay[dateOf(at)] += gainOf(t)
	}

	var points []DayPoint
	var cumulative float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		cutoff := d.AddDate(0, 0, 1)
		if cutoff.After(asOf) {
			cutoff = asOf
		}
		gain := byDay[dateOf(d)]
		cumulative += gain
		decay := ComputeDecay(s, cutoff)
		points = append(points, DayPoint{
			Date:           d,
			Gain:           gain,
			CumulativeGain: cumulative,
			Decay:          decay,
			Net:            cumulative - decay,
		})
	}
	return points
}

// DayGain is the gain earned on one calendar day.
type DayGain struct {
	Date time.Time
	Gain float64
}

// Week is a Monday-based week of gains in the season zone.
type Week struct {
	Start time.Time
	Days  [7]DayGain
	Total float64
}

// WeekSummary returns the gains of the week offset weeks before the one
// containing now.
func WeekSummary(s store.Season, tasks []store.Task, now time.Time, offset int) Week {
	loc := Location(s)
	today := startOfDay(now.In(loc))
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := today.AddDate(0, 0, 1-weekday-7*offset)

	w := Week{Start: start}
	index := make(map[date]int, 7)
	for i := range w.Days {
		d := start.AddDate(0, 0, i)
		w.Days[i].Date = d
		index[dateOf(d)] = i
	}
	for _, t := range tasks {
		if t.SeasonID != s.ID || !t.Completed {
			continue
		}
		if i, ok := index[dateOf(completedAt(t).In(loc))]; ok {
			g := gainOf(t)
			w.Days[i].Gain += g
			w.Total += g
		}
	}
	return w
}
