package store

import "time"

// Season is a time-bounded grouping of tasks. Exactly one season is active.
type Season struct {
	ID         int64
	Name       string
	StartDate  time.Time
	EndDate    *time.Time // set when the season is archived by starting another
	Active     bool
	DailyDecay float64
	Timezone   string
}

type Task struct {
	ID              int64
	SeasonID        int64
	DOW             string
	Description     string
	Project         string
	Difficulty      string
	StartTime       *time.Time
	FinishTime      *time.Time
	DurationMinutes *float64 // manual override
	LPGain          *float64
	Reflection      string
	Completed       bool
	CreatedAt       time.Time
}

// TaskFilter is used to filter tasks in queries.
type TaskFilter struct {
	SeasonID  *int64
	Completed *bool
}
