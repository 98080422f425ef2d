package backup

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// Decode parses and validates a backup document. Unknown fields are ignored.
// Every problem is reported as a format error.
func Decode(r io.Reader) (*Snapshot, error) {
	var raw struct {
		SchemaVersion *int            `json:"schema_version"`
		ExportID      string          `json:"export_id"`
		ExportedAt    string          `json:"exported_at"`
		Seasons       *[]seasonRecord `json:"seasons"`
		Tasks         *[]taskRecord   `json:"tasks"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.Format, err, "decode backup")
	}

	switch {
	case raw.SchemaVersion == nil:
		return nil, apperr.Formatf("missing schema_version")
	case *raw.SchemaVersion < 1 || *raw.SchemaVersion > SchemaVersion:
		return nil, apperr.Formatf("unsupported schema_version %d (this build reads up to %d)", *raw.SchemaVersion, SchemaVersion)
	case raw.Seasons == nil:
		return nil, apperr.Formatf("missing seasons")
	case raw.Tasks == nil:
		return nil, apperr.Formatf("missing tasks")
	}

	snap := &Snapshot{SchemaVersion: *raw.SchemaVersion, ExportID: raw.ExportID}
	if raw.ExportedAt != "" {
		t, err := parseTime("exported_at", raw.ExportedAt)
		if err != nil {
			return nil, err
		}
		snap.ExportedAt = t
	}

	seasonIDs := make(map[int64]bool)
	names := make(map[string]bool)
	active := 0
	for i, rec := range *raw.Seasons {
		se, err := rec.season()
		if err != nil {
			return nil, apperr.Wrap(apperr.Format, err, "season #%d", i+1)
		}
		if seasonIDs[se.ID] {
			return nil, apperr.Formatf("duplicate season id %d", se.ID)
		}
		if names[se.Name] {
			return nil, apperr.Formatf("duplicate season name %q", se.Name)
		}
		seasonIDs[se.ID] = true
		names[se.Name] = true
		if se.Active {
			active++
		}
		snap.Seasons = append(snap.Seasons, se)
	}
	if len(snap.Seasons) > 0 && active != 1 {
		return nil, apperr.Formatf("expected exactly one active season, found %d", active)
	}

	taskIDs := make(map[int64]bool)
	for i, rec := range *raw.Tasks {
		t, err := rec.task()
		if err != nil {
			return nil, apperr.Wrap(apperr.Format, err, "task #%d", i+1)
		}
		if taskIDs[t.ID] {
			return nil, apperr.Formatf("duplicate task id %d", t.ID)
		}
		if !seasonIDs[t.SeasonID] {
			return nil, apperr.Formatf("task %d references unknown season %d", t.ID, t.SeasonID)
		}
		taskIDs[t.ID] = true
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap, nil
}

func (rec seasonRecord) season() (store.Season, error) {
	se := store.Season{ID: rec.ID, Name: rec.Name, Active: rec.IsActive, Timezone: rec.Timezone}
	if rec.ID <= 0 {
		return se, apperr.Formatf("missing or invalid id")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return se, apperr.Formatf("missing name")
	}
	if rec.DailyDecay == nil {
		return se, apperr.Formatf("missing daily_decay")
	}
	if *rec.DailyDecay < 0 {
		return se, apperr.Formatf("negative daily_decay %v", *rec.DailyDecay)
	}
	se.DailyDecay = *rec.DailyDecay
	if rec.Timezone != "" {
		if _, err := time.LoadLocation(rec.Timezone); err != nil {
			return se, apperr.Formatf("unknown timezone %q", rec.Timezone)
		}
	}
	var err error
	if se.StartDate, err = requiredTime("start_date", rec.StartDate); err != nil {
		return se, err
	}
	if se.EndDate, err = optionalTime("end_date", rec.EndDate); err != nil {
		return se, err
	}
	return se, nil
}

func (rec taskRecord) task() (store.Task, error) {
	t := store.Task{
		ID:              rec.ID,
		SeasonID:        rec.SeasonID,
		DOW:             rec.DOW,
		Description:     rec.Task,
		Project:         rec.Project,
		Difficulty:      rec.Difficulty,
		DurationMinutes: rec.DurationMinutes,
		LPGain:          rec.LPGain,
		Reflection:      rec.Reflection,
	}
	if rec.ID <= 0 {
		return t, apperr.Formatf("missing or invalid id")
	}
	if rec.SeasonID <= 0 {
		return t, apperr.Formatf("missing season_id")
	}
	if rec.Task == "" {
		return t, apperr.Formatf("missing task")
	}
	if rec.Completed == nil {
		return t, apperr.Formatf("missing completed")
	}
	t.Completed = *rec.Completed
	if rec.Difficulty != "" {
		if _, err := lp.ParseDifficulty(rec.Difficulty); err != nil {
			return t, apperr.Formatf("unknown difficulty %q", rec.Difficulty)
		}
	}
	var err error
	if t.CreatedAt, err = requiredTime("created_at", rec.CreatedAt); err != nil {
		return t, err
	}
	if t.StartTime, err = optionalTime("start_time", rec.StartTime); err != nil {
		return t, err
	}
	if t.FinishTime, err = optionalTime("finish_time", rec.FinishTime); err != nil {
		return t, err
	}
	return t, nil
}

// parseTime requires an explicit offset; local times without one are rejected.
func parseTime(field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, apperr.Formatf("%s %q is not an RFC 3339 timestamp with offset", field, v)
	}
	return t, nil
}

func requiredTime(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, apperr.Formatf("missing %s", field)
	}
	return parseTime(field, v)
}

func optionalTime(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := parseTime(field, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
