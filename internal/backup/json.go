// Package backup writes and restores the full ledger as a versioned JSON
// document, and exports flat task logs as CSV.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/store"
)

// SchemaVersion is written to every document. Import accepts versions up to it.
const SchemaVersion = 1

type document struct {
	SchemaVersion int            `json:"schema_version"`
	ExportID      string         `json:"export_id"`
	ExportedAt    string         `json:"exported_at"`
	Seasons       []seasonRecord `json:"seasons"`
	Tasks         []taskRecord   `json:"tasks"`
}

type seasonRecord struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	StartDate  string   `json:"start_date"`
	EndDate    *string  `json:"end_date"`
	IsActive   bool     `json:"is_active"`
	DailyDecay *float64 `json:"daily_decay"`
	Timezone   string   `json:"timezone"`
}

type taskRecord struct {
	ID              int64    `json:"id"`
	SeasonID        int64    `json:"season_id"`
	DOW             string   `json:"dow"`
	Task            string   `json:"task"`
	Project         string   `json:"project"`
	Difficulty      string   `json:"difficulty"`
	StartTime       *string  `json:"start_time"`
	FinishTime      *string  `json:"finish_time"`
	DurationMinutes *float64 `json:"duration_minutes"`
	LPGain          *float64 `json:"lp_gain"`
	Reflection      string   `json:"reflection"`
	Completed       *bool    `json:"completed"`
	CreatedAt       string   `json:"created_at"`
}

// Snapshot is a decoded and validated backup.
type Snapshot struct {
	SchemaVersion int
	ExportID      string
	ExportedAt    time.Time
	Seasons       []store.Season
	Tasks         []store.Task
}

// Export writes every season and task to w.
func Export(s *store.Store, w io.Writer, now time.Time) (*Snapshot, error) {
	seasons, err := s.ListSeasons()
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(store.TaskFilter{})
	if err != nil {
		return nil, err
	}

	doc := document{
		SchemaVersion: SchemaVersion,
		ExportID:      uuid.NewString(),
		ExportedAt:    formatTime(now),
		Seasons:       make([]seasonRecord, 0, len(seasons)),
		Tasks:         make([]taskRecord, 0, len(tasks)),
	}
	for _, se := range seasons {
		decay := se.DailyDecay
		doc.Seasons = append(doc.Seasons, seasonRecord{
			ID:         se.ID,
			Name:       se.Name,
			StartDate:  formatTime(se.StartDate),
			EndDate:    formatNullTime(se.EndDate),
			IsActive:   se.Active,
			DailyDecay: &decay,
			Timezone:   se.Timezone,
		})
	}
	for _, t := range tasks {
		completed := t.Completed
		doc.Tasks = append(doc.Tasks, taskRecord{
			ID:              t.ID,
			SeasonID:        t.SeasonID,
			DOW:             t.DOW,
			Task:            t.Description,
			Project:         t.Project,
			Difficulty:      t.Difficulty,
			StartTime:       formatNullTime(t.StartTime),
			FinishTime:      formatNullTime(t.FinishTime),
			DurationMinutes: t.DurationMinutes,
			LPGain:          t.LPGain,
			Reflection:      t.Reflection,
			Completed:       &completed,
			CreatedAt:       formatTime(t.CreatedAt),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	return &Snapshot{
		SchemaVersion: SchemaVersion,
		ExportID:      doc.ExportID,
		ExportedAt:    now,
		Seasons:       seasons,
		Tasks:         tasks,
	}, nil
}

// ExportFile writes the backup to path. The previous file at path is only
// replaced once the whole document has been written.
func ExportFile(s *store.Store, path string, now time.Time) (*Snapshot, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	tmp := f.Name()
	snap, err := Export(s, f, now)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close backup file: %w", cerr)
	}
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("replace backup file: %w", err)
	}
	return snap, nil
}

// Import replaces all data in s with the document read from r. Nothing is
// modified unless confirmed is true and the whole document is valid.
func Import(s *store.Store, r io.Reader, confirmed bool) (*Snapshot, error) {
	if !confirmed {
		return nil, apperr.Confirm("backup import")
	}
	snap, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(snap.Seasons, snap.Tasks); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return snap, nil
}

// ImportFile imports the backup at path.
func ImportFile(s *store.Store, path string, confirmed bool) (*Snapshot, error) {
	if !confirmed {
		return nil, apperr.Confirm("backup import")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return Import(s, f, confirmed)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
