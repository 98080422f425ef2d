package backup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

var csvHeader = []string{
	"ID", "Season", "DOW", "Task", "Project", "Difficulty", "Start", "Finish",
	"Duration (min)", "LP", "Completed", "Reflection",
}

// WriteCSV writes one row per task. Duration is the resolved duration used
// for LP, and LP is empty for tasks without a gain.
func WriteCSV(w io.Writer, tasks []store.Task, seasons map[int64]*store.Season) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range tasks {
		seasonName := "Unknown"
		if se, ok := seasons[t.SeasonID]; ok {
			seasonName = se.Name
		}
		gain := ""
		if t.LPGain != nil {
			gain = strconv.FormatFloat(*t.LPGain, 'f', 2, 64)
		}

		row := []string{
			strconv.FormatInt(t.ID, 10),
			seasonName,
			t.DOW,
			t.Description,
			t.Project,
			t.Difficulty,
			formatCSVTime(t.StartTime),
			formatCSVTime(t.FinishTime),
			strconv.FormatFloat(lp.ResolveDuration(t, nil), 'f', 1, 64),
			gain,
			strconv.FormatBool(t.Completed),
			t.Reflection,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV exports every task in s to path.
func ToCSV(s *store.Store, path string) (int, error) {
	seasons, err := s.ListSeasons()
	if err != nil {
		return 0, err
	}
	tasks, err := s.ListTasks(store.TaskFilter{})
	if err != nil {
		return 0, err
	}
	bySeason := make(map[int64]*store.Season, len(seasons))
	for i := range seasons {
		bySeason[seasons[i].ID] = &seasons[i]
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, tasks, bySeason); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(tasks), nil
}

func formatCSVTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
