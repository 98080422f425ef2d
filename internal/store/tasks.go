package store

import (
	"database/sql"
	"fmt"
)

const taskColumns = `id, season_id, dow, description, project, difficulty, start_time, finish_time,
	duration_minutes, lp_gain, reflection, completed, created_at`

func scanTask(row scanner) (*Task, error) {
	t := &Task{}
	var start, finish sql.NullString
	var duration, gain sql.NullFloat64
	var completed int
	var createdAt string
	err := row.Scan(&t.ID, &t.SeasonID, &t.DOW, &t.Description, &t.Project, &t.Difficulty,
		&start, &finish, &duration, &gain, &t.Reflection, &completed, &createdAt)
	if err != nil {
		return nil, err
	}
	if t.StartTime, err = parseNullTime("start_time", start); err != nil {
		return nil, err
	}
	if t.FinishTime, err = parseNullTime("finish_time", finish); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if duration.Valid {
		t.DurationMinutes = &duration.Float64
	}
	if gain.Valid {
		t.LPGain = &gain.Float64
	}
	t.Completed = completed == 1
	return t, nil
}

func insertTask(db execer, t *Task, keepID bool) error {
	var id any
	if keepID {
		id = t.ID
	}
	res, err := db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.SeasonID, t.DOW, t.Description, t.Project, t.Difficulty,
		nullTime(t.StartTime), nullTime(t.FinishTime), nullFloat(t.DurationMinutes), nullFloat(t.LPGain),
		t.Reflection, boolInt(t.Completed), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if !keepID {
		t.ID, _ = res.LastInsertId()
	}
	return nil
}

func (s *Store) CreateTask(t Task) (*Task, error) {
	if err := insertTask(s.db, &t, false); err != nil {
		return nil, err
	}
	return s.GetTask(t.ID)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// ListTasks returns matching tasks ordered by id.
func (s *Store) ListTasks(f TaskFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if f.SeasonID != nil {
		query += ` AND season_id = ?`
		args = append(args, *f.SeasonID)
	}
	if f.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolInt(*f.Completed))
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask writes every mutable task field. season_id and created_at never change.
func (s *Store) UpdateTask(t *Task) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET dow = ?, description = ?, project = ?, difficulty = ?, start_time = ?,
		 finish_time = ?, duration_minutes = ?, lp_gain = ?, reflection = ?, completed = ?
		 WHERE id = ?`,
		t.DOW, t.Description, t.Project, t.Difficulty, nullTime(t.StartTime),
		nullTime(t.FinishTime), nullFloat(t.DurationMinutes), nullFloat(t.LPGain), t.Reflection,
		boolInt(t.Completed), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}
