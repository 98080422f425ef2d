package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const seasonColumns = `id, name, start_date, end_date, is_active, daily_decay, timezone`

func scanSeason(row scanner) (*Season, error) {
	se := &Season{}
	var start string
	var end sql.NullString
	var active int
	if err := row.Scan(&se.ID, &se.Name, &start, &end, &active, &se.DailyDecay, &se.Timezone); err != nil {
		return nil, err
	}
	var err error
	if se.StartDate, err = parseTime("start_date", start); err != nil {
		return nil, err
	}
	if se.EndDate, err = parseNullTime("end_date", end); err != nil {
		return nil, err
	}
	se.Active = active == 1
	return se, nil
}

func insertSeason(db execer, se *Season, keepID bool) error {
	var id any
	if keepID {
		id = se.ID
	}
	res, err := db.Exec(
		`INSERT INTO seasons (`+seasonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, se.Name, formatTime(se.StartDate), nullTime(se.EndDate), boolInt(se.Active), se.DailyDecay, se.Timezone,
	)
	if err != nil {
		return fmt.Errorf("insert season %q: %w", se.Name, err)
	}
	if !keepID {
		se.ID, _ = res.LastInsertId()
	}
	return nil
}

// StartSeason archives the active season, if any, stamping its end date with
// archivedAt, then inserts next as the new active season.
func (s *Store) StartSeason(next Season, archivedAt time.Time) (*Season, error) {
	next.Active = true
	next.EndDate = nil
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE seasons SET is_active = 0, end_date = ? WHERE is_active = 1`,
			formatTime(archivedAt),
		); err != nil {
			return fmt.Errorf("archive active season: %w", err)
		}
		return insertSeason(tx, &next, false)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSeason(next.ID)
}

// ActivateSeason makes id the active season without touching any end date.
func (s *Store) ActivateSeason(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE seasons SET is_active = 0 WHERE is_active = 1`); err != nil {
			return fmt.Errorf("deactivate season: %w", err)
		}
		res, err := tx.Exec(`UPDATE seasons SET is_active = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("activate season %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("activate season %d: %w", id, sql.ErrNoRows)
		}
		return nil
	})
}

func (s *Store) GetSeason(id int64) (*Season, error) {
	se, err := scanSeason(s.db.QueryRow(`SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get season %d: %w", id, err)
	}
	return se, nil
}

// GetSeasonByName returns nil, nil when no season has that name.
func (s *Store) GetSeasonByName(name string) (*Season, error) {
	se, err := scanSeason(s.db.QueryRow(`SELECT `+seasonColumns+` FROM seasons WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get season %q: %w", name, err)
	}
	return se, nil
}

// GetActiveSeason returns nil, nil when no season is active.
func (s *Store) GetActiveSeason() (*Season, error) {
	se, err := scanSeason(s.db.QueryRow(`SELECT ` + seasonColumns + ` FROM seasons WHERE is_active = 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active season: %w", err)
	}
	return se, nil
}

func (s *Store) ListSeasons() ([]Season, error) {
	rows, err := s.db.Query(`SELECT ` + seasonColumns + ` FROM seasons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		se, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, *se)
	}
	return seasons, rows.Err()
}

// UpdateSeason writes the mutable season fields. The active flag is only
// changed through StartSeason and ActivateSeason.
func (s *Store) UpdateSeason(se *Season) error {
	_, err := s.db.Exec(
		`UPDATE seasons SET name = ?, start_date = ?, end_date = ?, daily_decay = ?, timezone = ? WHERE id = ?`,
		se.Name, formatTime(se.StartDate), nullTime(se.EndDate), se.DailyDecay, se.Timezone, se.ID,
	)
	if err != nil {
		return fmt.Errorf("update season %d: %w", se.ID, err)
	}
	return nil
}
