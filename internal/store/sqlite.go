package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/niceenough/internal/models"
)

// recentSlot is the single row key for the last-selected location. The viewer
// only remembers one location, matching the browser behaviour it replaces.
const recentSlot = "most-recent"

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

// SaveLocation persists loc as the most recent selection, stamping SavedAt.
func (s *Store) SaveLocation(loc models.ResolvedLocation) error {
	_, err := s.db.Exec(`
		INSERT INTO locations (slot, id, formatted_address, latitude, longitude, city, state, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			formatted_address = excluded.formatted_address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			city = excluded.city,
			state = excluded.state,
			saved_at = excluded.saved_at
	`, recentSlot, loc.ID, loc.FormattedAddress, loc.Latitude, loc.Longitude, loc.City, loc.State, time.Now().UTC())
	return err
}

// LastLocation returns the most recently saved location, or nil when nothing
// usable is stored. Rows with out-of-range coordinates are treated as corrupt,
// cleared, and reported as absent rather than returned.
func (s *Store) LastLocation() (*models.StoredLocation, error) {
	row := s.db.QueryRow(`
		SELECT id, formatted_address, latitude, longitude, city, state, saved_at
		FROM locations
		WHERE slot = ?
	`, recentSlot)

	var loc models.StoredLocation
	var city, state sql.NullString
	err := row.Scan(&loc.ID, &loc.FormattedAddress, &loc.Latitude, &loc.Longitude, &city, &state, &loc.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	loc.City = city.String
	loc.State = state.String

	if !loc.Valid() {
		if err := s.ClearLocation(); err != nil {
			return nil, fmt.Errorf("clear corrupt location: %w", err)
		}
		return nil, nil
	}
	return &loc, nil
}

// ClearLocation removes the stored location.
func (s *Store) ClearLocation() error {
	_, err := s.db.Exec(`DELETE FROM locations WHERE slot = ?`, recentSlot)
	return err
}

// ConsumeSearch spends one unit of the per-day geocoding quota. It returns
// the count used so far today and whether this search is allowed. The counter
// is explicit state incremented with a guarded UPDATE, so concurrent callers
// cannot blow past the limit.
func (s *Store) ConsumeSearch(limit int) (used int, allowed bool, err error) {
	day := time.Now().In(s.loc).Format("2006-01-02")

	if _, err := s.db.Exec(`
		INSERT INTO search_quota (day, used) VALUES (?, 0)
		ON CONFLICT(day) DO NOTHING
	`, day); err != nil {
		return 0, false, fmt.Errorf("ensure quota row: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE search_quota SET used = used + 1
		WHERE day = ? AND used < ?
	`, day, limit)
	if err != nil {
		return 0, false, fmt.Errorf("increment quota: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	if err := s.db.QueryRow(`SELECT used FROM search_quota WHERE day = ?`, day).Scan(&used); err != nil {
		return 0, false, err
	}
	return used, rows > 0, nil
}

// SearchesUsed reports today's quota usage without consuming any.
func (s *Store) SearchesUsed() (int, error) {
	day := time.Now().In(s.loc).Format("2006-01-02")

	var used int
	err := s.db.QueryRow(`SELECT used FROM search_quota WHERE day = ?`, day).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

// Ping verifies the database connection for health checks.
func (s *Store) Ping() error {
	return s.db.Ping()
}
