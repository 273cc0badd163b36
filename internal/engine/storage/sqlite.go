package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rendis/geogrid/internal/model"
)

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoScan is returned when a requested scan does not exist.
var ErrNoScan = errors.New("scan not found")

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// Connection-scoped pragmas (foreign_keys, busy_timeout) only hold on a
	// single shared connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		business TEXT NOT NULL,
		address TEXT,
		place_id TEXT,
		domain TEXT,
		center_lat REAL NOT NULL,
		center_lng REAL NOT NULL,
		radius_km REAL NOT NULL,
		spacing_km REAL NOT NULL,
		shape TEXT NOT NULL,
		keywords TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		keyword TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		dist_km REAL NOT NULL,
		organic_rank INTEGER,
		local_pack_rank INTEGER,
		map_rank INTEGER,
		observed_at TEXT NOT NULL,
		UNIQUE(scan_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_records_scan ON records(scan_id);
	CREATE INDEX IF NOT EXISTS idx_records_keyword ON records(scan_id, keyword);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// CreateScan registers a new scan run.
func (s *Store) CreateScan(scan model.Scan) error {
	keywords, err := json.Marshal(scan.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO scans
		(id, business, address, place_id, domain, center_lat, center_lng,
		 radius_km, spacing_km, shape, keywords, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		scan.ID, scan.Business, scan.Address, scan.PlaceID, scan.Domain,
		scan.Config.CenterLat, scan.Config.CenterLng,
		scan.Config.RadiusKm, scan.Config.SpacingKm, scan.Config.Shape.String(),
		string(keywords), scan.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}
	return nil
}

// Indexed pairs a record with its position in the scan's job order.
type Indexed struct {
	Seq    int
	Record model.VisibilityRecord
}

// InsertRecords stores a batch of records in one transaction. Records whose
// sequence number is already stored are ignored.
func (s *Store) InsertRecords(scanID string, batch []Indexed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO records
		(scan_id, seq, keyword, lat, lng, dist_km,
		 organic_rank, local_pack_rank, map_rank, observed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ix := range batch {
		r := ix.Record
		res, err := stmt.Exec(
			scanID, ix.Seq, r.Keyword, r.Point.Lat, r.Point.Lng, r.Point.DistanceKm,
			nullRank(r.OrganicRank), nullRank(r.LocalPackRank), nullRank(r.MapRank),
			r.ObservedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting record %d: %w", ix.Seq, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}
	return inserted, nil
}

// LoadRecords returns a scan's records in job order.
func (s *Store) LoadRecords(scanID string) ([]model.VisibilityRecord, error) {
	rows, err := s.db.Query(`
		SELECT keyword, lat, lng, dist_km, organic_rank, local_pack_rank, map_rank, observed_at
		FROM records WHERE scan_id = ? ORDER BY seq`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []model.VisibilityRecord
	for rows.Next() {
		var r model.VisibilityRecord
		var org, lp, mp sql.NullInt64
		var observed string
		if err := rows.Scan(&r.Keyword, &r.Point.Lat, &r.Point.Lng, &r.Point.DistanceKm,
			&org, &lp, &mp, &observed); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.OrganicRank, r.LocalPackRank, r.MapRank = rankOf(org), rankOf(lp), rankOf(mp)
		r.ObservedAt, _ = time.Parse(timeLayout, observed)
		records = append(records, r)
	}
	return records, rows.Err()
}

const scanColumns = `id, business, address, place_id, domain, center_lat, center_lng,
	radius_km, spacing_km, shape, keywords, created_at`

// GetScan returns the scan with the given id.
func (s *Store) GetScan(id string) (model.Scan, error) {
	return scanRow(s.db.QueryRow(`SELECT `+scanColumns+` FROM scans WHERE id = ?`, id))
}

// LatestScan returns the most recently created scan.
func (s *Store) LatestScan() (model.Scan, error) {
	return scanRow(s.db.QueryRow(`SELECT ` + scanColumns + ` FROM scans ORDER BY created_at DESC LIMIT 1`))
}

// ListScans returns all scans, newest first.
func (s *Store) ListScans() ([]model.Scan, error) {
	rows, err := s.db.Query(`SELECT ` + scanColumns + ` FROM scans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// Count returns the number of records stored for a scan.
func (s *Store) Count(scanID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM records WHERE scan_id = ?", scanID).Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (model.Scan, error) {
	var scan model.Scan
	var address, placeID, domain sql.NullString
	var shape, keywords, created string
	err := row.Scan(&scan.ID, &scan.Business, &address, &placeID, &domain,
		&scan.Config.CenterLat, &scan.Config.CenterLng,
		&scan.Config.RadiusKm, &scan.Config.SpacingKm, &shape, &keywords, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scan{}, ErrNoScan
	}
	if err != nil {
		return model.Scan{}, fmt.Errorf("scanning scan row: %w", err)
	}
	scan.Address, scan.PlaceID, scan.Domain = address.String, placeID.String, domain.String
	scan.Config.Shape, _ = model.ParseShape(shape)
	if err := json.Unmarshal([]byte(keywords), &scan.Keywords); err != nil {
		return model.Scan{}, fmt.Errorf("decoding keywords: %w", err)
	}
	scan.CreatedAt, _ = time.Parse(timeLayout, created)
	return scan, nil
}

func nullRank(r *int) sql.NullInt64 {
	if r == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*r), Valid: true}
}

func rankOf(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
