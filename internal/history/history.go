package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/phishscan/phishscan/internal/model"
)

// dbFileName is the SQLite file created inside the store directory.
const dbFileName = "phishscan.db"

// ErrNotFound is returned when a lookup matches no stored prediction.
var ErrNotFound = errors.New("prediction not found")

// Store provides SQLite-based storage for prediction results.
//
// Design decision: one database file for all predictions rather than one
// per scan run. History queries cut across runs ("when did we last see this
// URL?"), and a single file keeps backup and cleanup trivial.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a prediction store in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned instead of silently creating an empty history.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check history database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite supports only one writer; a single pooled connection avoids
	// SQLITE_BUSY churn without hurting our read volume.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the SQLite file path backing the store.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Predictions store one row per classified URL, including failures.
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		classification TEXT NOT NULL,
		risk_score REAL NOT NULL,
		contributions TEXT,
		error TEXT,
		scanned_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_url ON predictions(url);
	CREATE INDEX IF NOT EXISTS idx_predictions_scanned_at ON predictions(scanned_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Record is one stored prediction row.
type Record struct {
	// ID is the record's UUID, assigned on save.
	ID string

	// Result is the prediction as it was produced.
	Result model.PredictionResult
}

// SavePrediction persists one prediction result, including error results,
// and returns the assigned record ID. Failed predictions are stored so the
// history reflects every scan attempt, not only successful ones.
func (s *Store) SavePrediction(ctx context.Context, result *model.PredictionResult) (string, error) {
	contributionsJSON, err := json.Marshal(result.TopContributingFeatures)
	if err != nil {
		return "", fmt.Errorf("serialize contributions: %w", err)
	}

	id := uuid.New().String()
	query := `
	INSERT INTO predictions (id, url, classification, risk_score, contributions, error, scanned_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		id,
		result.URL,
		result.Classification,
		result.RiskScore,
		string(contributionsJSON),
		result.Error,
		result.ScannedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("save prediction: %w", err)
	}

	return id, nil
}

// ListRecent returns the most recent predictions, newest first, capped at
// limit. A non-positive limit defaults to 20.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, url, classification, risk_score, contributions, error, scanned_at
	FROM predictions
	ORDER BY scanned_at DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByURL returns every stored prediction for url, newest first.
// ErrNotFound is returned when the URL has never been scanned.
func (s *Store) GetByURL(ctx context.Context, url string) ([]Record, error) {
	query := `
	SELECT id, url, classification, risk_score, contributions, error, scanned_at
	FROM predictions
	WHERE url = ?
	ORDER BY scanned_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("get predictions by URL: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return records, nil
}

// CountByClassification returns how many stored predictions carry each
// classification label. Failed predictions appear under the empty label.
func (s *Store) CountByClassification(ctx context.Context) (map[string]int, error) {
	query := `
	SELECT classification, COUNT(*) FROM predictions
	GROUP BY classification
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count predictions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// scanRecords reads prediction rows into Records.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var contributionsJSON sql.NullString
		var errMsg sql.NullString
		var scannedAt string

		err := rows.Scan(
			&rec.ID,
			&rec.Result.URL,
			&rec.Result.Classification,
			&rec.Result.RiskScore,
			&contributionsJSON,
			&errMsg,
			&scannedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}

		if contributionsJSON.Valid && contributionsJSON.String != "" {
			if err := json.Unmarshal([]byte(contributionsJSON.String), &rec.Result.TopContributingFeatures); err != nil {
				rec.Result.TopContributingFeatures = nil
			}
		}
		if errMsg.Valid {
			rec.Result.Error = errMsg.String
		}
		rec.Result.ScannedAt = parseTimestamp(scannedAt)

		records = append(records, rec)
	}
	return records, rows.Err()
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known SQLite timestamp format, returning zero
// time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
