// Package storage persists asset records in SQLite.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkang/heritaged/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a SQLite database with methods for assets and beneficiaries.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "heritaged.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that
// haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

const assetColumns = `id, user_id, name, description, category, subcategory, tags,
	file_type, mime_type, file_size, original_name, content_id, origin,
	importance, sentiment, analysis, token, view_count, last_accessed,
	created_at, updated_at`

// SaveAsset inserts a new asset record.
func (s *Store) SaveAsset(a model.Asset) error {
	tags, err := marshalJSON(a.Tags, "[]")
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	analysis, err := marshalJSONOrNull(a.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	token, err := marshalJSONOrNull(a.Token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Description, string(a.Category), a.Subcategory, tags,
		a.FileType, a.MimeType, a.FileSize, a.OriginalName, a.ContentID, string(a.Origin),
		a.Importance, a.Sentiment, analysis, token, a.ViewCount, formatTimePtr(a.LastAccessed),
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetAsset fetches one asset by ID.
func (s *Store) GetAsset(id string) (model.Asset, error) {
	row := s.db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return model.Asset{}, ErrNotFound
	}
	return a, err
}

// ListAssets returns assets matching the filter, newest first.
func (s *Store) ListAssets(f model.ListFilter) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = ?`
	args := []any{f.UserID}

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	if f.MinImportance > 0 {
		query += ` AND importance >= ?`
		args = append(args, f.MinImportance)
	}
	if f.Search != "" {
		query += ` AND (name LIKE ? OR description LIKE ? OR tags LIKE ?)`
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountAssets returns how many assets match the filter (ignoring paging).
func (s *Store) CountAssets(f model.ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM assets WHERE user_id = ?`
	args := []any{f.UserID}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	if f.MinImportance > 0 {
		query += ` AND importance >= ?`
		args = append(args, f.MinImportance)
	}
	if f.Search != "" {
		query += ` AND (name LIKE ? OR description LIKE ? OR tags LIKE ?)`
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var count int
	err := s.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// UpdateAsset rewrites the mutable fields of an asset record.
func (s *Store) UpdateAsset(a model.Asset) error {
	tags, err := marshalJSON(a.Tags, "[]")
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	analysis, err := marshalJSONOrNull(a.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	token, err := marshalJSONOrNull(a.Token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE assets SET name = ?, description = ?, category = ?, subcategory = ?,
			tags = ?, importance = ?, sentiment = ?, analysis = ?, token = ?,
			updated_at = ?
		WHERE id = ?`,
		a.Name, a.Description, string(a.Category), a.Subcategory,
		tags, a.Importance, a.Sentiment, analysis, token,
		time.Now().UTC().Format(time.RFC3339), a.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAsset removes an asset and, via cascade, its beneficiaries.
func (s *Store) DeleteAsset(id string) error {
	res, err := s.db.Exec(`DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RecordView bumps the view counter and access timestamp.
func (s *Store) RecordView(id string) error {
	res, err := s.db.Exec(`UPDATE assets SET view_count = view_count + 1, last_accessed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetToken attaches a blockchain token record to an asset.
func (s *Store) SetToken(id string, token model.TokenRecord) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	res, err := s.db.Exec(`UPDATE assets SET token = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AddBeneficiary upserts a beneficiary grant on an asset.
func (s *Store) AddBeneficiary(b model.Beneficiary) error {
	_, err := s.db.Exec(`
		INSERT INTO beneficiaries (asset_id, user_id, access_condition, delay_period_days, conditions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(asset_id, user_id) DO UPDATE SET
			access_condition = excluded.access_condition,
			delay_period_days = excluded.delay_period_days,
			conditions = excluded.conditions`,
		b.AssetID, b.UserID, string(b.AccessCondition), b.DelayPeriodDays, b.Conditions,
	)
	return err
}

// Beneficiaries lists the grants on an asset.
func (s *Store) Beneficiaries(assetID string) ([]model.Beneficiary, error) {
	rows, err := s.db.Query(`
		SELECT asset_id, user_id, access_condition, delay_period_days, conditions
		FROM beneficiaries WHERE asset_id = ?`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Beneficiary
	for rows.Next() {
		var b model.Beneficiary
		var cond string
		if err := rows.Scan(&b.AssetID, &b.UserID, &cond, &b.DelayPeriodDays, &b.Conditions); err != nil {
			return nil, err
		}
		b.AccessCondition = model.AccessCondition(cond)
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (model.Asset, error) {
	var a model.Asset
	var category, origin, tags, createdAt, updatedAt string
	var analysis, token, lastAccessed sql.NullString

	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &category, &a.Subcategory, &tags,
		&a.FileType, &a.MimeType, &a.FileSize, &a.OriginalName, &a.ContentID, &origin,
		&a.Importance, &a.Sentiment, &analysis, &token, &a.ViewCount, &lastAccessed,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Asset{}, err
	}

	a.Category = model.Category(category)
	a.Origin = model.StorageOrigin(origin)

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return model.Asset{}, fmt.Errorf("decode tags: %w", err)
	}
	if analysis.Valid && analysis.String != "" {
		var c model.ClassificationResult
		if err := json.Unmarshal([]byte(analysis.String), &c); err != nil {
			return model.Asset{}, fmt.Errorf("decode analysis: %w", err)
		}
		a.Analysis = &c
	}
	if token.Valid && token.String != "" {
		var t model.TokenRecord
		if err := json.Unmarshal([]byte(token.String), &t); err != nil {
			return model.Asset{}, fmt.Errorf("decode token: %w", err)
		}
		a.Token = &t
	}
	if lastAccessed.Valid && lastAccessed.String != "" {
		t, err := time.Parse(time.RFC3339, lastAccessed.String)
		if err != nil {
			return model.Asset{}, fmt.Errorf("parsing last_accessed: %w", err)
		}
		a.LastAccessed = &t
	}

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return model.Asset{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return model.Asset{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return a, nil
}

func marshalJSON(v any, empty string) (string, error) {
	if v == nil {
		return empty, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalJSONOrNull(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case *model.ClassificationResult:
		if x == nil {
			return sql.NullString{}, nil
		}
	case *model.TokenRecord:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
