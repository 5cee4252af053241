package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

// ErrMiss signals that no cache entry exists for the requested key. Read
// failures are reported as a miss as well, so callers treat both identically.
var ErrMiss = errors.New("no cached response for key")

// sqliteResponseCache is the sqlite implementation of the persisted response
// cache. Entries are never expired by age: a stale entry remains servable
// indefinitely as a fallback, with staleness surfaced via last_fetched_at.
type sqliteResponseCache struct {
	db *sql.DB
}

// NewSQLiteResponseCache creates the database and schema for the response cache
func NewSQLiteResponseCache(dbPath string) (*sqliteResponseCache, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteResponseCache{
		db: db,
	}, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS response_cache (
		company_id      TEXT    NOT NULL,
		platform        TEXT    NOT NULL,
		resource_id     TEXT    NOT NULL,
		payload_json    TEXT    NOT NULL,
		fetch_status    TEXT    NOT NULL,
		last_fetched_at INTEGER NOT NULL,
		PRIMARY KEY (company_id, platform, resource_id)
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetData returns the cache entry for the key or ErrMiss. Any read or decode
// failure is logged and reported as a miss.
func (s *sqliteResponseCache) GetData(ctx context.Context, companyID string, platform common.Platform, resourceID string) (common.CacheEntry, error) {
	entry := common.CacheEntry{
		Key: common.CacheKey{
			CompanyID:  companyID,
			Platform:   platform,
			ResourceID: resourceID,
		},
	}

	var payloadJSON string
	var fetchStatus string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload_json, fetch_status, last_fetched_at
		FROM response_cache
		WHERE company_id = ? AND platform = ? AND resource_id = ?
	`, companyID, string(platform), resourceID).Scan(&payloadJSON, &fetchStatus, &entry.LastFetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return common.CacheEntry{}, ErrMiss
	}
	if err != nil {
		log.Warn("response cache read failed, treating as miss", "key", entry.Key.String(), "error", err)
		return common.CacheEntry{}, ErrMiss
	}

	err = json.Unmarshal([]byte(payloadJSON), &entry.Payload)
	if err != nil {
		log.Warn("response cache entry is not decodable, treating as miss", "key", entry.Key.String(), "error", err)
		return common.CacheEntry{}, ErrMiss
	}

	entry.FetchStatus = common.FetchStatus(fetchStatus)

	return entry, nil
}

// StoreData overwrites the entry for the key (last-write-wins) and stamps it
// with the current time
func (s *sqliteResponseCache) StoreData(
	ctx context.Context,
	companyID string,
	platform common.Platform,
	resourceID string,
	payload map[string]common.NormalizedResponse,
	fetchStatus common.FetchStatus,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO response_cache (company_id, platform, resource_id, payload_json, fetch_status, last_fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, platform, resource_id) DO UPDATE SET
			payload_json=excluded.payload_json,
			fetch_status=excluded.fetch_status,
			last_fetched_at=excluded.last_fetched_at
	`, companyID, string(platform), resourceID, string(payloadJSON), string(fetchStatus), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Close closes the database
func (s *sqliteResponseCache) Close() error {
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteResponseCache) IsInterfaceNil() bool {
	return s == nil
}
