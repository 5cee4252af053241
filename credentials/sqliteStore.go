package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iulianpascalau/social-metrics/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("credentials")

const statusConnected = "CONNECTED"

// sqliteStore is the sqlite implementation for the integrations store
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the database and schema for the integrations store
func NewSQLiteStore(dbPath string) (*sqliteStore, error) {
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

	return &sqliteStore{
		db: db,
	}, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS integrations (
		company_id    TEXT NOT NULL,
		platform      TEXT NOT NULL,
		access_token  TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at    INTEGER NOT NULL DEFAULT 0,
		status        TEXT NOT NULL DEFAULT 'CONNECTED',
		PRIMARY KEY (company_id, platform)
	);

	CREATE INDEX IF NOT EXISTS idx_integrations_status ON integrations(status);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetCredential returns the credential for the company and platform, only if the integration is connected
func (s *sqliteStore) GetCredential(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
	credential := common.Credential{
		CompanyID: companyID,
		Platform:  platform,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at
		FROM integrations
		WHERE company_id = ? AND platform = ? AND status = ?
	`, companyID, string(platform), statusConnected).Scan(&credential.AccessToken, &credential.RefreshToken, &credential.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Credential{}, ErrNotFound
	}
	if err != nil {
		return common.Credential{}, err
	}

	return credential, nil
}

// UpsertIntegration creates or replaces the integration row for the credential, marking it connected
func (s *sqliteStore) UpsertIntegration(ctx context.Context, credential common.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrations (company_id, platform, access_token, refresh_token, expires_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, platform) DO UPDATE SET
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			expires_at=excluded.expires_at,
			status=excluded.status
	`, credential.CompanyID, string(credential.Platform), credential.AccessToken, credential.RefreshToken, credential.ExpiresAt, statusConnected)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}

	log.Debug("upserted integration", "company", credential.CompanyID, "platform", credential.Platform)

	return nil
}

// DeleteIntegration removes the integration row for the company and platform
func (s *sqliteStore) DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM integrations WHERE company_id = ? AND platform = ?", companyID, string(platform))
	return err
}

// Close closes the database
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStore) IsInterfaceNil() bool {
	return s == nil
}
