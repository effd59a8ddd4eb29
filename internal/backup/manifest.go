package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/grantbirki/ibackup-locate/internal/utils"
	_ "modernc.org/sqlite"
)

// Errors returned when Manifest.db is absent or cannot be queried
var (
	ErrManifestNotFound = errors.New("Manifest.db not found")
	ErrManifestQuery    = errors.New("could not query Manifest.db")
)

// ManifestDB represents the iPhone backup's Manifest.db
type ManifestDB struct {
	db   *sql.DB
	path string
}

// FileRecord represents a file entry from the Manifest.db
type FileRecord struct {
	FileID       string
	Domain       string
	RelativePath string
}

// OpenManifestDB opens the Manifest.db file from an iPhone backup in read-only mode
func OpenManifestDB(backupPath string) (*ManifestDB, error) {
	manifestPath := utils.CreateBackupPaths(backupPath).ManifestDB()

	if _, err := os.Stat(manifestPath); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrManifestNotFound, backupPath, err)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(manifestPath))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open: %v", ErrManifestQuery, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping: %v", ErrManifestQuery, err)
	}

	return &ManifestDB{
		db:   db,
		path: manifestPath,
	}, nil
}

func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		RawQuery: "mode=ro",
	}
	return u.String()
}

// Close closes the Manifest.db connection
func (m *ManifestDB) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Path returns the location of the opened Manifest.db
func (m *ManifestDB) Path() string {
	return m.path
}

// NULL columns read back as empty strings
const selectFileRecord = `SELECT COALESCE(fileID, ''), COALESCE(domain, ''), COALESCE(relativePath, '') FROM Files`

// FindByLogicalPath returns the first entry whose relativePath, or domain-qualified
// "domain-relativePath", equals logicalPath. Rows are taken in insertion order.
// Returns nil, nil when nothing matches.
func (m *ManifestDB) FindByLogicalPath(logicalPath string) (*FileRecord, error) {
	query := selectFileRecord + `
		WHERE relativePath = ? OR domain || '-' || relativePath = ?
		ORDER BY rowid
		LIMIT 1
	`

	var record FileRecord
	err := m.db.QueryRow(query, logicalPath, logicalPath).Scan(
		&record.FileID,
		&record.Domain,
		&record.RelativePath,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestQuery, err)
	}

	return &record, nil
}

// FilesInDomain returns every entry owned by domain in index order
func (m *ManifestDB) FilesInDomain(domain string) ([]FileRecord, error) {
	query := selectFileRecord + `
		WHERE domain = ?
	`

	rows, err := m.db.Query(query, domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestQuery, err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var record FileRecord
		if err := rows.Scan(&record.FileID, &record.Domain, &record.RelativePath); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", ErrManifestQuery, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestQuery, err)
	}

	return records, nil
}

// GetDomains returns all unique domains in the backup
func (m *ManifestDB) GetDomains() ([]string, error) {
	query := `SELECT DISTINCT domain FROM Files WHERE domain IS NOT NULL ORDER BY domain`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestQuery, err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("%w: failed to scan domain: %v", ErrManifestQuery, err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestQuery, err)
	}

	return domains, nil
}
