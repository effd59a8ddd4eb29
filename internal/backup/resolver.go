package backup

import (
	"errors"
	"fmt"
	"os"

	"github.com/grantbirki/ibackup-locate/internal/logger"
	"github.com/grantbirki/ibackup-locate/internal/utils"
)

// AppDomainPrefix is carried by third-party app domains in Manifest.db
const AppDomainPrefix = "AppDomain-"

// ResolvedFile is a manifest entry mapped to its hashed location inside the backup
type ResolvedFile struct {
	Path         string `json:"path"`
	FileID       string `json:"file_id"`
	Domain       string `json:"domain"`
	RelativePath string `json:"relative_path"`
}

// Resolver maps logical device paths and bundle identifiers to files in a backup.
// Every call opens its own read-only Manifest.db connection and closes it before returning.
type Resolver struct {
	paths *utils.BackupPaths
	log   *logger.Logger
}

// NewResolver creates a resolver for the backup rooted at backupPath
func NewResolver(backupPath string, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{
		paths: utils.CreateBackupPaths(backupPath),
		log:   log,
	}
}

func (r *Resolver) resolve(record FileRecord) ResolvedFile {
	return ResolvedFile{
		Path:         r.paths.HashedFile(record.FileID),
		FileID:       record.FileID,
		Domain:       record.Domain,
		RelativePath: record.RelativePath,
	}
}

// ResolvePath finds the backed up file for a logical path such as
// "Library/SMS/sms.db" or "HomeDomain-Library/SMS/sms.db".
// It returns nil, nil when no entry matches or when the matching entry's file is absent on disk.
func (r *Resolver) ResolvePath(logicalPath string) (*ResolvedFile, error) {
	manifest, err := OpenManifestDB(r.paths.Root())
	if err != nil {
		return nil, err
	}
	defer manifest.Close()

	r.log.Debug("Looking up logical path", "path", logicalPath)

	record, err := manifest.FindByLogicalPath(logicalPath)
	if err != nil {
		return nil, err
	}
	if record == nil {
		r.log.Debug("No manifest entry for logical path", "path", logicalPath)
		return nil, nil
	}

	resolved := r.resolve(*record)
	if _, err := os.Stat(resolved.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Warn("Expected file not found", "path", resolved.Path, "file_id", resolved.FileID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", resolved.Path, err)
	}

	return &resolved, nil
}

// ResolveBundle lists every backed up file in the domain named by bundleID.
// When the exact domain has no entries the lookup is retried once with the
// AppDomain- prefix. Resolved paths are not checked for existence on disk.
// Returns nil, nil when neither domain has entries.
func (r *Resolver) ResolveBundle(bundleID string) ([]ResolvedFile, error) {
	manifest, err := OpenManifestDB(r.paths.Root())
	if err != nil {
		return nil, err
	}
	defer manifest.Close()

	records, err := manifest.FilesInDomain(bundleID)
	if err != nil {
		return nil, err
	}

	// com.apple.MobileSMS is stored as-is, com.facebook.Facebook as AppDomain-com.facebook.Facebook
	if len(records) == 0 {
		prefixed := AppDomainPrefix + bundleID
		r.log.Debug("No files for domain, retrying with app prefix", "domain", bundleID, "retry", prefixed)
		records, err = manifest.FilesInDomain(prefixed)
		if err != nil {
			return nil, err
		}
	}

	if len(records) == 0 {
		r.log.Debug("No files found for bundle", "bundle", bundleID)
		return nil, nil
	}

	resolved := make([]ResolvedFile, 0, len(records))
	for _, record := range records {
		resolved = append(resolved, r.resolve(record))
	}

	return resolved, nil
}

// ListDomains returns the distinct domains recorded in the backup's Manifest.db
func (r *Resolver) ListDomains() ([]string, error) {
	manifest, err := OpenManifestDB(r.paths.Root())
	if err != nil {
		return nil, err
	}
	defer manifest.Close()

	return manifest.GetDomains()
}
