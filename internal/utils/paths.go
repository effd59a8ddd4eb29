package utils

import (
	"path/filepath"
)

// BackupPaths holds commonly used backup-related path construction utilities
type BackupPaths struct {
	backupPath string
}

// CreateBackupPaths creates a new BackupPaths instance
func CreateBackupPaths(backupPath string) *BackupPaths {
	return &BackupPaths{
		backupPath: backupPath,
	}
}

// Root returns the backup directory itself
func (bp *BackupPaths) Root() string {
	return bp.backupPath
}

// InfoPlist returns the path to the Info.plist file
func (bp *BackupPaths) InfoPlist() string {
	return filepath.Join(bp.backupPath, "Info.plist")
}

// ManifestPlist returns the path to the Manifest.plist file
func (bp *BackupPaths) ManifestPlist() string {
	return filepath.Join(bp.backupPath, "Manifest.plist")
}

// ManifestDB returns the path to the Manifest.db file
func (bp *BackupPaths) ManifestDB() string {
	return filepath.Join(bp.backupPath, "Manifest.db")
}

// HashedFile returns the on-disk location of a backed up file.
// Files are sharded into subdirectories named after the first two characters of their fileID.
func (bp *BackupPaths) HashedFile(fileID string) string {
	if len(fileID) < 2 {
		return filepath.Join(bp.backupPath, fileID)
	}
	return filepath.Join(bp.backupPath, fileID[:2], fileID)
}
