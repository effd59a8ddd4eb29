package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Device Name</key>
	<string>Birki's iPhone</string>
	<key>Product Type</key>
	<string>iPhone14,2</string>
	<key>Product Version</key>
	<string>%s</string>
	<key>Build Version</key>
	<string>21E236</string>
	<key>Unique Identifier</key>
	<string>00008110-000939D83484801E</string>
</dict>
</plist>`

const manifestSchema = `
	CREATE TABLE Files (
		fileID TEXT PRIMARY KEY,
		domain TEXT,
		relativePath TEXT,
		flags INTEGER,
		file BLOB
	)
`

// writeInfoPlist writes an Info.plist reporting the given product version
func writeInfoPlist(t *testing.T, dir, productVersion string) {
	t.Helper()
	content := fmt.Sprintf(infoPlistTemplate, productVersion)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Info.plist"), []byte(content), 0644))
}

// writeManifestDB creates a Manifest.db holding records
func writeManifestDB(t *testing.T, dir string, records []FileRecord) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(dir, "Manifest.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(manifestSchema)
	require.NoError(t, err)

	for _, record := range records {
		_, err := db.Exec(
			`INSERT INTO Files (fileID, domain, relativePath, flags, file) VALUES (?, ?, ?, 1, NULL)`,
			record.FileID, record.Domain, record.RelativePath,
		)
		require.NoError(t, err)
	}
}

// writeHashedFile creates the sharded on-disk file for fileID
func writeHashedFile(t *testing.T, dir, fileID string) string {
	t.Helper()
	path := filepath.Join(dir, fileID[:2], fileID)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("content of "+fileID), 0644))
	return path
}

var sampleRecords = []FileRecord{
	{FileID: "3d0d7e5fb2ce288813306e4d4636395e047a3d28", Domain: "HomeDomain", RelativePath: "Library/SMS/sms.db"},
	{FileID: "31bb7ba8914766d4ba40d6dfb6113c8b614be442", Domain: "HomeDomain", RelativePath: "Library/AddressBook/AddressBook.sqlitedb"},
	{FileID: "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678", Domain: "AppDomain-com.facebook.Facebook", RelativePath: "Library/Preferences/com.facebook.Facebook.plist"},
	{FileID: "b2c3d4e5f60718293a4b5c6d7e8f901234567890", Domain: "AppDomain-com.facebook.Facebook", RelativePath: "Documents/cache.db"},
	{FileID: "c3d4e5f60718293a4b5c6d7e8f90123456789012", Domain: "com.apple.MobileSMS", RelativePath: "Library/Preferences/com.apple.MobileSMS.plist"},
}

// newTestBackup builds a backup directory with Info.plist, Manifest.db and every hashed file
func newTestBackup(t *testing.T, productVersion string) string {
	t.Helper()
	dir := t.TempDir()
	writeInfoPlist(t, dir, productVersion)
	writeManifestDB(t, dir, sampleRecords)
	for _, record := range sampleRecords {
		writeHashedFile(t, dir, record.FileID)
	}
	return dir
}
