package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grantbirki/ibackup-locate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	dir := newTestBackup(t, "17.4.1")
	resolver := NewResolver(dir, nil)

	t.Run("relative path", func(t *testing.T) {
		resolved, err := resolver.ResolvePath("Library/SMS/sms.db")
		require.NoError(t, err)
		require.NotNil(t, resolved)

		fileID := "3d0d7e5fb2ce288813306e4d4636395e047a3d28"
		assert.Equal(t, filepath.Join(dir, fileID[:2], fileID), resolved.Path)
		assert.Equal(t, fileID, resolved.FileID)
		assert.Equal(t, "HomeDomain", resolved.Domain)
		assert.Equal(t, "Library/SMS/sms.db", resolved.RelativePath)
		assert.FileExists(t, resolved.Path)
	})

	t.Run("domain qualified path", func(t *testing.T) {
		resolved, err := resolver.ResolvePath("com.apple.MobileSMS-Library/Preferences/com.apple.MobileSMS.plist")
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.Equal(t, "c3d4e5f60718293a4b5c6d7e8f90123456789012", resolved.FileID)
	})

	t.Run("no matching rows", func(t *testing.T) {
		resolved, err := resolver.ResolvePath("Library/Notes/notes.sqlite")
		assert.NoError(t, err)
		assert.Nil(t, resolved)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := resolver.ResolvePath("Library/SMS/sms.db")
		require.NoError(t, err)
		second, err := resolver.ResolvePath("Library/SMS/sms.db")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestResolvePathMissingFileOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeManifestDB(t, dir, sampleRecords)

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.LevelInfo, Output: &buf})

	resolved, err := NewResolver(dir, log).ResolvePath("Library/SMS/sms.db")
	assert.NoError(t, err)
	assert.Nil(t, resolved)
	assert.Contains(t, buf.String(), "[WARN] Expected file not found")
	assert.Contains(t, buf.String(), "3d0d7e5fb2ce288813306e4d4636395e047a3d28")
}

func TestResolvePathManifestFailures(t *testing.T) {
	t.Run("missing Manifest.db", func(t *testing.T) {
		resolved, err := NewResolver(t.TempDir(), nil).ResolvePath("Library/SMS/sms.db")
		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("not a backup manifest", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Manifest.db"), nil, 0644))

		resolved, err := NewResolver(dir, nil).ResolvePath("Library/SMS/sms.db")
		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, ErrManifestQuery)
	})
}

func TestResolveBundle(t *testing.T) {
	dir := newTestBackup(t, "17.4.1")
	resolver := NewResolver(dir, nil)

	t.Run("exact domain", func(t *testing.T) {
		files, err := resolver.ResolveBundle("com.apple.MobileSMS")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "Library/Preferences/com.apple.MobileSMS.plist", files[0].RelativePath)
		assert.Equal(t, "com.apple.MobileSMS", files[0].Domain)
	})

	t.Run("app domain prefix retry", func(t *testing.T) {
		files, err := resolver.ResolveBundle("com.facebook.Facebook")
		require.NoError(t, err)
		require.Len(t, files, 2)

		expected := map[string]string{
			"Library/Preferences/com.facebook.Facebook.plist": "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
			"Documents/cache.db":                              "b2c3d4e5f60718293a4b5c6d7e8f901234567890",
		}
		for _, file := range files {
			fileID, ok := expected[file.RelativePath]
			require.True(t, ok, "unexpected relative path %s", file.RelativePath)
			assert.Equal(t, fileID, file.FileID)
			assert.Equal(t, filepath.Join(dir, fileID[:2], fileID), file.Path)
			assert.Equal(t, "AppDomain-com.facebook.Facebook", file.Domain)
		}
	})

	t.Run("already prefixed", func(t *testing.T) {
		files, err := resolver.ResolveBundle("AppDomain-com.facebook.Facebook")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("no rows after retry", func(t *testing.T) {
		files, err := resolver.ResolveBundle("com.example.Missing")
		assert.NoError(t, err)
		assert.Nil(t, files)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := resolver.ResolveBundle("com.facebook.Facebook")
		require.NoError(t, err)
		second, err := resolver.ResolveBundle("com.facebook.Facebook")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestResolveBundleSkipsDiskCheck(t *testing.T) {
	dir := t.TempDir()
	writeManifestDB(t, dir, sampleRecords)

	files, err := NewResolver(dir, nil).ResolveBundle("com.facebook.Facebook")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, file := range files {
		assert.NoFileExists(t, file.Path)
	}
}

func TestResolveBundleManifestFailures(t *testing.T) {
	t.Run("missing Manifest.db", func(t *testing.T) {
		files, err := NewResolver(t.TempDir(), nil).ResolveBundle("com.apple.MobileSMS")
		assert.Nil(t, files)
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("not a backup manifest", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Manifest.db"), nil, 0644))

		files, err := NewResolver(dir, nil).ResolveBundle("com.apple.MobileSMS")
		assert.Nil(t, files)
		assert.ErrorIs(t, err, ErrManifestQuery)
	})
}

func TestListDomains(t *testing.T) {
	dir := newTestBackup(t, "17.4.1")

	domains, err := NewResolver(dir, nil).ListDomains()
	require.NoError(t, err)
	assert.Equal(t, []string{"AppDomain-com.facebook.Facebook", "HomeDomain", "com.apple.MobileSMS"}, domains)

	_, err = NewResolver(t.TempDir(), nil).ListDomains()
	assert.ErrorIs(t, err, ErrManifestNotFound)
}
