package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	defer func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	}()

	t.Run("dev build", func(t *testing.T) {
		Version, Commit, Date = "dev", "none", "unknown"
		assert.Equal(t, "dev", String())
	})

	t.Run("release build", func(t *testing.T) {
		Version, Commit, Date = "v1.2.0", "abc1234", "2025-09-18"
		assert.Equal(t, "v1.2.0 (commit abc1234, built 2025-09-18)", String())
	})
}
