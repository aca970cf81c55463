package banlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nasoro/gateway/internal/shared/models"
)

func rec(key string) models.BanRecord {
	return models.BanRecord{ClientKey: key, Reason: "burst", Timestamp: time.Now()}
}

func TestLoadMissingFileMeansZeroBans(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "banned.txt"))

	banned, err := l.Load()
	require.NoError(t, err)
	require.Empty(t, banned)
}

func TestAppendThenReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	l := New(path)

	require.NoError(t, l.Append(rec("10.0.0.1")))
	require.NoError(t, l.Append(rec("10.0.0.2")))

	// A fresh Log over the same file sees both keys, simulating a
	// process restart.
	banned, err := New(path).Load()
	require.NoError(t, err)
	require.Len(t, banned, 2)
	require.Contains(t, banned, "10.0.0.1")
	require.Contains(t, banned, "10.0.0.2")
}

func TestFileFormatIsNewlineDelimitedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	l := New(path)

	require.NoError(t, l.Append(rec("203.0.113.7")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.7\n", string(raw))
}

func TestClearOverwritesDurableStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	l := New(path)

	require.NoError(t, l.Append(rec("10.0.0.1")))
	require.NoError(t, l.Clear())

	banned, err := l.Load()
	require.NoError(t, err)
	require.Empty(t, banned)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, strings.TrimSpace(string(raw)))
}
