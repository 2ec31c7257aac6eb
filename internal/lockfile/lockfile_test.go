package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	assert.Equal(t, path, lock.Path())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(raw))

	// 2回目の取得は失敗する
	_, err = Acquire(path)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, path)
	assert.NoError(t, lock.Release())

	again, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestAcquire_MissingDirectory(t *testing.T) {
	_, err := Acquire(filepath.Join(t.TempDir(), "missing", "app.lock"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrLocked))
}
