// Package lockfile keeps a data directory to a single running process
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

// ErrLocked is returned when the lock file already exists
var ErrLocked = inventory.ErrStoreLocked

// Lock is a held lock file
// 取得済みのロックファイル
type Lock struct {
	path string
}

// Acquire creates path exclusively and writes the current pid into it.
// If the file exists another process is assumed to hold the lock; remove it by hand after a crash.
// ロックファイルを排他的に作成してPIDを書き込む
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		if pid := holder(path); pid != "" {
			return nil, fmt.Errorf("%w: %s (pid %s)", ErrLocked, path, pid)
		}
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("ロックファイルの作成に失敗しました: %w", err)
	}

	_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("ロックファイルの書き込みに失敗しました: %w", err)
	}
	return &Lock{path: path}, nil
}

// Path returns the lock file location
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. Releasing twice is harmless.
// ロックファイルを削除
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ロックファイルの削除に失敗しました: %w", err)
	}
	return nil
}

func holder(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
