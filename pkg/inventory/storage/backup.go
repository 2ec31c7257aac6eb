package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

const (
	snapshotPrefix = "items_"
	snapshotSuffix = ".json"
	snapshotLayout = "20060102_150405.000000"
)

type snapshot struct {
	name    string
	path    string
	modTime time.Time
}

// Backup snapshots the document currently on disk. Nothing is written when the
// newest snapshot already holds the same bytes.
// 現在のドキュメントのスナップショットを作成。最新と同一の場合は作成しない
func (s *FileStore) Backup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := os.ReadFile(s.dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return inventory.NewPersistenceError("backup", "ドキュメントの読み込みに失敗しました", err)
	}

	snaps, err := s.listSnapshots()
	if err != nil {
		return inventory.NewPersistenceError("backup", "バックアップ一覧の取得に失敗しました", err)
	}
	if len(snaps) > 0 {
		if newest, err := os.ReadFile(snaps[0].path); err == nil && bytes.Equal(newest, raw) {
			s.logger.Debug("最新のスナップショットと同一のためバックアップを省略しました",
				zap.String("snapshot", snaps[0].name))
			return nil
		}
	}

	if err := s.snapshot(raw); err != nil {
		return inventory.NewPersistenceError("backup", "バックアップの作成に失敗しました", err)
	}
	return nil
}

// RestoreLatest writes the newest snapshot that differs from the live document over it.
// Snapshots identical to the live document are consumed on the way; unreadable ones are skipped.
// 現在と異なる最新のスナップショットでドキュメントを復元する
func (s *FileStore) RestoreLatest(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	live, err := os.ReadFile(s.dataPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, inventory.NewPersistenceError("restore", "ドキュメントの読み込みに失敗しました", err)
	}

	snaps, err := s.listSnapshots()
	if err != nil {
		return false, inventory.NewPersistenceError("restore", "バックアップ一覧の取得に失敗しました", err)
	}

	for _, snap := range snaps {
		raw, err := os.ReadFile(snap.path)
		if err != nil {
			s.logger.Warn("スナップショットを読み込めないためスキップします",
				zap.String("snapshot", snap.name), zap.Error(err))
			continue
		}
		if live != nil && bytes.Equal(raw, live) {
			if err := os.Remove(snap.path); err != nil {
				s.logger.Warn("スナップショットの削除に失敗しました",
					zap.String("snapshot", snap.name), zap.Error(err))
			}
			continue
		}
		if _, err := decodeDocument(raw); err != nil {
			s.logger.Warn("無効なスナップショットをスキップします",
				zap.String("snapshot", snap.name), zap.Error(err))
			continue
		}

		if err := atomicWrite(s.dataPath, raw); err != nil {
			return false, inventory.NewPersistenceError("restore", "ドキュメントの復元に失敗しました", err)
		}
		s.logger.Info("スナップショットから復元しました", zap.String("snapshot", snap.name))
		return true, nil
	}
	return false, nil
}

// snapshot writes raw as a new backup file and rotates old ones
func (s *FileStore) snapshot(raw []byte) error {
	path := s.nextSnapshotPath()
	if err := atomicWrite(path, raw); err != nil {
		backupsTotal.WithLabelValues("error").Inc()
		return err
	}
	backupsTotal.WithLabelValues("ok").Inc()
	s.rotate()
	return nil
}

// nextSnapshotPath returns a snapshot name strictly after every name this process has issued
func (s *FileStore) nextSnapshotPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Truncate(time.Microsecond)
	if !stamp.After(s.lastStamp) {
		stamp = s.lastStamp.Add(time.Microsecond)
	}
	for {
		path := filepath.Join(s.backupPath, snapshotPrefix+stamp.Format(snapshotLayout)+snapshotSuffix)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			s.lastStamp = stamp
			return path
		}
		stamp = stamp.Add(time.Microsecond)
	}
}

// rotate keeps the newest Keep snapshots. Deletion failures are only logged.
// 古いスナップショットを削除して保持数を維持
func (s *FileStore) rotate() {
	snaps, err := s.listSnapshots()
	if err != nil {
		s.logger.Warn("バックアップ一覧の取得に失敗しました", zap.Error(err))
		return
	}
	if len(snaps) <= s.opts.Keep {
		return
	}
	for _, snap := range snaps[s.opts.Keep:] {
		if err := os.Remove(snap.path); err != nil {
			backupsRotatedTotal.WithLabelValues("error").Inc()
			s.logger.Warn("古いスナップショットの削除に失敗しました",
				zap.String("snapshot", snap.name), zap.Error(err))
			continue
		}
		backupsRotatedTotal.WithLabelValues("ok").Inc()
	}
}

// listSnapshots returns snapshots newest first by modification time, then by name
func (s *FileStore) listSnapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(s.backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snaps := make([]snapshot, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{
			name:    name,
			path:    filepath.Join(s.backupPath, name),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].modTime.Equal(snaps[j].modTime) {
			return snaps[i].modTime.After(snaps[j].modTime)
		}
		return snaps[i].name > snaps[j].name
	})
	return snaps, nil
}
