package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

// Options configures where a FileStore keeps its files
// FileStoreのファイル配置設定
type Options struct {
	Root      string `yaml:"root"`       // データディレクトリ
	DataFile  string `yaml:"data_file"`  // ドキュメントファイル名
	BackupDir string `yaml:"backup_dir"` // バックアップディレクトリ名
	Keep      int    `yaml:"keep"`       // 保持するスナップショット数
}

// DefaultOptions returns the standard layout under root
func DefaultOptions(root string) Options {
	return Options{
		Root:      root,
		DataFile:  "items.json",
		BackupDir: "backups",
		Keep:      20,
	}
}

// FileStore implements inventory.Store with a JSON document and rotating snapshots
// JSONドキュメントとスナップショットによるStoreの実装
type FileStore struct {
	opts       Options
	dataPath   string
	backupPath string
	logger     *zap.Logger

	mu        sync.Mutex // lastStamp を保護
	lastStamp time.Time
	now       func() time.Time
}

var _ inventory.Store = (*FileStore)(nil)

// NewFileStore creates the data and backup directories and returns the store
// データ・バックアップディレクトリを作成してストアを返す
func NewFileStore(opts Options, logger *zap.Logger) (*FileStore, error) {
	defaults := DefaultOptions(opts.Root)
	if opts.Root == "" {
		return nil, fmt.Errorf("データディレクトリが指定されていません")
	}
	if opts.DataFile == "" {
		opts.DataFile = defaults.DataFile
	}
	if opts.BackupDir == "" {
		opts.BackupDir = defaults.BackupDir
	}
	if opts.Keep <= 0 {
		opts.Keep = defaults.Keep
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &FileStore{
		opts:       opts,
		dataPath:   filepath.Join(opts.Root, opts.DataFile),
		backupPath: filepath.Join(opts.Root, opts.BackupDir),
		logger:     logger.Named("storage"),
		now:        time.Now,
	}
	if err := os.MkdirAll(s.backupPath, 0o755); err != nil {
		return nil, inventory.NewPersistenceError("init", "データディレクトリの作成に失敗しました", err)
	}
	return s, nil
}

// DataPath returns the path of the live document
func (s *FileStore) DataPath() string { return s.dataPath }

// BackupPath returns the snapshot directory
func (s *FileStore) BackupPath() string { return s.backupPath }

// Load reads the document. When it does not exist yet the empty template is written first.
// ドキュメントを読み込む。存在しない場合はテンプレートを作成する
func (s *FileStore) Load(ctx context.Context) (*inventory.AppData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		data := inventory.NewAppData()
		encoded, err := encodeDocument(data)
		if err != nil {
			return nil, inventory.NewPersistenceError("load", "テンプレートの生成に失敗しました", err)
		}
		if err := atomicWrite(s.dataPath, encoded); err != nil {
			return nil, inventory.NewPersistenceError("load", "テンプレートの書き込みに失敗しました", err)
		}
		s.logger.Info("空のドキュメントを作成しました", zap.String("path", s.dataPath))
		return data, nil
	}
	if err != nil {
		return nil, inventory.NewPersistenceError("load", "ドキュメントの読み込みに失敗しました", err)
	}

	data, err := decodeDocument(raw)
	if err != nil {
		return nil, inventory.NewPersistenceError("load", "ドキュメントの解析に失敗しました", err)
	}
	return data, nil
}

// Save atomically replaces the document and then takes exactly one snapshot of it.
// Snapshot failures are logged and do not fail the save.
// ドキュメントを原子的に置き換え、スナップショットを1つ作成する
func (s *FileStore) Save(ctx context.Context, data *inventory.AppData) (err error) {
	start := time.Now()
	defer func() { observeSave(start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := encodeDocument(data)
	if err != nil {
		return inventory.NewPersistenceError("save", "ドキュメントのエンコードに失敗しました", err)
	}
	if err := atomicWrite(s.dataPath, raw); err != nil {
		return inventory.NewPersistenceError("save", "ドキュメントの書き込みに失敗しました", err)
	}

	if err := s.snapshot(raw); err != nil {
		s.logger.Warn("スナップショット作成に失敗しました (保存は完了)", zap.Error(err))
	}
	return nil
}

func encodeDocument(data *inventory.AppData) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeDocument parses raw over a template so that missing settings keep their defaults
func decodeDocument(raw []byte) (*inventory.AppData, error) {
	data := &inventory.AppData{Settings: inventory.DefaultSettings()}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return migrate(data)
}

// migrate brings an older document up to the current version
// 旧バージョンのドキュメントを現行バージョンに移行
func migrate(data *inventory.AppData) (*inventory.AppData, error) {
	if data.Version > inventory.CurrentVersion {
		return nil, fmt.Errorf("未対応のドキュメントバージョンです: %d (対応: %d)", data.Version, inventory.CurrentVersion)
	}
	data.Version = inventory.CurrentVersion

	if data.Items == nil {
		data.Items = []inventory.Item{}
	}
	if data.Transactions == nil {
		data.Transactions = []inventory.Transaction{}
	}
	if len(data.Settings.Categories) == 0 {
		data.Settings.Categories = inventory.DefaultCategories()
	}
	if inventory.ValidateDelimiter(data.Settings.CSVDelimiter) != nil {
		data.Settings.CSVDelimiter = inventory.DefaultDelimiter
	}
	return data, nil
}

// atomicWrite writes raw to a temp file in the target directory and renames it into place
// 同一ディレクトリの一時ファイルに書き込み、リネームで置き換える
func atomicWrite(path string, raw []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}

	// ディレクトリ同期の失敗は無視 (書き込み自体は完了している)
	_ = syncDir(dir)
	return nil
}

func syncDir(dirPath string) error {
	dir, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("open dir for sync: %w", err)
	}
	defer dir.Close()

	if err := dir.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}
