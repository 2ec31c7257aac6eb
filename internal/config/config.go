package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
	"github.com/nemonet1337/zaiLedger/pkg/inventory/storage"
)

// Config holds application configuration
// アプリケーション設定を保持
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	API       APIConfig       `yaml:"api"`
	Inventory InventoryConfig `yaml:"inventory"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig holds the data directory layout
// データディレクトリ設定を保持
type StoreConfig struct {
	Root       string `yaml:"root"`
	DataFile   string `yaml:"data_file"`
	BackupDir  string `yaml:"backup_dir"`
	BackupKeep int    `yaml:"backup_keep"`
	LockFile   string `yaml:"lock_file"`
}

// APIConfig holds API server configuration
// APIサーバー設定を保持
type APIConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	EnableMetrics  bool          `yaml:"enable_metrics"`
	MaxImportBytes int64         `yaml:"max_import_bytes"`
}

// InventoryConfig holds ledger behaviour settings
// 在庫台帳の動作設定を保持
type InventoryConfig struct {
	DefaultInReason     string `yaml:"default_in_reason"`
	DefaultOutReason    string `yaml:"default_out_reason"`
	DefaultAdjustReason string `yaml:"default_adjust_reason"`
	LowStockAlerts      bool   `yaml:"low_stock_alerts"`
}

// LoggingConfig holds logging configuration
// ログ設定を保持
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, file, both
	File   string `yaml:"file"`   // file/both の場合の出力先 (ルートからの相対パス可)

	MaxSizeMB  int `yaml:"max_size_mb"` // ローテーションするサイズ
	MaxBackups int `yaml:"max_backups"` // 保持する旧ログ数
}

// Default returns the built-in configuration
// 組み込みの既定設定を返す
func Default() *Config {
	mgr := inventory.DefaultConfig()
	opts := storage.DefaultOptions("data")
	return &Config{
		Store: StoreConfig{
			Root:       opts.Root,
			DataFile:   opts.DataFile,
			BackupDir:  opts.BackupDir,
			BackupKeep: opts.Keep,
			LockFile:   "app.lock",
		},
		API: APIConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			EnableCORS:     true,
			EnableMetrics:  true,
			MaxImportBytes: 10 << 20,
		},
		Inventory: InventoryConfig{
			DefaultInReason:     mgr.DefaultInReason,
			DefaultOutReason:    mgr.DefaultOutReason,
			DefaultAdjustReason: mgr.DefaultAdjustReason,
			LowStockAlerts:      mgr.LowStockAlerts,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output:     "both",
			File:       filepath.Join("logs", "app.log"),
			MaxSizeMB:  1,
			MaxBackups: 5,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an optional
// YAML file named by ZAI_CONFIG and finally environment variables
// 既定値、.env、ZAI_CONFIGのYAML、環境変数の順に設定を読み込み
func Load() (*Config, error) {
	// .env は任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envの読み込みに失敗しました: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("ZAI_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定バリデーションに失敗しました: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file keep their values.
// YAMLファイルの内容を設定に上書き
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Root = getEnv("ZAI_ROOT", c.Store.Root)
	c.Store.DataFile = getEnv("ZAI_DATA_FILE", c.Store.DataFile)
	c.Store.BackupDir = getEnv("ZAI_BACKUP_DIR", c.Store.BackupDir)
	c.Store.BackupKeep = getEnvAsInt("ZAI_BACKUP_KEEP", c.Store.BackupKeep)
	c.Store.LockFile = getEnv("ZAI_LOCK_FILE", c.Store.LockFile)

	c.API.Port = getEnvAsInt("API_PORT", c.API.Port)
	c.API.ReadTimeout = getEnvAsDuration("API_READ_TIMEOUT", c.API.ReadTimeout)
	c.API.WriteTimeout = getEnvAsDuration("API_WRITE_TIMEOUT", c.API.WriteTimeout)
	c.API.IdleTimeout = getEnvAsDuration("API_IDLE_TIMEOUT", c.API.IdleTimeout)
	c.API.EnableCORS = getEnvAsBool("API_ENABLE_CORS", c.API.EnableCORS)
	c.API.EnableMetrics = getEnvAsBool("API_ENABLE_METRICS", c.API.EnableMetrics)
	c.API.MaxImportBytes = getEnvAsInt64("API_MAX_IMPORT_BYTES", c.API.MaxImportBytes)

	c.Inventory.DefaultInReason = getEnv("INVENTORY_IN_REASON", c.Inventory.DefaultInReason)
	c.Inventory.DefaultOutReason = getEnv("INVENTORY_OUT_REASON", c.Inventory.DefaultOutReason)
	c.Inventory.DefaultAdjustReason = getEnv("INVENTORY_ADJUST_REASON", c.Inventory.DefaultAdjustReason)
	c.Inventory.LowStockAlerts = getEnvAsBool("INVENTORY_LOW_STOCK_ALERTS", c.Inventory.LowStockAlerts)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
	c.Logging.MaxSizeMB = getEnvAsInt("LOG_MAX_SIZE_MB", c.Logging.MaxSizeMB)
	c.Logging.MaxBackups = getEnvAsInt("LOG_MAX_BACKUPS", c.Logging.MaxBackups)
}

// Validate validates the configuration
// 設定をバリデーション
func (c *Config) Validate() error {
	// ストア設定チェック
	if c.Store.Root == "" {
		return fmt.Errorf("データディレクトリが指定されていません")
	}
	if c.Store.DataFile == "" {
		return fmt.Errorf("ドキュメントファイル名が指定されていません")
	}
	if c.Store.BackupKeep < 1 {
		return fmt.Errorf("バックアップ保持数は1以上である必要があります: %d", c.Store.BackupKeep)
	}
	if c.Store.LockFile == "" {
		return fmt.Errorf("ロックファイル名が指定されていません")
	}

	// API設定チェック
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("無効なAPIポート: %d", c.API.Port)
	}
	if c.API.MaxImportBytes <= 0 {
		return fmt.Errorf("取込サイズ上限は正の値である必要があります")
	}

	// ログ設定チェック
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("無効なログレベル: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("無効なログフォーマット: %s", c.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "file": true, "both": true,
	}
	if !validLogOutputs[c.Logging.Output] {
		return fmt.Errorf("無効なログ出力先: %s", c.Logging.Output)
	}
	if c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("ログローテーションサイズは1MB以上である必要があります: %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("ログ保持数は0以上である必要があります: %d", c.Logging.MaxBackups)
	}

	return nil
}

// StoreOptions converts the store section for storage.NewFileStore
// ストア設定をFileStoreのオプションに変換
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Root:      c.Store.Root,
		DataFile:  c.Store.DataFile,
		BackupDir: c.Store.BackupDir,
		Keep:      c.Store.BackupKeep,
	}
}

// ManagerConfig converts the inventory section for inventory.NewManager
func (c *Config) ManagerConfig() *inventory.Config {
	return &inventory.Config{
		DefaultInReason:     c.Inventory.DefaultInReason,
		DefaultOutReason:    c.Inventory.DefaultOutReason,
		DefaultAdjustReason: c.Inventory.DefaultAdjustReason,
		LowStockAlerts:      c.Inventory.LowStockAlerts,
	}
}

// LockPath returns the lock file location inside the data directory
func (c *Config) LockPath() string {
	return filepath.Join(c.Store.Root, c.Store.LockFile)
}

// LogPath returns the log file location, relative paths resolved against the data directory
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.Store.Root, c.Logging.File)
}

// ヘルパー関数

// getEnv gets environment variable with default value
// デフォルト値付きで環境変数を取得
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if int64Value, err := strconv.ParseInt(value, 10, 64); err == nil {
			return int64Value
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
