// Package logging builds the zap logger shared by the commands
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nemonet1337/zaiLedger/internal/config"
)

// New builds a logger from cfg. Output "stdout" writes to the console, "file" to a
// rotating file at logPath and "both" tees the two.
// 設定からロガーを作成。fileはlogPathへのローテーション付き出力、bothはコンソールと併用
func New(cfg config.LoggingConfig, logPath string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("無効なログレベル: %s", cfg.Level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	newEncoder := zapcore.NewJSONEncoder
	if cfg.Format == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		newEncoder = zapcore.NewConsoleEncoder
	}

	var cores []zapcore.Core
	if cfg.Output == "stdout" || cfg.Output == "both" {
		cores = append(cores, zapcore.NewCore(newEncoder(encCfg), zapcore.Lock(os.Stdout), level))
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("ログディレクトリの作成に失敗しました: %w", err)
		}
		sink := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(newEncoder(encCfg), zapcore.AddSync(sink), level))
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("無効なログ出力先: %s", cfg.Output)
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
