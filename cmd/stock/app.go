package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/internal/config"
	"github.com/nemonet1337/zaiLedger/internal/lockfile"
	"github.com/nemonet1337/zaiLedger/internal/logging"
	"github.com/nemonet1337/zaiLedger/pkg/inventory"
	"github.com/nemonet1337/zaiLedger/pkg/inventory/storage"
)

// app opens the ledger on first use so that help commands never touch the data directory
type app struct {
	manager *inventory.Manager
	logger  *zap.Logger
	lock    *lockfile.Lock
}

func (a *app) open(ctx context.Context) (*inventory.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// 標準出力はコマンドの結果に使うため、ログはファイルに出力
	cfg.Logging.Output = "file"

	logger, err := logging.New(cfg.Logging, cfg.LogPath())
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFileStore(cfg.StoreOptions(), logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		logger.Sync()
		return nil, err
	}
	manager, err := inventory.NewManager(ctx, store, inventory.NewLogPublisher(logger), logger, cfg.ManagerConfig())
	if err != nil {
		lock.Release()
		logger.Sync()
		return nil, err
	}

	a.manager, a.logger, a.lock = manager, logger, lock
	return manager, nil
}

// Close releases the lock and flushes the log
func (a *app) Close() {
	if a.lock != nil {
		if err := a.lock.Release(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

// ledgerFrom extracts the app passed to Commander.Execute and opens the ledger
func ledgerFrom(ctx context.Context, args []interface{}) (*inventory.Manager, subcommands.ExitStatus) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "内部エラー: アプリケーションが渡されていません")
		return nil, subcommands.ExitFailure
	}
	a, ok := args[0].(*app)
	if !ok {
		fmt.Fprintln(os.Stderr, "内部エラー: 不正な引数です")
		return nil, subcommands.ExitFailure
	}
	m, err := a.open(ctx)
	if err != nil {
		return nil, fail(err)
	}
	return m, subcommands.ExitSuccess
}

// fail prints err with its kind and returns the matching exit status
func fail(err error) subcommands.ExitStatus {
	kind := "error"
	switch {
	case inventory.IsValidation(err):
		kind = "validation"
	case inventory.IsNotFound(err):
		kind = "not_found"
	case inventory.IsConflict(err):
		kind = "conflict"
	case inventory.IsPersistence(err):
		kind = "persistence"
	case errors.Is(err, lockfile.ErrLocked):
		kind = "locked"
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
	return subcommands.ExitFailure
}

func usage(format string, a ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	return subcommands.ExitUsageError
}
