package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/internal/config"
	"github.com/nemonet1337/zaiLedger/internal/lockfile"
	"github.com/nemonet1337/zaiLedger/internal/logging"
	"github.com/nemonet1337/zaiLedger/pkg/inventory"
	"github.com/nemonet1337/zaiLedger/pkg/inventory/storage"
)

// ドキュメントを現行バージョンに移行して書き直す
func main() {
	log.Println("zaiLedger ドキュメント移行ツール")

	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	// データディレクトリの指定
	if len(os.Args) > 1 {
		cfg.Store.Root = os.Args[1]
	}

	logger, err := logging.New(cfg.Logging, cfg.LogPath())
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger); err != nil {
		log.Fatal("移行に失敗しました:", err)
	}
	log.Println("ドキュメントの移行が完了しました")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if _, err := os.Stat(cfg.Store.Root); err != nil {
		return err
	}

	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := storage.NewFileStore(cfg.StoreOptions(), logger)
	if err != nil {
		return err
	}

	log.Printf("データディレクトリ: %s", cfg.Store.Root)

	// 移行前の状態を保存
	if err := store.Backup(ctx); err != nil {
		return err
	}

	data, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, data); err != nil {
		return err
	}

	log.Printf("バージョン %d: 商品 %d 件, 取引 %d 件",
		inventory.CurrentVersion, len(data.Items), len(data.Transactions))
	return nil
}
