package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/internal/config"
	"github.com/nemonet1337/zaiLedger/internal/lockfile"
	"github.com/nemonet1337/zaiLedger/internal/logging"
	"github.com/nemonet1337/zaiLedger/pkg/inventory"
	"github.com/nemonet1337/zaiLedger/pkg/inventory/storage"
)

func main() {
	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	// ログ設定
	logger, err := logging.New(cfg.Logging, cfg.LogPath())
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	// ストア初期化
	store, err := storage.NewFileStore(cfg.StoreOptions(), logger)
	if err != nil {
		logger.Fatal("ストア初期化に失敗しました", zap.Error(err))
	}

	// 多重起動防止
	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		logger.Fatal("データディレクトリのロック取得に失敗しました", zap.Error(err))
	}
	defer lock.Release()

	// 在庫台帳初期化
	ctx := context.Background()
	manager, err := inventory.NewManager(ctx, store, inventory.NewLogPublisher(logger), logger, cfg.ManagerConfig())
	if err != nil {
		lock.Release()
		logger.Fatal("在庫台帳の読み込みに失敗しました", zap.Error(err))
	}

	// HTTPハンドラー設定
	handlers := NewHandlers(manager, logger, cfg.API.MaxImportBytes)
	router := setupRouter(handlers, cfg.API)

	// HTTPサーバー設定
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	// グレースフルシャットダウン設定
	go func() {
		logger.Info("在庫台帳APIサーバーを開始します",
			zap.Int("port", cfg.API.Port),
			zap.String("root", cfg.Store.Root),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lock.Release()
			logger.Fatal("サーバー開始に失敗しました", zap.Error(err))
		}
	}()

	// シャットダウンシグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンに失敗しました", zap.Error(err))
	}

	logger.Info("サーバーが正常に停止しました")
}

// setupRouter sets up HTTP routes
// HTTPルートを設定
func setupRouter(handlers *Handlers, cfg config.APIConfig) *mux.Router {
	router := mux.NewRouter()

	// ヘルスチェック
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	if cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API v1ルート
	api := router.PathPrefix("/api/v1").Subrouter()

	// 商品管理
	api.HandleFunc("/items", handlers.CreateItem).Methods("POST")
	api.HandleFunc("/items", handlers.SearchItems).Methods("GET")
	api.HandleFunc("/items/{itemId}", handlers.GetItem).Methods("GET")
	api.HandleFunc("/items/{itemId}", handlers.UpdateItem).Methods("PATCH")
	api.HandleFunc("/items/{itemId}", handlers.DeleteItem).Methods("DELETE")

	// 在庫操作
	api.HandleFunc("/items/{itemId}/stock/{movement:in|out|adjust}", handlers.MoveStock).Methods("POST")

	// 履歴
	api.HandleFunc("/items/{itemId}/history", handlers.GetHistory).Methods("GET")

	// 集計
	api.HandleFunc("/counts", handlers.GetCounts).Methods("GET")
	api.HandleFunc("/valuation", handlers.GetValuation).Methods("GET")

	// 設定
	api.HandleFunc("/settings", handlers.GetSettings).Methods("GET")
	api.HandleFunc("/settings", handlers.UpdateSettings).Methods("PUT")

	// 取消・取込・出力
	api.HandleFunc("/undo", handlers.Undo).Methods("POST")
	api.HandleFunc("/export", handlers.ExportCSV).Methods("GET")
	api.HandleFunc("/import", handlers.ImportCSV).Methods("POST")

	if cfg.EnableCORS {
		router.Use(corsMiddleware)
	}

	// ログ機能
	router.Use(loggingMiddleware(handlers.logger))

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
// HTTPリクエストをログ出力するミドルウェア
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// リクエスト処理
			next.ServeHTTP(rec, r)

			// ログ出力
			logger.Info("HTTPリクエスト",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.Int("status", rec.status),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
