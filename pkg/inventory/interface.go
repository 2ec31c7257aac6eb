package inventory

import (
	"context"
	"io"
	"time"
)

// Ledger defines the operations the presentation layer calls
// プレゼンテーション層が呼び出す在庫台帳の操作を定義
type Ledger interface {
	// 商品管理 - Item management
	AddItem(ctx context.Context, in ItemInput) (Item, error)
	UpdateItem(ctx context.Context, itemID string, upd ItemUpdate) (Item, error)
	DeleteItem(ctx context.Context, itemID string, confirmCascade bool) error
	GetItem(ctx context.Context, itemID string) (Item, error)
	ListItems(ctx context.Context) []Item
	SearchItems(ctx context.Context, filter ItemFilter) []Item
	Counts(ctx context.Context) Counts

	// 在庫操作 - Stock movements
	StockIn(ctx context.Context, itemID string, qty int64, reason, note string) (Transaction, error)
	StockOut(ctx context.Context, itemID string, qty int64, reason, note string) (Transaction, error)
	StockAdjust(ctx context.Context, itemID string, qty int64, mode AdjustMode, reason, note string) (Transaction, error)

	// 履歴 - History
	History(ctx context.Context, itemID string, limit int) ([]Transaction, error)
	HistoryByDateRange(ctx context.Context, itemID string, from, to time.Time) ([]Transaction, error)

	// 採番 - ID allocation
	NextSKU(ctx context.Context) string
	NextTxID(ctx context.Context) string

	// 設定 - Settings
	Settings(ctx context.Context) Settings
	UpdateSettings(ctx context.Context, categories []string, lowStockInclusive bool, delimiter string) (Settings, error)

	// 評価 - Valuation
	Valuation(ctx context.Context) Valuation

	// 取込・出力・取消 - Import, export and undo
	ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	Undo(ctx context.Context) (bool, error)
}

// Store defines the durable persistence of the document
// ドキュメントの永続化層のインターフェースを定義
type Store interface {
	// Load reads the document, creating it from the empty template when absent
	Load(ctx context.Context) (*AppData, error)
	// Save atomically replaces the document and takes one backup snapshot
	Save(ctx context.Context, data *AppData) error
	// Backup snapshots the document currently on disk
	Backup(ctx context.Context) error
	// RestoreLatest writes the most recent differing snapshot over the document
	RestoreLatest(ctx context.Context) (bool, error)

	// ExportCSV writes one row per item using the configured delimiter
	ExportCSV(ctx context.Context, data *AppData, w io.Writer) error
	// ImportCSV merges rows into data in place and reports per-row outcomes
	ImportCSV(ctx context.Context, data *AppData, r io.Reader) (*ImportSummary, error)
}

// EventPublisher defines interface for publishing inventory events
// 在庫イベント発行のインターフェースを定義
type EventPublisher interface {
	PublishStockChanged(ctx context.Context, event StockChangedEvent) error
	PublishLowStock(ctx context.Context, event LowStockEvent) error
}

// StockChangedEvent represents a stock level change
// 在庫レベル変更イベントを表現
type StockChangedEvent struct {
	ItemID        string          `json:"item_id"`
	OldQuantity   int64           `json:"old_quantity"`
	NewQuantity   int64           `json:"new_quantity"`
	ChangeType    TransactionType `json:"change_type"`
	Reason        string          `json:"reason"`
	TransactionID string          `json:"transaction_id"`
	Timestamp     time.Time       `json:"timestamp"`
}

// LowStockEvent represents an item reaching its reorder level
// 発注点到達イベントを表現
type LowStockEvent struct {
	ItemID       string    `json:"item_id"`
	Name         string    `json:"name"`
	CurrentQty   int64     `json:"current_qty"`
	ReorderLevel int64     `json:"reorder_level"`
	Timestamp    time.Time `json:"timestamp"`
}
