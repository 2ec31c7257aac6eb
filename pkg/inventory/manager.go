package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager implements the Ledger interface over an in-memory document
// メモリ上のドキュメントに対するLedgerインターフェースの実装
type Manager struct {
	mu        sync.Mutex
	store     Store            // 永続化層
	publisher EventPublisher   // イベント発行者
	logger    *zap.Logger      // ログ
	config    *Config          // 設定
	data      *AppData         // 唯一の正となる状態
	now       func() time.Time // 時刻取得
}

var _ Ledger = (*Manager)(nil)

// Config holds configuration for the inventory manager
// 在庫マネージャーの設定を保持
type Config struct {
	DefaultInReason     string `yaml:"default_in_reason"`     // 入庫の既定理由
	DefaultOutReason    string `yaml:"default_out_reason"`    // 出庫の既定理由
	DefaultAdjustReason string `yaml:"default_adjust_reason"` // 調整の既定理由
	LowStockAlerts      bool   `yaml:"low_stock_alerts"`      // 低在庫イベント発行
}

// DefaultConfig returns the manager defaults
// マネージャーの既定設定を返す
func DefaultConfig() *Config {
	return &Config{
		DefaultInReason:     "Purchase",
		DefaultOutReason:    "Sale",
		DefaultAdjustReason: "Count correction",
		LowStockAlerts:      true,
	}
}

// Option customizes a Manager
type Option func(*Manager)

// WithClock replaces the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager loads the document from store and returns the manager that owns it
// ストアからドキュメントを読み込み、それを所有するマネージャーを作成
func NewManager(ctx context.Context, store Store, publisher EventPublisher, logger *zap.Logger, config *Config, opts ...Option) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		store:     store,
		publisher: publisher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	data, err := store.Load(ctx)
	if err != nil {
		return nil, wrapPersistence("load", "ドキュメント読み込みに失敗しました", err)
	}
	m.data = data

	m.logger.Info("在庫台帳を読み込みました",
		zap.Int("items", len(data.Items)),
		zap.Int("transactions", len(data.Transactions)),
		zap.Int("version", data.Version),
	)
	return m, nil
}

// NextSKU returns the SKU the next auto-numbered item will receive
// 次に採番されるSKUを返す
func (m *Manager) NextSKU(_ context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NextSKU(m.data.Items)
}

// NextTxID returns the ID the next transaction will receive
// 次に採番されるトランザクションIDを返す
func (m *Manager) NextTxID(_ context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NextTxID(m.data.Transactions)
}

// AddItem creates a new item
// 新しい商品を作成
func (m *Manager) AddItem(ctx context.Context, in ItemInput) (result Item, err error) {
	defer func() { observe("add_item", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	if err := ValidateItemName(name); err != nil {
		return Item{}, err
	}
	if m.nameTaken(name, "") {
		return Item{}, newRuleViolation(ErrDuplicateName, "name", name)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = NextSKU(m.data.Items)
	} else {
		if err := ValidateItemID(id); err != nil {
			return Item{}, err
		}
		if IsTempSKU(id) {
			return Item{}, NewValidationError("id", "仮IDの接頭辞は使用できません", id)
		}
		if m.indexOf(id) >= 0 {
			return Item{}, newRuleViolation(ErrDuplicateID, "id", id)
		}
	}

	item := Item{
		ID:           id,
		Name:         name,
		Category:     NormalizeCategory(in.Category),
		Unit:         NormalizeUnit(in.Unit),
		UnitCost:     cloneDecimal(in.UnitCost),
		UnitPrice:    cloneDecimal(in.UnitPrice),
		StockQty:     valueOr(in.StockQty, 0),
		ReorderLevel: valueOr(in.ReorderLevel, 0),
		Supplier:     OptionalText(in.Supplier),
		Barcode:      OptionalText(in.Barcode),
		Notes:        OptionalText(in.Notes),
		LastUpdated:  m.timestamp(),
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}

	m.data.Items = append(m.data.Items, item)
	if err := m.commit(ctx, "add_item", func() {
		m.data.Items = m.data.Items[:len(m.data.Items)-1]
	}); err != nil {
		return Item{}, err
	}

	m.logger.Info("商品作成完了",
		zap.String("item_id", item.ID),
		zap.String("name", item.Name),
		zap.Int64("stock_qty", item.StockQty),
	)
	return item.Clone(), nil
}

// UpdateItem applies the set slots of upd to an existing item
// 既存商品に指定された項目のみを反映
func (m *Manager) UpdateItem(ctx context.Context, itemID string, upd ItemUpdate) (result Item, err error) {
	defer func() { observe("update_item", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return Item{}, NewNotFoundError(itemID)
	}
	current := m.data.Items[idx]
	next := current.Clone()

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := ValidateItemName(name); err != nil {
			return Item{}, err
		}
		if m.nameTaken(name, current.ID) {
			return Item{}, newRuleViolation(ErrDuplicateName, "name", name)
		}
		next.Name = name
	}
	if upd.Category != nil {
		next.Category = NormalizeCategory(*upd.Category)
	}
	if upd.Unit != nil {
		next.Unit = NormalizeUnit(*upd.Unit)
	}
	if upd.UnitCost != nil {
		next.UnitCost = nullDecimal(*upd.UnitCost)
	}
	if upd.UnitPrice != nil {
		next.UnitPrice = nullDecimal(*upd.UnitPrice)
	}
	if upd.StockQty != nil {
		next.StockQty = *upd.StockQty
	}
	if upd.ReorderLevel != nil {
		next.ReorderLevel = *upd.ReorderLevel
	}
	if upd.Supplier != nil {
		next.Supplier = OptionalText(*upd.Supplier)
	}
	if upd.Barcode != nil {
		next.Barcode = OptionalText(*upd.Barcode)
	}
	if upd.Notes != nil {
		next.Notes = OptionalText(*upd.Notes)
	}
	next.LastUpdated = m.timestamp()

	if err := next.Validate(); err != nil {
		return Item{}, err
	}

	m.data.Items[idx] = next
	if err := m.commit(ctx, "update_item", func() {
		m.data.Items[idx] = current
	}); err != nil {
		return Item{}, err
	}

	m.checkLowStock(ctx, current, next)
	m.logger.Info("商品更新完了", zap.String("item_id", itemID))
	return next.Clone(), nil
}

// DeleteItem removes an item. Items with history require confirmCascade, which also removes their transactions.
// 商品を削除。取引履歴がある場合はconfirmCascadeが必要で、履歴も削除される
func (m *Manager) DeleteItem(ctx context.Context, itemID string, confirmCascade bool) (err error) {
	defer func() { observe("delete_item", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return NewNotFoundError(itemID)
	}

	dependents := m.countTransactions(itemID)
	if dependents > 0 && !confirmCascade {
		return &ConflictError{
			Rule:    "cascade_delete",
			Message: ErrCascadeRequired.Error(),
			Context: fmt.Sprintf("商品ID: %s, 取引件数: %d", itemID, dependents),
			Cause:   ErrCascadeRequired,
		}
	}

	prevItems, prevTxs := m.data.Items, m.data.Transactions

	// 1. 依存する取引記録を除去
	remainingTxs := prevTxs
	if dependents > 0 {
		remainingTxs = make([]Transaction, 0, len(prevTxs)-dependents)
		for _, tx := range prevTxs {
			if tx.SKU != itemID {
				remainingTxs = append(remainingTxs, tx)
			}
		}
	}

	// 2. 商品を除去
	remainingItems := make([]Item, 0, len(prevItems)-1)
	remainingItems = append(remainingItems, prevItems[:idx]...)
	remainingItems = append(remainingItems, prevItems[idx+1:]...)

	m.data.Items, m.data.Transactions = remainingItems, remainingTxs
	if err := m.commit(ctx, "delete_item", func() {
		m.data.Items, m.data.Transactions = prevItems, prevTxs
	}); err != nil {
		return err
	}

	m.logger.Info("商品削除完了",
		zap.String("item_id", itemID),
		zap.Int("removed_transactions", dependents),
	)
	return nil
}

// GetItem returns a copy of one item
// 商品を1件取得
func (m *Manager) GetItem(_ context.Context, itemID string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return Item{}, NewNotFoundError(itemID)
	}
	return m.data.Items[idx].Clone(), nil
}

// ListItems returns copies of all items in storage order
// 全商品を保存順で返す
func (m *Manager) ListItems(_ context.Context) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]Item, len(m.data.Items))
	for i, item := range m.data.Items {
		items[i] = item.Clone()
	}
	return items
}

// StockIn records received stock
// 入庫を記録
func (m *Manager) StockIn(ctx context.Context, itemID string, qty int64, reason, note string) (result Transaction, err error) {
	defer func() { observe("stock_in", err) }()

	if err := ValidateQuantity(qty); err != nil {
		return Transaction{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return Transaction{}, NewNotFoundError(itemID)
	}
	item := m.data.Items[idx]
	if item.StockQty > math.MaxInt64-qty {
		return Transaction{}, NewValidationError("qty", "在庫数量が有効範囲を超えています", fmt.Sprintf("%d", qty))
	}

	tx, err := m.recordMovement(ctx, idx, TransactionTypeIn, item.StockQty+qty, qty,
		reasonOr(reason, m.config.DefaultInReason), OptionalText(note))
	if err != nil {
		return Transaction{}, err
	}

	m.logger.Info("入庫完了",
		zap.String("item_id", itemID),
		zap.Int64("quantity", qty),
		zap.String("transaction_id", tx.ID),
	)
	return tx, nil
}

// StockOut records issued stock. The quantity can never go below zero.
// 出庫を記録。在庫は0未満にならない
func (m *Manager) StockOut(ctx context.Context, itemID string, qty int64, reason, note string) (result Transaction, err error) {
	defer func() { observe("stock_out", err) }()

	if err := ValidateQuantity(qty); err != nil {
		return Transaction{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return Transaction{}, NewNotFoundError(itemID)
	}
	item := m.data.Items[idx]
	if item.StockQty-qty < 0 {
		return Transaction{}, &ValidationError{
			Field:   "qty",
			Message: fmt.Sprintf("%s (現在: %d, 要求: %d)", ErrInsufficientStock.Error(), item.StockQty, qty),
			Value:   fmt.Sprintf("%d", qty),
			Cause:   ErrInsufficientStock,
		}
	}

	tx, err := m.recordMovement(ctx, idx, TransactionTypeOut, item.StockQty-qty, qty,
		reasonOr(reason, m.config.DefaultOutReason), OptionalText(note))
	if err != nil {
		return Transaction{}, err
	}

	m.logger.Info("出庫完了",
		zap.String("item_id", itemID),
		zap.Int64("quantity", qty),
		zap.String("transaction_id", tx.ID),
	)
	return tx, nil
}

// StockAdjust sets (AdjustModeSet) or shifts (AdjustModeDelta) the quantity.
// Adjustments without effect are rejected with ErrNoChange and leave no audit entry.
// 在庫数量を設定または増減。変化のない調整は記録せずに拒否する
func (m *Manager) StockAdjust(ctx context.Context, itemID string, qty int64, mode AdjustMode, reason, note string) (result Transaction, err error) {
	defer func() { observe("stock_adjust", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return Transaction{}, NewNotFoundError(itemID)
	}
	oldQty := m.data.Items[idx].StockQty

	var newQty int64
	switch mode {
	case AdjustModeSet, "":
		mode = AdjustModeSet
		if qty < 0 {
			return Transaction{}, NewValidationError("qty", "新しい数量は0以上である必要があります", fmt.Sprintf("%d", qty))
		}
		newQty = qty
	case AdjustModeDelta:
		if qty > 0 && oldQty > math.MaxInt64-qty {
			return Transaction{}, NewValidationError("qty", "在庫数量が有効範囲を超えています", fmt.Sprintf("%d", qty))
		}
		newQty = oldQty + qty
		if newQty < 0 {
			return Transaction{}, &ValidationError{
				Field:   "qty",
				Message: fmt.Sprintf("在庫を0未満にはできません (現在: %d, 増減: %+d)", oldQty, qty),
				Value:   fmt.Sprintf("%d", qty),
				Cause:   ErrInsufficientStock,
			}
		}
	default:
		return Transaction{}, NewValidationError("mode", "調整モードは set または delta です", string(mode))
	}

	delta := newQty - oldQty
	if delta == 0 {
		return Transaction{}, newRuleViolation(ErrNoChange, "qty", fmt.Sprintf("%d", qty))
	}
	magnitude := delta
	if magnitude < 0 {
		magnitude = -magnitude
	}

	noteText := OptionalText(note)
	if noteText == nil {
		desc := fmt.Sprintf("Delta %+d", delta)
		if mode == AdjustModeSet {
			desc = fmt.Sprintf("Set to %d", newQty)
		}
		noteText = &desc
	}

	tx, err := m.recordMovement(ctx, idx, TransactionTypeAdjust, newQty, magnitude,
		reasonOr(reason, m.config.DefaultAdjustReason), noteText)
	if err != nil {
		return Transaction{}, err
	}

	m.logger.Info("在庫調整完了",
		zap.String("item_id", itemID),
		zap.Int64("old_quantity", oldQty),
		zap.Int64("new_quantity", newQty),
		zap.String("transaction_id", tx.ID),
	)
	return tx, nil
}

// SearchItems returns copies of matching items in storage order
// 条件に一致する商品を保存順で返す
func (m *Manager) SearchItems(_ context.Context, filter ItemFilter) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category := strings.TrimSpace(filter.Category)
	settings := m.data.Settings

	items := []Item{}
	for _, item := range m.data.Items {
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		if category != "" && category != AllCategories && item.Category != category {
			continue
		}
		if filter.LowOnly && !settings.IsLow(item) {
			continue
		}
		items = append(items, item.Clone())
	}
	return items
}

// Counts returns the total and low-stock item counts
// 総商品数と低在庫商品数を返す
func (m *Manager) Counts(_ context.Context) Counts {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := Counts{Total: len(m.data.Items)}
	for _, item := range m.data.Items {
		if m.data.Settings.IsLow(item) {
			counts.Low++
		}
	}
	return counts
}

// Settings returns a copy of the current settings
// 現在の設定を返す
func (m *Manager) Settings(_ context.Context) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Settings.Clone()
}

// UpdateSettings replaces the settings. Blank categories are dropped and an invalid delimiter falls back to a comma.
// 設定を更新。空のカテゴリは除外し、無効な区切り文字はカンマにする
func (m *Manager) UpdateSettings(ctx context.Context, categories []string, lowStockInclusive bool, delimiter string) (result Settings, err error) {
	defer func() { observe("update_settings", err) }()

	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		cats = DefaultCategories()
	}

	delim := DefaultDelimiter
	if _, ok := singleDelimiter(delimiter); ok {
		delim = delimiter
	} else if trimmed := strings.TrimSpace(delimiter); ValidateDelimiter(trimmed) == nil {
		delim = trimmed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.data.Settings
	m.data.Settings = Settings{
		Categories:        cats,
		LowStockInclusive: lowStockInclusive,
		CSVDelimiter:      delim,
	}
	if err := m.commit(ctx, "update_settings", func() {
		m.data.Settings = prev
	}); err != nil {
		return Settings{}, err
	}

	m.logger.Info("設定更新完了",
		zap.Strings("categories", cats),
		zap.Bool("low_stock_inclusive", lowStockInclusive),
		zap.String("csv_delimiter", delim),
	)
	return m.data.Settings.Clone(), nil
}

// Undo restores the most recent backup snapshot over the document and reloads it.
// It reports whether a snapshot was restored.
// 最新のバックアップでドキュメントを復元して再読み込み。復元したかどうかを返す
func (m *Manager) Undo(ctx context.Context) (restored bool, err error) {
	defer func() { observe("undo", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	restored, err = m.store.RestoreLatest(ctx)
	if err != nil {
		return false, wrapPersistence("restore", "バックアップの復元に失敗しました", err)
	}
	if !restored {
		m.logger.Info("復元可能なバックアップがありません")
		return false, nil
	}

	data, err := m.store.Load(ctx)
	if err != nil {
		return true, wrapPersistence("load", "復元後の再読み込みに失敗しました", err)
	}
	m.data = data

	m.logger.Info("バックアップから復元しました",
		zap.Int("items", len(data.Items)),
		zap.Int("transactions", len(data.Transactions)),
	)
	return true, nil
}

// ImportCSV merges the CSV rows into the item table and renumbers placeholder IDs
// CSVを商品表に取り込み、仮IDを正式なSKUに振り直す
func (m *Manager) ImportCSV(ctx context.Context, r io.Reader) (result *ImportSummary, err error) {
	defer func() { observe("import_csv", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.data.Clone()
	summary, err := m.store.ImportCSV(ctx, working, r)
	if err != nil {
		return nil, err
	}
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}

	if reassigned := normalizeTempIDs(working); len(reassigned) > 0 {
		summary.Reassigned = reassigned
	}

	prev := m.data
	m.data = working
	if err := m.commit(ctx, "import_csv", func() {
		m.data = prev
	}); err != nil {
		return nil, err
	}

	m.logger.Info("CSV取込完了",
		zap.String("import_id", summary.ID),
		zap.Int("added", summary.Added),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("reassigned", len(summary.Reassigned)),
	)
	return summary, nil
}

// ExportCSV writes the item table as CSV
// 商品表をCSVで出力
func (m *Manager) ExportCSV(ctx context.Context, w io.Writer) (err error) {
	defer func() { observe("export_csv", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ExportCSV(ctx, m.data, w); err != nil {
		return wrapPersistence("export_csv", "CSV出力に失敗しました", err)
	}
	m.logger.Info("CSV出力完了", zap.Int("items", len(m.data.Items)))
	return nil
}

// ヘルパーメソッド

// recordMovement updates the quantity and appends the transaction in one durable write
// 数量更新と取引追加を1回の書き込みで確定
func (m *Manager) recordMovement(ctx context.Context, idx int, txType TransactionType, newQty, magnitude int64, reason string, note *string) (Transaction, error) {
	prev := m.data.Items[idx]
	now := m.timestamp()

	tx := Transaction{
		ID:        NextTxID(m.data.Transactions),
		Type:      txType,
		SKU:       prev.ID,
		Qty:       magnitude,
		Timestamp: now,
		Reason:    reason,
		Note:      note,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}

	next := prev.Clone()
	next.StockQty = newQty
	next.LastUpdated = now
	if err := next.Validate(); err != nil {
		return Transaction{}, err
	}

	n := len(m.data.Transactions)
	m.data.Items[idx] = next
	m.data.Transactions = append(m.data.Transactions, tx)
	if err := m.commit(ctx, string(txType), func() {
		m.data.Items[idx] = prev
		m.data.Transactions = m.data.Transactions[:n]
	}); err != nil {
		return Transaction{}, err
	}

	observeMovement(tx)
	m.publishMovement(ctx, prev, next, tx)
	return tx.Clone(), nil
}

// commit persists the document, undoing the in-memory change when the write fails
// ドキュメントを保存し、失敗した場合はメモリ上の変更を取り消す
func (m *Manager) commit(ctx context.Context, operation string, rollback func()) error {
	if err := m.store.Save(ctx, m.data); err != nil {
		rollback()
		m.logger.Error("ドキュメント保存に失敗したため変更を取り消しました",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return wrapPersistence(operation, "ドキュメント保存に失敗しました", err)
	}
	return nil
}

func (m *Manager) publishMovement(ctx context.Context, prev, next Item, tx Transaction) {
	if m.publisher == nil {
		return
	}
	event := StockChangedEvent{
		ItemID:        next.ID,
		OldQuantity:   prev.StockQty,
		NewQuantity:   next.StockQty,
		ChangeType:    tx.Type,
		Reason:        tx.Reason,
		TransactionID: tx.ID,
		Timestamp:     tx.Timestamp.Time,
	}
	if err := m.publisher.PublishStockChanged(ctx, event); err != nil {
		m.logger.Error("イベント発行に失敗しました", zap.Error(err))
	}
	m.checkLowStock(ctx, prev, next)
}

// checkLowStock publishes a LowStockEvent when next crosses into the low-stock condition
// 低在庫状態に入った場合にイベントを発行
func (m *Manager) checkLowStock(ctx context.Context, prev, next Item) {
	if m.publisher == nil || !m.config.LowStockAlerts {
		return
	}
	settings := m.data.Settings
	if settings.IsLow(prev) || !settings.IsLow(next) {
		return
	}
	event := LowStockEvent{
		ItemID:       next.ID,
		Name:         next.Name,
		CurrentQty:   next.StockQty,
		ReorderLevel: next.ReorderLevel,
		Timestamp:    m.now().UTC(),
	}
	if err := m.publisher.PublishLowStock(ctx, event); err != nil {
		m.logger.Error("低在庫アラートイベント発行に失敗しました", zap.Error(err))
	}
}

func (m *Manager) indexOf(itemID string) int {
	for i, item := range m.data.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (m *Manager) nameTaken(name, exceptID string) bool {
	key := NameKey(name)
	for _, item := range m.data.Items {
		if item.ID != exceptID && NameKey(item.Name) == key {
			return true
		}
	}
	return false
}

func (m *Manager) countTransactions(itemID string) int {
	n := 0
	for _, tx := range m.data.Transactions {
		if tx.SKU == itemID {
			n++
		}
	}
	return n
}

func (m *Manager) timestamp() Timestamp {
	return NewTimestamp(m.now())
}

// normalizeTempIDs gives every placeholder item a generated SKU and rewrites its transactions
// 仮IDの商品に正式なSKUを割り当て、参照する取引も書き換える
func normalizeTempIDs(data *AppData) map[string]string {
	used := make(map[string]struct{}, len(data.Items))
	for _, item := range data.Items {
		used[item.ID] = struct{}{}
	}

	reassigned := map[string]string{}
	for i := range data.Items {
		oldID := data.Items[i].ID
		if !IsTempSKU(oldID) {
			continue
		}
		newID := NextSKUNotIn(used)
		used[newID] = struct{}{}
		data.Items[i].ID = newID
		reassigned[oldID] = newID
	}
	if len(reassigned) == 0 {
		return nil
	}

	for i := range data.Transactions {
		if newID, ok := reassigned[data.Transactions[i].SKU]; ok {
			data.Transactions[i].SKU = newID
		}
	}
	return reassigned
}

func matchesQuery(item Item, query string) bool {
	if strings.Contains(strings.ToLower(item.Name), query) ||
		strings.Contains(strings.ToLower(item.ID), query) {
		return true
	}
	return item.Supplier != nil && strings.Contains(strings.ToLower(*item.Supplier), query)
}

func wrapPersistence(operation, message string, err error) error {
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return NewPersistenceError(operation, message, err)
}

func reasonOr(reason, fallback string) string {
	if reason = strings.TrimSpace(reason); reason == "" {
		return fallback
	}
	return reason
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}
