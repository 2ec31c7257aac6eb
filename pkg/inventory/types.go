// Package inventory provides the inventory ledger: item records, the stock movement
// ledger and the rules that keep them consistent.
package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 書類形式では単価をJSON数値として保存する
	decimal.MarshalJSONWithoutQuotes = true
}

// CurrentVersion is the schema version written by this package
// このパッケージが書き込むスキーマバージョン
const CurrentVersion = 1

const (
	DefaultCategory  = "Other" // カテゴリ未指定時
	DefaultUnit      = "piece" // 単位未指定時
	DefaultDelimiter = ","     // CSV区切り文字
	AllCategories    = "All"   // 検索時のカテゴリ無指定
)

// DefaultCategories returns the category list used when none is configured
// カテゴリ未設定時に使用するカテゴリ一覧を返す
func DefaultCategories() []string {
	return []string{"Ingredient", "Beverage", "Packaging", "Other"}
}

// Timestamp is a UTC instant serialized as RFC 3339. An empty string decodes to the zero value.
// RFC 3339形式でシリアライズされるUTC時刻
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds in UTC
// 秒単位に切り捨てたUTC時刻を作成
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		// オフセットなしの旧形式
		parsed, err = time.Parse("2006-01-02T15:04:05", *s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", *s, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// Item represents a stocked article identified by its SKU
// SKUで識別される在庫商品を表現
type Item struct {
	ID           string           `json:"id" validate:"required"`         // SKU
	Name         string           `json:"name" validate:"required"`       // 商品名
	Category     string           `json:"category"`                       // カテゴリ
	Unit         string           `json:"unit"`                           // 単位
	UnitCost     *decimal.Decimal `json:"unit_cost" validate:"-"`         // 仕入単価
	UnitPrice    *decimal.Decimal `json:"unit_price" validate:"-"`        // 販売単価
	StockQty     int64            `json:"stock_qty" validate:"gte=0"`     // 在庫数量
	ReorderLevel int64            `json:"reorder_level" validate:"gte=0"` // 発注点
	Supplier     *string          `json:"supplier"`                       // 仕入先
	Barcode      *string          `json:"barcode"`                        // バーコード
	Notes        *string          `json:"notes"`                          // 備考
	LastUpdated  Timestamp        `json:"last_updated" validate:"-"`      // 最終更新日時
}

// Clone returns a deep copy of the item
// 商品のディープコピーを返す
func (i Item) Clone() Item {
	c := i
	c.UnitCost = cloneDecimal(i.UnitCost)
	c.UnitPrice = cloneDecimal(i.UnitPrice)
	c.Supplier = cloneString(i.Supplier)
	c.Barcode = cloneString(i.Barcode)
	c.Notes = cloneString(i.Notes)
	return c
}

// TransactionType defines the type of stock movement
// 在庫移動のタイプを定義
type TransactionType string

const (
	TransactionTypeIn     TransactionType = "in"     // 入庫
	TransactionTypeOut    TransactionType = "out"    // 出庫
	TransactionTypeAdjust TransactionType = "adjust" // 調整
)

// Transaction is an immutable stock movement record
// 変更不可の在庫移動記録
type Transaction struct {
	ID        string          `json:"id" validate:"required"`              // トランザクションID
	Type      TransactionType `json:"type" validate:"oneof=in out adjust"` // 移動タイプ
	SKU       string          `json:"sku" validate:"required"`             // 商品ID
	Qty       int64           `json:"qty" validate:"gt=0"`                 // 変動量（常に正）
	Timestamp Timestamp       `json:"timestamp" validate:"-"`              // 記録日時
	Reason    string          `json:"reason"`                              // 理由
	Note      *string         `json:"note"`                                // メモ
}

// Clone returns a deep copy of the transaction
func (t Transaction) Clone() Transaction {
	c := t
	c.Note = cloneString(t.Note)
	return c
}

// Settings holds user preferences stored with the document
// ドキュメントに保存されるユーザー設定
type Settings struct {
	Categories        []string `json:"categories"`          // カテゴリ一覧
	LowStockInclusive bool     `json:"low_stock_inclusive"` // true: <=, false: <
	CSVDelimiter      string   `json:"csv_delimiter"`       // CSV区切り文字
}

// DefaultSettings returns the settings of a freshly created document
// 新規ドキュメントの設定を返す
func DefaultSettings() Settings {
	return Settings{
		Categories:        DefaultCategories(),
		LowStockInclusive: true,
		CSVDelimiter:      DefaultDelimiter,
	}
}

// IsLow reports whether the item is at or below its reorder level under these settings
// 設定に従って低在庫かどうかを判定
func (s Settings) IsLow(item Item) bool {
	if s.LowStockInclusive {
		return item.StockQty <= item.ReorderLevel
	}
	return item.StockQty < item.ReorderLevel
}

// Delimiter returns the CSV delimiter as a rune, falling back to a comma
// CSV区切り文字をruneで返す
func (s Settings) Delimiter() rune {
	if r, ok := singleDelimiter(s.CSVDelimiter); ok {
		return r
	}
	return ','
}

// Clone returns a deep copy of the settings
func (s Settings) Clone() Settings {
	c := s
	c.Categories = append([]string(nil), s.Categories...)
	return c
}

// AppData is the root aggregate persisted as one JSON document
// 1つのJSONドキュメントとして永続化されるルート集約
type AppData struct {
	Version      int           `json:"version"`
	Items        []Item        `json:"items"`
	Transactions []Transaction `json:"transactions"`
	Settings     Settings      `json:"settings"`
}

// NewAppData returns an empty document at the current schema version
// 現在のスキーマバージョンの空ドキュメントを返す
func NewAppData() *AppData {
	return &AppData{
		Version:      CurrentVersion,
		Items:        []Item{},
		Transactions: []Transaction{},
		Settings:     DefaultSettings(),
	}
}

// Clone returns a deep copy of the document
// ドキュメントのディープコピーを返す
func (d *AppData) Clone() *AppData {
	c := &AppData{
		Version:      d.Version,
		Items:        make([]Item, len(d.Items)),
		Transactions: make([]Transaction, len(d.Transactions)),
		Settings:     d.Settings.Clone(),
	}
	for i, item := range d.Items {
		c.Items[i] = item.Clone()
	}
	for i, tx := range d.Transactions {
		c.Transactions[i] = tx.Clone()
	}
	return c
}

// ItemInput holds the fields of a new item. Texts are trimmed; blank optional texts are stored as absent.
// 新規商品の入力値
type ItemInput struct {
	ID           string
	Name         string
	Category     string
	Unit         string
	UnitCost     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	StockQty     *int64 // nilの場合は0
	ReorderLevel *int64 // nilの場合は0
	Supplier     string
	Barcode      string
	Notes        string
}

// ItemUpdate carries one optional slot per mutable attribute. Nil slots are left unchanged.
// 変更可能な属性ごとの任意更新値。nilの項目は変更しない
type ItemUpdate struct {
	Name         *string
	Category     *string              // 空文字はデフォルトカテゴリ
	Unit         *string              // 空文字はデフォルト単位
	UnitCost     *decimal.NullDecimal // Valid=false で値をクリア
	UnitPrice    *decimal.NullDecimal // Valid=false で値をクリア
	StockQty     *int64
	ReorderLevel *int64
	Supplier     *string // 空文字でクリア
	Barcode      *string // 空文字でクリア
	Notes        *string // 空文字でクリア
}

// ItemFilter selects items in SearchItems
// 商品検索条件
type ItemFilter struct {
	Query    string // 商品名・ID・仕入先の部分一致
	Category string // 完全一致、空または"All"は無指定
	LowOnly  bool   // 低在庫のみ
}

// AdjustMode selects how StockAdjust interprets its quantity
// 在庫調整モード
type AdjustMode string

const (
	AdjustModeSet   AdjustMode = "set"   // 絶対値で設定
	AdjustModeDelta AdjustMode = "delta" // 増減量を加算
)

// Counts summarizes the item table
// 商品件数の集計
type Counts struct {
	Total int `json:"total"`
	Low   int `json:"low"`
}

// SkippedRow describes an import row that was not applied
// 取り込まれなかったCSV行
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of a CSV import
// CSV取込結果の集計
type ImportSummary struct {
	ID          string            `json:"id"`
	Added       int               `json:"added"`
	Updated     int               `json:"updated"`
	Skipped     int               `json:"skipped"`
	SkippedRows []SkippedRow      `json:"skipped_rows"`
	Reassigned  map[string]string `json:"reassigned,omitempty"` // 仮ID -> 採番済みSKU
}

// Skip records a row that failed validation
// 検証に失敗した行を記録
func (s *ImportSummary) Skip(row int, err error) {
	s.Skipped++
	s.SkippedRows = append(s.SkippedRows, SkippedRow{Row: row, Reason: err.Error()})
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func nullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	c := d.Decimal
	return &c
}
