package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

// Header is the column order written by ExportCSV
// CSV出力の列順
var Header = []string{
	"id", "name", "category", "unit", "unit_cost", "unit_price",
	"stock_qty", "reorder_level", "supplier", "barcode", "notes",
}

const utf8BOM = "\uFEFF"

// ExportCSV writes one row per item using the configured delimiter
// 設定された区切り文字で商品を1行ずつ出力
func (s *FileStore) ExportCSV(ctx context.Context, data *inventory.AppData, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := WriteCSV(data, w); err != nil {
		return inventory.NewPersistenceError("export_csv", "CSVの書き込みに失敗しました", err)
	}
	s.logger.Info("CSV出力完了", zap.Int("rows", len(data.Items)))
	return nil
}

// WriteCSV writes the item table of data to w
func WriteCSV(data *inventory.AppData, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = data.Settings.Delimiter()

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, item := range data.Items {
		record := []string{
			item.ID,
			item.Name,
			item.Category,
			item.Unit,
			formatAmount(item.UnitCost),
			formatAmount(item.UnitPrice),
			strconv.FormatInt(item.StockQty, 10),
			strconv.FormatInt(item.ReorderLevel, 10),
			deref(item.Supplier),
			deref(item.Barcode),
			deref(item.Notes),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV snapshots the live document and merges the rows into data in place.
// A failed pre-import backup is logged and the import continues.
// 取込前にバックアップを作成し、CSVの行をdataに取り込む
func (s *FileStore) ImportCSV(ctx context.Context, data *inventory.AppData, r io.Reader) (*inventory.ImportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Backup(ctx); err != nil {
		s.logger.Warn("取込前のバックアップに失敗しました", zap.Error(err))
	}

	summary, err := MergeCSV(data, r, s.now())
	if err != nil {
		return nil, err
	}

	for _, skipped := range summary.SkippedRows {
		s.logger.Warn("CSV行をスキップしました",
			zap.String("import_id", summary.ID),
			zap.Int("row", skipped.Row),
			zap.String("reason", skipped.Reason),
		)
	}
	return summary, nil
}

// MergeCSV upserts every data row of r into data. Rows are matched by known ID, then by
// case-insensitive name, otherwise added. Rows that fail validation are skipped and reported
// with their row number (the header is row 1).
// CSVの各行を商品表にアップサートする
func MergeCSV(data *inventory.AppData, r io.Reader, now time.Time) (*inventory.ImportSummary, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = data.Settings.Delimiter()
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, inventory.NewValidationError("csv", "CSVが空です", "")
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &inventory.ValidationError{Field: "csv", Message: "ヘッダー行を解析できません", Cause: err}
		}
		return nil, inventory.NewPersistenceError("import_csv", "CSVの読み込みに失敗しました", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, inventory.NewValidationError("csv", "name 列が必要です", strings.Join(header, string(cr.Comma)))
	}

	summary := &inventory.ImportSummary{
		ID:          uuid.NewString(),
		SkippedRows: []inventory.SkippedRow{},
	}
	stamp := inventory.NewTimestamp(now)

	for index := 0; ; index++ {
		row := index + 2
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				summary.Skip(row, fmt.Errorf("CSV行を解析できません: %w", perr.Err))
				continue
			}
			return nil, inventory.NewPersistenceError("import_csv", "CSVの読み込みに失敗しました", err)
		}

		if err := mergeRow(data, columns, record, stamp, summary); err != nil {
			summary.Skip(row, err)
		}
	}
	return summary, nil
}

func mergeRow(data *inventory.AppData, columns map[string]int, record []string, stamp inventory.Timestamp, summary *inventory.ImportSummary) error {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	name := field("name")
	if err := inventory.ValidateItemName(name); err != nil {
		return err
	}
	cost, err := inventory.ParseDecimal("unit_cost", field("unit_cost"))
	if err != nil {
		return err
	}
	price, err := inventory.ParseDecimal("unit_price", field("unit_price"))
	if err != nil {
		return err
	}
	stock, err := inventory.ParseQuantity("stock_qty", field("stock_qty"), 0)
	if err != nil {
		return err
	}
	reorder, err := inventory.ParseQuantity("reorder_level", field("reorder_level"), 0)
	if err != nil {
		return err
	}

	// ID、名前の順に既存商品を探す
	id := field("id")
	idx := -1
	if id != "" {
		idx = indexByID(data.Items, id)
	}
	if idx < 0 {
		idx = indexByName(data.Items, name, -1)
	}

	var candidate inventory.Item
	if idx >= 0 {
		candidate = data.Items[idx].Clone()
	} else {
		if id == "" {
			id = inventory.TempSKU(data.Items)
		} else if err := inventory.ValidateItemID(id); err != nil {
			return err
		}
		candidate = inventory.Item{ID: id}
	}

	candidate.Name = name
	candidate.Category = inventory.NormalizeCategory(field("category"))
	candidate.Unit = inventory.NormalizeUnit(field("unit"))
	candidate.UnitCost = cost
	candidate.UnitPrice = price
	candidate.StockQty = stock
	candidate.ReorderLevel = reorder
	candidate.Supplier = inventory.OptionalText(field("supplier"))
	candidate.Barcode = inventory.OptionalText(field("barcode"))
	candidate.Notes = inventory.OptionalText(field("notes"))
	candidate.LastUpdated = stamp

	if err := candidate.Validate(); err != nil {
		return err
	}
	if indexByName(data.Items, name, idx) >= 0 {
		return &inventory.ValidationError{
			Field:   "name",
			Message: inventory.ErrDuplicateName.Error(),
			Value:   name,
			Cause:   inventory.ErrDuplicateName,
		}
	}

	if idx >= 0 {
		data.Items[idx] = candidate
		summary.Updated++
		return nil
	}
	data.Items = append(data.Items, candidate)
	summary.Added++
	return nil
}

func indexByID(items []inventory.Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func indexByName(items []inventory.Item, name string, except int) int {
	key := inventory.NameKey(name)
	for i, item := range items {
		if i != except && inventory.NameKey(item.Name) == key {
			return i
		}
	}
	return -1
}

func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
