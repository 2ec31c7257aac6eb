package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

// Handlers holds HTTP handlers for the ledger API
// 在庫台帳API用のHTTPハンドラーを保持
type Handlers struct {
	ledger         inventory.Ledger
	logger         *zap.Logger
	maxImportBytes int64
}

// NewHandlers creates new HTTP handlers
// 新しいHTTPハンドラーを作成
func NewHandlers(ledger inventory.Ledger, logger *zap.Logger, maxImportBytes int64) *Handlers {
	return &Handlers{
		ledger:         ledger,
		logger:         logger,
		maxImportBytes: maxImportBytes,
	}
}

// APIResponse represents standard API response format
// 標準的なAPIレスポンス形式を表現
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// CreateItemRequest represents request to create an item
// 商品作成リクエストを表現
type CreateItemRequest struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Unit         string           `json:"unit"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	StockQty     *int64           `json:"stock_qty"`
	ReorderLevel *int64           `json:"reorder_level"`
	Supplier     string           `json:"supplier"`
	Barcode      string           `json:"barcode"`
	Notes        string           `json:"notes"`
}

// StockRequest represents request to move stock
// 在庫操作リクエストを表現
type StockRequest struct {
	Qty    int64  `json:"qty"`
	Mode   string `json:"mode"` // adjust のみ: set, delta
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

// SettingsRequest represents request to replace the settings
// 設定更新リクエストを表現
type SettingsRequest struct {
	Categories        []string `json:"categories"`
	LowStockInclusive bool     `json:"low_stock_inclusive"`
	CSVDelimiter      string   `json:"csv_delimiter"`
}

// HealthCheck handles health check requests
// ヘルスチェックリクエストを処理
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	counts := h.ledger.Counts(r.Context())
	h.sendSuccess(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "zaiLedger",
		"items":     counts.Total,
	})
}

// CreateItem handles create item requests
// 商品作成リクエストを処理
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "validation", "無効なリクエスト形式です")
		return
	}

	item, err := h.ledger.AddItem(r.Context(), inventory.ItemInput{
		ID:           req.ID,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		UnitPrice:    req.UnitPrice,
		StockQty:     req.StockQty,
		ReorderLevel: req.ReorderLevel,
		Supplier:     req.Supplier,
		Barcode:      req.Barcode,
		Notes:        req.Notes,
	})
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusCreated, item)
}

// SearchItems handles list and search requests
// 商品一覧・検索リクエストを処理
func (h *Handlers) SearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	low, _ := strconv.ParseBool(query.Get("low"))
	items := h.ledger.SearchItems(r.Context(), inventory.ItemFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		LowOnly:  low,
	})
	h.sendSuccess(w, http.StatusOK, items)
}

// GetItem handles get item requests
// 商品取得リクエストを処理
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.ledger.GetItem(r.Context(), mux.Vars(r)["itemId"])
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, item)
}

// UpdateItem handles partial item updates. Only the keys present in the body are applied;
// null clears optional fields.
// 商品の部分更新リクエストを処理
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.sendError(w, http.StatusBadRequest, "validation", "無効なリクエスト形式です")
		return
	}

	upd, err := decodeItemUpdate(fields)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	item, err := h.ledger.UpdateItem(r.Context(), mux.Vars(r)["itemId"], upd)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, item)
}

// DeleteItem handles delete item requests
// 商品削除リクエストを処理
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))

	if err := h.ledger.DeleteItem(r.Context(), itemID, cascade); err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, map[string]string{
		"message": "商品削除が完了しました",
		"id":      itemID,
	})
}

// MoveStock handles stock in, out and adjust requests
// 入庫・出庫・調整リクエストを処理
func (h *Handlers) MoveStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID := vars["itemId"]

	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "validation", "無効なリクエスト形式です")
		return
	}

	var (
		tx  inventory.Transaction
		err error
	)
	switch vars["movement"] {
	case "in":
		tx, err = h.ledger.StockIn(r.Context(), itemID, req.Qty, req.Reason, req.Note)
	case "out":
		tx, err = h.ledger.StockOut(r.Context(), itemID, req.Qty, req.Reason, req.Note)
	case "adjust":
		tx, err = h.ledger.StockAdjust(r.Context(), itemID, req.Qty, inventory.AdjustMode(req.Mode), req.Reason, req.Note)
	default:
		h.sendError(w, http.StatusNotFound, "not_found", "未対応の在庫操作です")
		return
	}
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusCreated, tx)
}

// GetHistory handles history requests. limit caps the newest-first list;
// from/to (RFC3339) select a date range in chronological order instead.
// 取引履歴リクエストを処理
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]
	query := r.URL.Query()

	if query.Get("from") != "" || query.Get("to") != "" {
		from, err := parseTimeParam(query.Get("from"))
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "validation", "無効な開始日時です")
			return
		}
		to, err := parseTimeParam(query.Get("to"))
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "validation", "無効な終了日時です")
			return
		}
		txs, err := h.ledger.HistoryByDateRange(r.Context(), itemID, from, to)
		if err != nil {
			h.sendLedgerError(w, err)
			return
		}
		h.sendSuccess(w, http.StatusOK, txs)
		return
	}

	limit := 50
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.sendError(w, http.StatusBadRequest, "validation", "無効な件数です")
			return
		}
		limit = n
	}

	txs, err := h.ledger.History(r.Context(), itemID, limit)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, txs)
}

// GetCounts handles item count requests
// 商品数リクエストを処理
func (h *Handlers) GetCounts(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, http.StatusOK, h.ledger.Counts(r.Context()))
}

// GetValuation handles valuation requests
// 在庫評価リクエストを処理
func (h *Handlers) GetValuation(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, http.StatusOK, h.ledger.Valuation(r.Context()))
}

// GetSettings handles get settings requests
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, http.StatusOK, h.ledger.Settings(r.Context()))
}

// UpdateSettings handles settings replacement requests
// 設定更新リクエストを処理
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "validation", "無効なリクエスト形式です")
		return
	}

	settings, err := h.ledger.UpdateSettings(r.Context(), req.Categories, req.LowStockInclusive, req.CSVDelimiter)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, settings)
}

// Undo handles undo requests
// 取消リクエストを処理
func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	restored, err := h.ledger.Undo(r.Context())
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, map[string]bool{"restored": restored})
}

// ExportCSV handles CSV export requests
// CSV出力リクエストを処理
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ledger.ExportCSV(r.Context(), &buf); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="items.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("CSVレスポンス送信に失敗しました", zap.Error(err))
	}
}

// ImportCSV handles CSV import requests. The CSV is the raw body or the "file" part of a multipart form.
// CSV取込リクエストを処理
func (h *Handlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "validation", "file フィールドが必要です")
			return
		}
		defer file.Close()
		src = file
	}

	summary, err := h.ledger.ImportCSV(r.Context(), src)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, summary)
}

// ヘルパーメソッド

// decodeItemUpdate turns the raw PATCH body into an ItemUpdate
func decodeItemUpdate(fields map[string]json.RawMessage) (inventory.ItemUpdate, error) {
	var upd inventory.ItemUpdate
	for key, raw := range fields {
		isNull := string(bytes.TrimSpace(raw)) == "null"
		var err error
		switch key {
		case "name":
			upd.Name, err = decodeText(raw, isNull)
		case "category":
			upd.Category, err = decodeText(raw, isNull)
		case "unit":
			upd.Unit, err = decodeText(raw, isNull)
		case "supplier":
			upd.Supplier, err = decodeText(raw, isNull)
		case "barcode":
			upd.Barcode, err = decodeText(raw, isNull)
		case "notes":
			upd.Notes, err = decodeText(raw, isNull)
		case "unit_cost":
			upd.UnitCost, err = decodeAmount(raw, isNull)
		case "unit_price":
			upd.UnitPrice, err = decodeAmount(raw, isNull)
		case "stock_qty":
			upd.StockQty, err = decodeQuantity(raw, isNull)
		case "reorder_level":
			upd.ReorderLevel, err = decodeQuantity(raw, isNull)
		default:
			return upd, inventory.NewValidationError(key, "更新できない項目です", "")
		}
		if err != nil {
			return upd, inventory.NewValidationError(key, "無効な値です", string(raw))
		}
	}
	return upd, nil
}

func decodeText(raw json.RawMessage, isNull bool) (*string, error) {
	s := ""
	if !isNull {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func decodeAmount(raw json.RawMessage, isNull bool) (*decimal.NullDecimal, error) {
	nd := decimal.NullDecimal{}
	if !isNull {
		if err := json.Unmarshal(raw, &nd.Decimal); err != nil {
			return nil, err
		}
		nd.Valid = true
	}
	return &nd, nil
}

func decodeQuantity(raw json.RawMessage, isNull bool) (*int64, error) {
	if isNull {
		return nil, fmt.Errorf("null")
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

// errorKind maps a ledger error to its HTTP status and kind label
func errorKind(err error) (int, string) {
	switch {
	case inventory.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case inventory.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case inventory.IsConflict(err):
		return http.StatusConflict, "conflict"
	case inventory.IsPersistence(err):
		return http.StatusInternalServerError, "persistence"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) sendLedgerError(w http.ResponseWriter, err error) {
	status, kind := errorKind(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("リクエスト処理に失敗しました", zap.String("kind", kind), zap.Error(err))
	}
	h.sendError(w, status, kind, err.Error())
}

// sendSuccess sends a successful API response
// 成功APIレスポンスを送信
func (h *Handlers) sendSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: true,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("レスポンス送信に失敗しました", zap.Error(err))
	}
}

// sendError sends an error API response
// エラーAPIレスポンスを送信
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   message,
		Kind:    kind,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("エラーレスポンス送信に失敗しました", zap.Error(err))
	}
}
