package inventory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStore はテスト用のStoreモック
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (*AppData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AppData), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, data *AppData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockStore) Backup(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) RestoreLatest(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ExportCSV(ctx context.Context, data *AppData, w io.Writer) error {
	args := m.Called(ctx, data, w)
	return args.Error(0)
}

func (m *MockStore) ImportCSV(ctx context.Context, data *AppData, r io.Reader) (*ImportSummary, error) {
	args := m.Called(ctx, data, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImportSummary), args.Error(1)
}

// recordingPublisher は発行されたイベントを記録する
type recordingPublisher struct {
	changed []StockChangedEvent
	low     []LowStockEvent
}

func (p *recordingPublisher) PublishStockChanged(_ context.Context, event StockChangedEvent) error {
	p.changed = append(p.changed, event)
	return nil
}

func (p *recordingPublisher) PublishLowStock(_ context.Context, event LowStockEvent) error {
	p.low = append(p.low, event)
	return nil
}

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestManager は保存が常に成功するモックでマネージャーを作成する
func newTestManager(t *testing.T) (*Manager, *MockStore) {
	t.Helper()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(NewAppData(), nil).Once()
	m, err := NewManager(context.Background(), store, nil, zap.NewNop(), nil, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return m, store
}

func allowSaves(store *MockStore) {
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
}

func mustAdd(t *testing.T, m *Manager, name string) Item {
	t.Helper()
	item, err := m.AddItem(context.Background(), ItemInput{Name: name})
	require.NoError(t, err)
	return item
}

// TestManager_AddItem は商品作成機能のテスト
func TestManager_AddItem(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	cost := decimal.RequireFromString("1.25")
	item, err := m.AddItem(ctx, ItemInput{Name: "  Milk ", UnitCost: &cost, Supplier: "  "})
	require.NoError(t, err)

	assert.Equal(t, "SKU-0001", item.ID)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, DefaultCategory, item.Category)
	assert.Equal(t, DefaultUnit, item.Unit)
	assert.True(t, cost.Equal(*item.UnitCost))
	assert.Nil(t, item.UnitPrice)
	assert.Nil(t, item.Supplier)
	assert.Equal(t, int64(0), item.StockQty)
	assert.True(t, testNow.Equal(item.LastUpdated.Time))

	second := mustAdd(t, m, "Bread")
	assert.Equal(t, "SKU-0002", second.ID)
	assert.Equal(t, "SKU-0003", m.NextSKU(ctx))
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestManager_AddItem_ExplicitID(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	item, err := m.AddItem(ctx, ItemInput{ID: "SKU-0042", Name: "Flour"})
	require.NoError(t, err)
	assert.Equal(t, "SKU-0042", item.ID)

	// 採番は既存の最大値の次
	assert.Equal(t, "SKU-0043", m.NextSKU(ctx))

	_, err = m.AddItem(ctx, ItemInput{ID: "SKU-0042", Name: "Sugar"})
	assert.True(t, errors.Is(err, ErrDuplicateID))

	_, err = m.AddItem(ctx, ItemInput{ID: TempSKUPrefix + "0001", Name: "Sugar"})
	assert.True(t, IsValidation(err))

	_, err = m.AddItem(ctx, ItemInput{ID: "has space", Name: "Sugar"})
	assert.True(t, IsValidation(err))
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestManager_AddItem_Validation(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()
	mustAdd(t, m, "Milk")

	_, err := m.AddItem(ctx, ItemInput{Name: "   "})
	assert.True(t, IsValidation(err))

	_, err = m.AddItem(ctx, ItemInput{Name: " mILK"})
	assert.True(t, errors.Is(err, ErrDuplicateName))

	negative := int64(-1)
	_, err = m.AddItem(ctx, ItemInput{Name: "Eggs", StockQty: &negative})
	assert.True(t, IsValidation(err))

	price := decimal.NewFromInt(-3)
	_, err = m.AddItem(ctx, ItemInput{Name: "Eggs", UnitPrice: &price})
	assert.True(t, IsValidation(err))

	assert.Len(t, m.ListItems(ctx), 1)
	store.AssertNumberOfCalls(t, "Save", 1)
}

// TestManager_StockMovements は入出庫と調整のテスト
func TestManager_StockMovements(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	milk := mustAdd(t, m, "Milk")
	require.Equal(t, "SKU-0001", milk.ID)

	tx, err := m.StockIn(ctx, milk.ID, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, "TX-000001", tx.ID)
	assert.Equal(t, TransactionTypeIn, tx.Type)
	assert.Equal(t, "Purchase", tx.Reason)
	assert.Nil(t, tx.Note)

	tx, err = m.StockOut(ctx, milk.ID, 3, "Breakfast", "table 4")
	require.NoError(t, err)
	assert.Equal(t, "TX-000002", tx.ID)
	assert.Equal(t, "Breakfast", tx.Reason)
	require.NotNil(t, tx.Note)
	assert.Equal(t, "table 4", *tx.Note)

	item, err := m.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.StockQty)

	// 在庫不足の出庫は拒否され、何も記録されない
	_, err = m.StockOut(ctx, milk.ID, 100, "", "")
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.True(t, IsValidation(err))
	item, _ = m.GetItem(ctx, milk.ID)
	assert.Equal(t, int64(7), item.StockQty)

	tx, err = m.StockAdjust(ctx, milk.ID, 20, AdjustModeSet, "", "")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeAdjust, tx.Type)
	assert.Equal(t, int64(13), tx.Qty)
	assert.Equal(t, "Count correction", tx.Reason)
	require.NotNil(t, tx.Note)
	assert.Equal(t, "Set to 20", *tx.Note)

	history, err := m.History(ctx, milk.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "TX-000003", history[0].ID)
	assert.Equal(t, "TX-000001", history[2].ID)

	// 作成1回 + 移動3回
	store.AssertNumberOfCalls(t, "Save", 4)
}

func TestManager_StockAdjust_Delta(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	item := mustAdd(t, m, "Milk")
	_, err := m.StockIn(ctx, item.ID, 7, "", "")
	require.NoError(t, err)

	tx, err := m.StockAdjust(ctx, item.ID, -3, AdjustModeDelta, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), tx.Qty)
	assert.Equal(t, "Delta -3", *tx.Note)

	tx, err = m.StockAdjust(ctx, item.ID, 5, AdjustModeDelta, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Delta +5", *tx.Note)

	got, _ := m.GetItem(ctx, item.ID)
	assert.Equal(t, int64(9), got.StockQty)

	_, err = m.StockAdjust(ctx, item.ID, -100, AdjustModeDelta, "", "")
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	_, err = m.StockAdjust(ctx, item.ID, -1, AdjustModeSet, "", "")
	assert.True(t, IsValidation(err))

	_, err = m.StockAdjust(ctx, item.ID, 1, AdjustMode("percent"), "", "")
	assert.True(t, IsValidation(err))
}

func TestManager_StockAdjust_NoChange(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	item := mustAdd(t, m, "Milk")
	_, err := m.StockIn(ctx, item.ID, 7, "", "")
	require.NoError(t, err)

	_, err = m.StockAdjust(ctx, item.ID, 7, AdjustModeSet, "", "")
	assert.True(t, errors.Is(err, ErrNoChange))

	_, err = m.StockAdjust(ctx, item.ID, 0, AdjustModeDelta, "", "")
	assert.True(t, errors.Is(err, ErrNoChange))

	history, err := m.History(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestManager_StockIn_Validation(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	item := mustAdd(t, m, "Milk")

	_, err := m.StockIn(ctx, item.ID, 0, "", "")
	assert.True(t, errors.Is(err, ErrNonPositiveQuantity))

	_, err = m.StockOut(ctx, item.ID, -2, "", "")
	assert.True(t, errors.Is(err, ErrNonPositiveQuantity))

	_, err = m.StockIn(ctx, "SKU-9999", 1, "", "")
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrItemNotFound))

	_, err = m.StockIn(ctx, item.ID, 1<<62, "", "")
	require.NoError(t, err)
	_, err = m.StockIn(ctx, item.ID, 1<<62, "", "")
	assert.True(t, IsValidation(err))
}

// TestManager_UpdateItem は部分更新のテスト
func TestManager_UpdateItem(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	supplier := "Dairy Co"
	cost := decimal.RequireFromString("0.80")
	item, err := m.AddItem(ctx, ItemInput{Name: "Milk", Supplier: supplier, UnitCost: &cost})
	require.NoError(t, err)
	mustAdd(t, m, "Bread")

	name := "Whole Milk"
	empty := ""
	reorder := int64(4)
	updated, err := m.UpdateItem(ctx, item.ID, ItemUpdate{
		Name:         &name,
		Supplier:     &empty,
		UnitCost:     &decimal.NullDecimal{},
		ReorderLevel: &reorder,
	})
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk", updated.Name)
	assert.Nil(t, updated.Supplier)
	assert.Nil(t, updated.UnitCost)
	assert.Equal(t, int64(4), updated.ReorderLevel)
	assert.Equal(t, DefaultCategory, updated.Category)

	dup := "bread"
	_, err = m.UpdateItem(ctx, item.ID, ItemUpdate{Name: &dup})
	assert.True(t, errors.Is(err, ErrDuplicateName))

	// 自分自身の名前の大文字小文字変更は許可
	same := "WHOLE MILK"
	_, err = m.UpdateItem(ctx, item.ID, ItemUpdate{Name: &same})
	assert.NoError(t, err)

	_, err = m.UpdateItem(ctx, "SKU-0404", ItemUpdate{Name: &name})
	assert.True(t, IsNotFound(err))
}

// TestManager_DeleteItem はカスケード削除のテスト
func TestManager_DeleteItem(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	milk := mustAdd(t, m, "Milk")
	bread := mustAdd(t, m, "Bread")
	_, err := m.StockIn(ctx, milk.ID, 5, "", "")
	require.NoError(t, err)
	_, err = m.StockIn(ctx, bread.ID, 2, "", "")
	require.NoError(t, err)

	err = m.DeleteItem(ctx, milk.ID, false)
	assert.True(t, IsConflict(err))
	assert.True(t, errors.Is(err, ErrCascadeRequired))
	_, err = m.GetItem(ctx, milk.ID)
	assert.NoError(t, err)

	require.NoError(t, m.DeleteItem(ctx, milk.ID, true))
	_, err = m.GetItem(ctx, milk.ID)
	assert.True(t, IsNotFound(err))

	// 他の商品の履歴は残る
	history, err := m.History(ctx, bread.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// 履歴のない商品は確認なしで削除できる
	eggs := mustAdd(t, m, "Eggs")
	assert.NoError(t, m.DeleteItem(ctx, eggs.ID, false))

	assert.True(t, IsNotFound(m.DeleteItem(ctx, "SKU-0404", true)))
}

// TestManager_SaveFailureRollsBack は保存失敗時の巻き戻しのテスト
func TestManager_SaveFailureRollsBack(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	diskFull := errors.New("disk full")

	store.On("Save", mock.Anything, mock.Anything).Return(nil).Twice()
	store.On("Save", mock.Anything, mock.Anything).Return(diskFull)

	milk := mustAdd(t, m, "Milk")
	_, err := m.StockIn(ctx, milk.ID, 10, "", "")
	require.NoError(t, err)

	_, err = m.StockOut(ctx, milk.ID, 4, "", "")
	assert.True(t, IsPersistence(err))
	assert.True(t, errors.Is(err, diskFull))

	item, _ := m.GetItem(ctx, milk.ID)
	assert.Equal(t, int64(10), item.StockQty)
	assert.Equal(t, "TX-000002", m.NextTxID(ctx))

	_, err = m.AddItem(ctx, ItemInput{Name: "Bread"})
	assert.True(t, IsPersistence(err))
	assert.Len(t, m.ListItems(ctx), 1)

	err = m.DeleteItem(ctx, milk.ID, true)
	assert.True(t, IsPersistence(err))
	history, _ := m.History(ctx, milk.ID, 0)
	assert.Len(t, history, 1)

	_, err = m.UpdateSettings(ctx, []string{"Dry"}, false, ";")
	assert.True(t, IsPersistence(err))
	assert.Equal(t, DefaultSettings(), m.Settings(ctx))
}

// TestManager_SearchAndCounts は検索と件数集計のテスト
func TestManager_SearchAndCounts(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	reorder := int64(5)
	five := int64(5)
	_, err := m.AddItem(ctx, ItemInput{Name: "Milk", Category: "Beverage", StockQty: &five, ReorderLevel: &reorder, Supplier: "Dairy Co"})
	require.NoError(t, err)
	ten := int64(10)
	_, err = m.AddItem(ctx, ItemInput{Name: "Bread", Category: "Ingredient", StockQty: &ten, ReorderLevel: &reorder})
	require.NoError(t, err)

	assert.Len(t, m.SearchItems(ctx, ItemFilter{Query: "DAIRY"}), 1)
	assert.Len(t, m.SearchItems(ctx, ItemFilter{Query: "sku-000"}), 2)
	assert.Len(t, m.SearchItems(ctx, ItemFilter{Category: AllCategories}), 2)
	assert.Len(t, m.SearchItems(ctx, ItemFilter{Category: "Beverage"}), 1)

	low := m.SearchItems(ctx, ItemFilter{LowOnly: true})
	require.Len(t, low, 1)
	assert.Equal(t, "Milk", low[0].Name)
	assert.Equal(t, Counts{Total: 2, Low: 1}, m.Counts(ctx))

	// 境界値を含まない設定では数量=発注点は低在庫ではない
	_, err = m.UpdateSettings(ctx, nil, false, ",")
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 2, Low: 0}, m.Counts(ctx))

	// 返り値はコピー
	items := m.ListItems(ctx)
	items[0].Name = "changed"
	got, _ := m.GetItem(ctx, items[0].ID)
	assert.Equal(t, "Milk", got.Name)
}

func TestManager_UpdateSettings(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	s, err := m.UpdateSettings(ctx, []string{" Dry ", "", "  ", "Frozen"}, false, "\t")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dry", "Frozen"}, s.Categories)
	assert.False(t, s.LowStockInclusive)
	assert.Equal(t, "\t", s.CSVDelimiter)

	s, err = m.UpdateSettings(ctx, []string{""}, true, " ; ")
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories(), s.Categories)
	assert.Equal(t, ";", s.CSVDelimiter)

	for _, bad := range []string{"", "ab", `"`, "\n", "\x00"} {
		s, err = m.UpdateSettings(ctx, nil, true, bad)
		require.NoError(t, err)
		assert.Equal(t, ",", s.CSVDelimiter, "delimiter %q", bad)
	}
}

func TestManager_HistoryByDateRange(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(NewAppData(), nil).Once()
	allowSaves(store)

	now := testNow
	m, err := NewManager(context.Background(), store, nil, zap.NewNop(), nil, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	item := mustAdd(t, m, "Milk")
	for day := 0; day < 3; day++ {
		now = testNow.AddDate(0, 0, day)
		_, err := m.StockIn(ctx, item.ID, int64(day+1), "", "")
		require.NoError(t, err)
	}

	txs, err := m.HistoryByDateRange(ctx, item.ID, testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(2), txs[0].Qty)
	assert.Equal(t, int64(3), txs[1].Qty)

	limited, err := m.History(ctx, item.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(3), limited[0].Qty)

	_, err = m.HistoryByDateRange(ctx, item.ID, testNow.AddDate(0, 0, 2), testNow)
	assert.True(t, IsValidation(err))

	_, err = m.History(ctx, "SKU-0404", 0)
	assert.True(t, IsNotFound(err))
}

func TestManager_Valuation(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()

	cost := decimal.RequireFromString("0.10")
	price := decimal.RequireFromString("0.25")
	qty := int64(3)
	_, err := m.AddItem(ctx, ItemInput{Name: "Napkin", UnitCost: &cost, UnitPrice: &price, StockQty: &qty})
	require.NoError(t, err)
	_, err = m.AddItem(ctx, ItemInput{Name: "Straw", UnitCost: &cost, StockQty: &qty})
	require.NoError(t, err)

	v := m.Valuation(ctx)
	assert.Equal(t, "0.6", v.CostValue.String())
	assert.Equal(t, "0.75", v.RetailValue.String())
	assert.Equal(t, 1, v.UnpricedItems)
}

// TestManager_ImportCSV は取込後の仮ID正規化のテスト
func TestManager_ImportCSV(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()
	mustAdd(t, m, "Milk")

	store.On("ImportCSV", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data := args.Get(1).(*AppData)
			data.Items = append(data.Items,
				Item{ID: TempSKUPrefix + "0001", Name: "Bread", Category: DefaultCategory, Unit: DefaultUnit},
				Item{ID: TempSKUPrefix + "0002", Name: "Eggs", Category: DefaultCategory, Unit: DefaultUnit},
			)
			data.Transactions = append(data.Transactions,
				Transaction{ID: "TX-000001", Type: TransactionTypeIn, SKU: TempSKUPrefix + "0002", Qty: 1})
		}).
		Return(&ImportSummary{Added: 2, SkippedRows: []SkippedRow{}}, nil)

	summary, err := m.ImportCSV(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Added)
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, map[string]string{
		TempSKUPrefix + "0001": "SKU-0002",
		TempSKUPrefix + "0002": "SKU-0003",
	}, summary.Reassigned)

	eggs, err := m.GetItem(ctx, "SKU-0003")
	require.NoError(t, err)
	assert.Equal(t, "Eggs", eggs.Name)

	history, err := m.History(ctx, "SKU-0003", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	for _, item := range m.ListItems(ctx) {
		assert.False(t, IsTempSKU(item.ID))
	}
}

func TestManager_ImportCSV_SaveFailure(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only"))
	mustAdd(t, m, "Milk")

	store.On("ImportCSV", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data := args.Get(1).(*AppData)
			data.Items[0].StockQty = 99
			data.Items = append(data.Items, Item{ID: TempSKUPrefix + "0001", Name: "Bread"})
		}).
		Return(&ImportSummary{Added: 1, Updated: 1}, nil)

	_, err := m.ImportCSV(ctx, nil)
	assert.True(t, IsPersistence(err))

	items := m.ListItems(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, int64(0), items[0].StockQty)
}

// TestManager_Undo は取消処理のテスト
func TestManager_Undo(t *testing.T) {
	m, store := newTestManager(t)
	allowSaves(store)
	ctx := context.Background()
	mustAdd(t, m, "Milk")

	previous := NewAppData()
	store.On("RestoreLatest", mock.Anything).Return(true, nil).Once()
	store.On("Load", mock.Anything).Return(previous, nil).Once()

	restored, err := m.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Empty(t, m.ListItems(ctx))

	store.On("RestoreLatest", mock.Anything).Return(false, nil).Once()
	restored, err = m.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	store.AssertExpectations(t)
}

// TestManager_Events はイベント発行のテスト
func TestManager_Events(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(NewAppData(), nil).Once()
	allowSaves(store)
	publisher := &recordingPublisher{}

	m, err := NewManager(context.Background(), store, publisher, zap.NewNop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	reorder := int64(3)
	item, err := m.AddItem(ctx, ItemInput{Name: "Milk", ReorderLevel: &reorder})
	require.NoError(t, err)

	_, err = m.StockIn(ctx, item.ID, 10, "", "")
	require.NoError(t, err)
	_, err = m.StockOut(ctx, item.ID, 7, "", "")
	require.NoError(t, err)
	_, err = m.StockOut(ctx, item.ID, 1, "", "")
	require.NoError(t, err)

	require.Len(t, publisher.changed, 3)
	assert.Equal(t, int64(10), publisher.changed[1].OldQuantity)
	assert.Equal(t, int64(3), publisher.changed[1].NewQuantity)

	// 低在庫に入った時だけ通知
	require.Len(t, publisher.low, 1)
	assert.Equal(t, item.ID, publisher.low[0].ItemID)
	assert.Equal(t, int64(3), publisher.low[0].CurrentQty)
}

func TestNewManager_LoadFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(nil, errors.New("corrupt"))

	_, err := NewManager(context.Background(), store, nil, nil, nil)
	assert.True(t, IsPersistence(err))
}

// ベンチマークテスト
func BenchmarkManager_StockIn(b *testing.B) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(NewAppData(), nil)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	m, err := NewManager(ctx, store, nil, zap.NewNop(), nil)
	if err != nil {
		b.Fatal(err)
	}
	item, err := m.AddItem(ctx, ItemInput{Name: "Bench"})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.StockIn(ctx, item.ID, 1, "BENCH-TEST", "")
	}
}
