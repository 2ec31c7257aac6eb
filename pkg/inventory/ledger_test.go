package inventory_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
	"github.com/nemonet1337/zaiLedger/pkg/inventory/storage"
)

func openLedger(t *testing.T, root string) *inventory.Manager {
	t.Helper()
	store, err := storage.NewFileStore(storage.DefaultOptions(root), zap.NewNop())
	require.NoError(t, err)
	m, err := inventory.NewManager(context.Background(), store, nil, zap.NewNop(), nil)
	require.NoError(t, err)
	return m
}

// TestLedger_PersistsAcrossRestart は再起動後も状態が保持されることのテスト
func TestLedger_PersistsAcrossRestart(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	m := openLedger(t, root)
	milk, err := m.AddItem(ctx, inventory.ItemInput{Name: "Milk"})
	require.NoError(t, err)
	_, err = m.StockIn(ctx, milk.ID, 10, "", "")
	require.NoError(t, err)
	_, err = m.StockOut(ctx, milk.ID, 3, "", "")
	require.NoError(t, err)

	reopened := openLedger(t, root)
	item, err := reopened.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.StockQty)
	assert.Equal(t, "TX-000003", reopened.NextTxID(ctx))
	assert.Equal(t, "SKU-0002", reopened.NextSKU(ctx))
}

// TestLedger_UndoWalk は取消を繰り返すと1操作ずつ戻ることのテスト
func TestLedger_UndoWalk(t *testing.T) {
	m := openLedger(t, t.TempDir())
	ctx := context.Background()

	milk, err := m.AddItem(ctx, inventory.ItemInput{Name: "Milk"})
	require.NoError(t, err)
	_, err = m.StockIn(ctx, milk.ID, 10, "", "")
	require.NoError(t, err)
	_, err = m.StockOut(ctx, milk.ID, 4, "", "")
	require.NoError(t, err)

	restored, err := m.Undo(ctx)
	require.NoError(t, err)
	require.True(t, restored)
	item, err := m.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), item.StockQty)

	restored, err = m.Undo(ctx)
	require.NoError(t, err)
	require.True(t, restored)
	item, err = m.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.StockQty)

	// 最初の保存より前のスナップショットはない
	restored, err = m.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Len(t, m.ListItems(ctx), 1)
}

// TestLedger_ImportExport はCSV取込で仮IDが採番されることのテスト
func TestLedger_ImportExport(t *testing.T) {
	m := openLedger(t, t.TempDir())
	ctx := context.Background()

	_, err := m.AddItem(ctx, inventory.ItemInput{Name: "Milk"})
	require.NoError(t, err)

	input := "name,stock_qty,unit_price\n" +
		"milk,4,1.10\n" +
		"Bread,2,\n" +
		"Eggs,x,\n"
	summary, err := m.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 4, summary.SkippedRows[0].Row)
	assert.Equal(t, "SKU-0002", summary.Reassigned[inventory.TempSKUPrefix+"0001"])

	bread, err := m.GetItem(ctx, "SKU-0002")
	require.NoError(t, err)
	assert.Equal(t, "Bread", bread.Name)

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(ctx, &buf))
	assert.Contains(t, buf.String(), "SKU-0001,milk,Other,piece,,1.1,4,0,,,")
	assert.NotContains(t, buf.String(), inventory.TempSKUPrefix)

	// 取込は1回の取消で戻る
	restored, err := m.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Len(t, m.ListItems(ctx), 1)
}

// TestLedger_NulDelimiterFallsBack はCSVで使えない区切り文字がカンマになることのテスト
func TestLedger_NulDelimiterFallsBack(t *testing.T) {
	m := openLedger(t, t.TempDir())
	ctx := context.Background()

	_, err := m.AddItem(ctx, inventory.ItemInput{Name: "Milk"})
	require.NoError(t, err)

	settings, err := m.UpdateSettings(ctx, nil, true, "\x00")
	require.NoError(t, err)
	assert.Equal(t, ",", settings.CSVDelimiter)

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(ctx, &buf))
	assert.Contains(t, buf.String(), "SKU-0001,Milk,")

	summary, err := m.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
}
