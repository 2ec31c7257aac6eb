package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Valuation is the value of the stock on hand at current unit prices
// 現在の単価による在庫評価額
type Valuation struct {
	CostValue     decimal.Decimal `json:"cost_value"`     // 在庫数×原価の合計
	RetailValue   decimal.Decimal `json:"retail_value"`   // 在庫数×売価の合計
	UnpricedItems int             `json:"unpriced_items"` // 原価または売価が未設定の商品数
}

// Valuation sums stock_qty × unit_cost and stock_qty × unit_price over all items.
// Items missing either price count as unpriced and contribute only the known side.
// 全商品の在庫評価額を計算
func (m *Manager) Valuation(_ context.Context) Valuation {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := Valuation{CostValue: decimal.Zero, RetailValue: decimal.Zero}
	for _, item := range m.data.Items {
		qty := decimal.NewFromInt(item.StockQty)
		if item.UnitCost != nil {
			v.CostValue = v.CostValue.Add(item.UnitCost.Mul(qty))
		}
		if item.UnitPrice != nil {
			v.RetailValue = v.RetailValue.Add(item.UnitPrice.Mul(qty))
		}
		if item.UnitCost == nil || item.UnitPrice == nil {
			v.UnpricedItems++
		}
	}

	m.logger.Debug("在庫評価計算完了",
		zap.String("cost_value", v.CostValue.String()),
		zap.String("retail_value", v.RetailValue.String()),
		zap.Int("unpriced_items", v.UnpricedItems),
	)
	return v
}
