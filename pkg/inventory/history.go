package inventory

import (
	"context"
	"time"
)

// History returns the item's transactions newest first. A positive limit caps the result.
// 商品の取引履歴を新しい順で取得
func (m *Manager) History(_ context.Context, itemID string, limit int) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(itemID) < 0 {
		return nil, NewNotFoundError(itemID)
	}

	history := []Transaction{}
	for i := len(m.data.Transactions) - 1; i >= 0; i-- {
		tx := m.data.Transactions[i]
		if tx.SKU != itemID {
			continue
		}
		history = append(history, tx.Clone())
		if limit > 0 && len(history) == limit {
			break
		}
	}
	return history, nil
}

// HistoryByDateRange returns the item's transactions recorded within [from, to], oldest first
// 指定期間内の取引履歴を古い順で取得
func (m *Manager) HistoryByDateRange(_ context.Context, itemID string, from, to time.Time) ([]Transaction, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, NewValidationError("to", "終了日時は開始日時以降である必要があります", to.Format(time.RFC3339))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(itemID) < 0 {
		return nil, NewNotFoundError(itemID)
	}

	history := []Transaction{}
	for _, tx := range m.data.Transactions {
		if tx.SKU != itemID {
			continue
		}
		// 期間フィルタリング (境界を含む)
		if !from.IsZero() && tx.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Timestamp.After(to) {
			continue
		}
		history = append(history, tx.Clone())
	}
	return history, nil
}
