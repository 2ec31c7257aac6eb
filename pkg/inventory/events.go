package inventory

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes inventory events to a zap logger
// 在庫イベントをログに出力する発行者
type LogPublisher struct {
	logger *zap.Logger
}

var _ EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a publisher that logs every event
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) PublishStockChanged(_ context.Context, event StockChangedEvent) error {
	p.logger.Info("在庫変動",
		zap.String("item_id", event.ItemID),
		zap.String("change_type", string(event.ChangeType)),
		zap.Int64("old_quantity", event.OldQuantity),
		zap.Int64("new_quantity", event.NewQuantity),
		zap.String("transaction_id", event.TransactionID),
	)
	return nil
}

func (p *LogPublisher) PublishLowStock(_ context.Context, event LowStockEvent) error {
	p.logger.Warn("低在庫アラート",
		zap.String("item_id", event.ItemID),
		zap.String("name", event.Name),
		zap.Int64("current_qty", event.CurrentQty),
		zap.Int64("reorder_level", event.ReorderLevel),
	)
	return nil
}
