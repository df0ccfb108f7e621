package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/elmalimarket/elmali/internal/domain"
)

// decrementStock applies a guarded stock decrement. The WHERE clause is the
// authoritative commit-time check: zero rows affected means the product went
// inactive or ran out between the read and the write.
func decrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int32) error {
	const op = "stock.decrement"

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND is_active AND stock >= $1`,
		qty, productID)
	if err != nil {
		return domain.Internal(err, op, "failed to decrement stock")
	}
	if tag.RowsAffected() == 0 {
		return &domain.Error{
			Code:    domain.ECONFLICT,
			Op:      op,
			Message: domain.ErrInsufficientStock.Message,
		}
	}
	return nil
}

// restoreStockTx returns the exact decremented quantity of every line item
// of the order to stock. Runs in the caller's transaction so cancellation
// and restoration commit or abort together.
func restoreStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	const op = "stock.restore"

	_, err := tx.Exec(ctx, `
		UPDATE products p
		SET stock = p.stock + oi.quantity, updated_at = now()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id`,
		orderID)
	if err != nil {
		return domain.Internal(err, op, "failed to restore stock")
	}
	return nil
}
