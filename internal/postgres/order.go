package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/elmalimarket/elmali/internal/domain"
)

// Compile-time check that Store implements domain.OrderStore.
var _ domain.OrderStore = (*Store)(nil)

const orderColumns = `id, order_number, user_id, total_kurus, status, payment_status,
	shipping_address_id, tracking_number, estimated_delivery, notes, created_at, updated_at`

// CreateGuestOrder creates the placeholder user, the shipping address, the
// order with item snapshots, and decrements stock, all in one transaction.
// Stock and product-active checks run at commit time against locked product
// rows, so concurrent orders cannot oversell.
func (s *Store) CreateGuestOrder(ctx context.Context, g domain.GuestOrder) (*domain.Order, error) {
	const op = "order.create_guest"

	var order *domain.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		now := time.Now()

		// Placeholder account: inactive, empty credential. Exists only to
		// satisfy the order's owning-user relation.
		var userID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, first_name, last_name, phone, is_active, is_admin)
			VALUES ($1, '', $2, $3, $4, false, false)
			RETURNING id`,
			g.Email, g.FirstName, g.LastName, g.Phone,
		).Scan(&userID)
		if err != nil {
			return domain.Internal(err, op, "failed to create guest user")
		}

		var addressID uuid.UUID
		err = tx.QueryRow(ctx, `
			INSERT INTO addresses (user_id, full_name, line1, line2, city, district, post_code, phone)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			userID, g.Address.FullName, g.Address.Line1, g.Address.Line2,
			g.Address.City, g.Address.District, g.Address.PostCode, g.Address.Phone,
		).Scan(&addressID)
		if err != nil {
			return domain.Internal(err, op, "failed to create shipping address")
		}

		items, total, err := snapshotItems(ctx, tx, g.Items)
		if err != nil {
			return err
		}

		orderNumber, err := newOrderNumber(now)
		if err != nil {
			return domain.Internal(err, op, "failed to generate order number")
		}

		o := &domain.Order{
			OrderNumber:       orderNumber,
			UserID:            userID,
			TotalKurus:        total,
			Status:            domain.OrderStatusPending,
			PaymentStatus:     domain.PaymentStatusPending,
			ShippingAddressID: addressID,
			Notes:             g.Notes,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO orders (order_number, user_id, total_kurus, status, payment_status, shipping_address_id, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`,
			o.OrderNumber, o.UserID, o.TotalKurus, o.Status, o.PaymentStatus, o.ShippingAddressID, o.Notes,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		for i := range items {
			items[i].OrderID = o.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price_kurus, total_kurus)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				items[i].OrderID, items[i].ProductID, items[i].ProductName,
				items[i].Quantity, items[i].UnitPriceKurus, items[i].TotalKurus,
			).Scan(&items[i].ID)
			if err != nil {
				return domain.Internal(err, op, "failed to create order item")
			}

			if err := decrementStock(ctx, tx, items[i].ProductID, items[i].Quantity); err != nil {
				return err
			}
		}
		o.Items = items

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// snapshotItems locks each referenced product, re-validates it is active,
// and captures name and unit price at order time. The snapshot is immutable
// afterwards, decoupled from the live product price.
func snapshotItems(ctx context.Context, tx pgx.Tx, items []domain.GuestOrderItem) ([]domain.OrderItem, int64, error) {
	const op = "order.create_guest"

	snapshots := make([]domain.OrderItem, 0, len(items))
	var total int64
	for _, it := range items {
		var (
			name     string
			price    int64
			isActive bool
			stock    int32
		)
		err := tx.QueryRow(ctx, `
			SELECT name, price_kurus, is_active, stock
			FROM products WHERE id = $1
			FOR UPDATE`,
			it.ProductID,
		).Scan(&name, &price, &isActive, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.NotFound(op, "product", it.ProductID.String())
		}
		if err != nil {
			return nil, 0, domain.Internal(err, op, "failed to load product")
		}
		if !isActive {
			return nil, 0, &domain.Error{Code: domain.ECONFLICT, Op: op,
				Message: fmt.Sprintf("%s: %s", domain.ErrProductInactive.Message, name)}
		}
		if stock < it.Quantity {
			return nil, 0, &domain.Error{Code: domain.ECONFLICT, Op: op,
				Message: fmt.Sprintf("%s: %s", domain.ErrInsufficientStock.Message, name)}
		}

		lineTotal := price * int64(it.Quantity)
		total += lineTotal
		snapshots = append(snapshots, domain.OrderItem{
			ProductID:      it.ProductID,
			ProductName:    name,
			Quantity:       it.Quantity,
			UnitPriceKurus: price,
			TotalKurus:     lineTotal,
		})
	}
	return snapshots, total, nil
}

// GetOrder loads an order with items, optionally scoped to an owner.
func (s *Store) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	const op = "order.get"

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	args := []any{orderID}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}

	o, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if err := s.loadItems(ctx, o); err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	return o, nil
}

// GetOrderByRef resolves a gateway merchant reference. Legacy orders used
// the raw order ID as merchant_oid while newer ones use the order number,
// so both lookups are tried.
func (s *Store) GetOrderByRef(ctx context.Context, ref string) (*domain.Order, error) {
	const op = "order.get_by_ref"

	if id, err := uuid.Parse(ref); err == nil {
		o, err := s.GetOrder(ctx, id, nil)
		if err == nil {
			return o, nil
		}
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, err
		}
	}

	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if err := s.loadItems(ctx, o); err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	return o, nil
}

// CancelOrder cancels an order and restores stock atomically. The row lock
// taken before the guard is what serializes a user cancel racing a webhook
// confirmation: whichever transaction commits first decides the outcome.
func (s *Store) CancelOrder(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error) {
	const op = "order.cancel"

	var order *domain.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
		args := []any{p.OrderID}
		if !p.IsAdmin {
			// Non-admins are scoped to their own orders; a foreign order is
			// indistinguishable from a missing one.
			query += ` AND user_id = $2`
			args = append(args, p.UserID)
		}
		query += ` FOR UPDATE`

		o, err := scanOrder(tx.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}

		if !o.Cancellable() {
			return domain.Errorf(domain.EINVALID, op,
				"sipariş %s durumunda iptal edilemez", o.Status)
		}

		notes := cancelNote(o.Notes, p.Reason)
		err = tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $1, notes = $2, updated_at = now()
			WHERE id = $3
			RETURNING updated_at`,
			domain.OrderStatusCancelled, notes, o.ID,
		).Scan(&o.UpdatedAt)
		if err != nil {
			return domain.Internal(err, op, "failed to cancel order")
		}
		o.Status = domain.OrderStatusCancelled
		o.Notes = notes

		if err := restoreStockTx(ctx, tx, o.ID); err != nil {
			return err
		}

		if err := loadItemsTx(ctx, tx, o); err != nil {
			return domain.Internal(err, op, "failed to load order items")
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus persists an admin-driven status change, enforcing the
// fulfillment state machine. Cancellation through this path goes through the
// same stock-restore logic as CancelOrder so the ledger round-trip holds.
func (s *Store) UpdateStatus(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, bool, error) {
	const op = "order.update_status"

	var (
		order   *domain.Order
		changed bool
	)
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}

		if !o.CanTransitionTo(p.Status) {
			return domain.Errorf(domain.EINVALID, op,
				"geçersiz durum geçişi: %s → %s", o.Status, p.Status)
		}
		if p.Status == domain.OrderStatusCancelled {
			if !o.Cancellable() {
				return domain.Errorf(domain.EINVALID, op,
					"sipariş %s durumunda iptal edilemez", o.Status)
			}
			if err := restoreStockTx(ctx, tx, o.ID); err != nil {
				return err
			}
		}

		changed = o.Status != p.Status

		tracking := o.TrackingNumber
		if p.TrackingNumber != "" {
			tracking = p.TrackingNumber
		}
		estimated := o.EstimatedDelivery
		if p.EstimatedDelivery != nil {
			estimated = p.EstimatedDelivery
		}
		notes := o.Notes
		if p.Notes != "" {
			notes = appendNote(o.Notes, p.Notes)
		}

		err = tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $1, tracking_number = $2, estimated_delivery = $3, notes = $4, updated_at = now()
			WHERE id = $5
			RETURNING updated_at`,
			p.Status, tracking, estimated, notes, o.ID,
		).Scan(&o.UpdatedAt)
		if err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}

		o.Status = p.Status
		o.TrackingNumber = tracking
		o.EstimatedDelivery = estimated
		o.Notes = notes

		if err := loadItemsTx(ctx, tx, o); err != nil {
			return domain.Internal(err, op, "failed to load order items")
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}

// ApplyPaymentOutcome transitions the order for a verified gateway callback.
// The terminal-state check under the row lock is the idempotency and
// concurrency guard: redelivered callbacks see a terminal payment status and
// report duplicate without mutating anything.
func (s *Store) ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Order, bool, error) {
	const op = "order.apply_payment"

	var (
		order     *domain.Order
		duplicate bool
	)
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}

		if o.PaymentStatus.Terminal() {
			duplicate = true
			order = o
			return loadItemsTx(ctx, tx, o)
		}

		var (
			paymentStatus = domain.PaymentStatusFailed
			status        = o.Status
			notes         = o.Notes
		)
		switch {
		case outcome.Paid && o.Status == domain.OrderStatusCancelled:
			// Payment landed after a cancellation already committed and
			// restored stock. First committer wins: the order stays
			// cancelled and the charge needs a manual refund.
			notes = appendNote(notes, "Ödeme iptal sonrası alındı, iade gerekli (ref "+outcome.OrderRef+")")
		case outcome.Paid:
			paymentStatus = domain.PaymentStatusPaid
			status = domain.OrderStatusConfirmed
		default:
			reason := outcome.FailMessage
			if reason == "" {
				reason = "Ödeme başarısız"
			}
			if outcome.FailCode != "" {
				reason = fmt.Sprintf("%s (kod %s)", reason, outcome.FailCode)
			}
			notes = appendNote(notes, reason)
			if o.Status != domain.OrderStatusCancelled {
				status = domain.OrderStatusCancelled
				if err := restoreStockTx(ctx, tx, o.ID); err != nil {
					return err
				}
			}
		}

		err = tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $1, payment_status = $2, notes = $3, updated_at = now()
			WHERE id = $4
			RETURNING updated_at`,
			status, paymentStatus, notes, o.ID,
		).Scan(&o.UpdatedAt)
		if err != nil {
			return domain.Internal(err, op, "failed to apply payment outcome")
		}

		o.Status = status
		o.PaymentStatus = paymentStatus
		o.Notes = notes

		if err := loadItemsTx(ctx, tx, o); err != nil {
			return domain.Internal(err, op, "failed to load order items")
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, duplicate, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.TotalKurus, &o.Status, &o.PaymentStatus,
		&o.ShippingAddressID, &o.TrackingNumber, &o.EstimatedDelivery, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price_kurus, total_kurus
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	return scanItems(rows, o)
}

func loadItemsTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	rows, err := tx.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price_kurus, total_kurus
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	return scanItems(rows, o)
}

func scanItems(rows pgx.Rows, o *domain.Order) error {
	o.Items = o.Items[:0]
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPriceKurus, &it.TotalKurus); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

// cancelNote records the customer's stated cancellation reason. A blank
// reason leaves the notes untouched rather than appending an empty label.
func cancelNote(notes, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return notes
	}
	return appendNote(notes, "İptal nedeni: "+reason)
}

func appendNote(notes, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return notes
	}
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
