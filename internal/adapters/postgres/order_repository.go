package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.OrderLedger = (*OrderRepository)(nil)

const orderColumns = `id, payment_session_id, user_id, user_email, total, status,
	full_name, phone, address, city, postal_code, shipping_type, shipping_cost,
	created_at, updated_at`

// OrderRepository implements ports.OrderLedger.
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts the order and its lines in one transaction. The unique
// constraint on payment_session_id turns a losing concurrent insert into
// domain.ErrDuplicateSession.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, payment_session_id, user_id, user_email, total, status,
			full_name, phone, address, city, postal_code, shipping_type, shipping_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, order.ID, order.PaymentSessionID, order.BuyerID, order.BuyerEmail, order.Total, order.Status,
		order.FullName, order.Phone, order.Address, order.City, order.PostalCode,
		order.ShippingMethod, order.ShippingCost,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if isUniqueViolation(err, "orders_payment_session_id_key") {
		return nil, domain.NewServiceError(domain.ErrDuplicateSession,
			"session "+order.PaymentSessionID, "DUPLICATE_SESSION")
	}
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, variant_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, line.ID, order.ID, line.VariantID, line.Quantity, line.UnitPrice); err != nil {
			return nil, fmt.Errorf("insert order item %s: %w", line.VariantID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err, "orders_payment_session_id_key") {
			return nil, domain.NewServiceError(domain.ErrDuplicateSession,
				"session "+order.PaymentSessionID, "DUPLICATE_SESSION")
		}
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

// FindBySessionID implements ports.OrderLedger.
func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_session_id = $1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by session: %w", err)
	}
	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder implements ports.OrderLedger.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, notFound(orderID)
	}
	order, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders implements ports.OrderLedger.
func (r *OrderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var refs []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		refs = append(refs, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if err := r.loadLines(ctx, refs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(refs))
	for _, o := range refs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// UpdateStatus changes the status only when the row still holds the expected one.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, notFound(orderID)
	}
	order, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+orderColumns, to, orderID, from))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetOrder(ctx, orderID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.NewServiceError(domain.ErrInvalidTransition,
			"order "+orderID+" is no longer "+string(from), "STATUS_CONFLICT")
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes the order; lines and their movements cascade.
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return notFound(orderID)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(orderID)
	}
	return nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, variant_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.Quantity, &line.UnitPrice, &line.CreatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

func buildListQuery(filter domain.OrderFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.BuyerID != "" {
		args = append(args, filter.BuyerID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.PaymentSessionID, &o.BuyerID, &o.BuyerEmail, &o.Total, &o.Status,
		&o.FullName, &o.Phone, &o.Address, &o.City, &o.PostalCode, &o.ShippingMethod, &o.ShippingCost,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func notFound(orderID string) error {
	return domain.NewServiceError(domain.ErrOrderNotFound, "order "+orderID, "ORDER_NOT_FOUND")
}
