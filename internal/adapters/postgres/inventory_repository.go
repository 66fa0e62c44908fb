package postgres

import (
	"context"
	"fmt"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.InventoryAdjuster = (*InventoryRepository)(nil)

const movementDecreased = "decreased"

// InventoryRepository implements ports.InventoryAdjuster. Each applied order
// line leaves exactly one row in inventory_movements.
type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository creates a new inventory repository.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// decrement lowers stock with a single conditional update. There is no
// zero floor; negative stock is left for operators to see.
func decrement(ctx context.Context, q querier, variantID string, qty int) error {
	tag, err := q.Exec(ctx, `
		UPDATE product_variants
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2
	`, qty, variantID)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewServiceError(domain.ErrVariantNotFound, "variant "+variantID, "VARIANT_NOT_FOUND")
	}
	return nil
}

// ApplyOrderLine records the movement and decrements stock in one transaction.
// The unique key on order_item_id makes a second application a no-op.
func (r *InventoryRepository) ApplyOrderLine(ctx context.Context, line domain.OrderLine) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin inventory transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (id, order_item_id, variant_id, change_quantity, movement_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_item_id) DO NOTHING
	`, uuid.NewString(), line.ID, line.VariantID, -line.Quantity, movementDecreased)
	if err != nil {
		return false, fmt.Errorf("record movement for line %s: %w", line.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := decrement(ctx, tx, line.VariantID, line.Quantity); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit movement for line %s: %w", line.ID, err)
	}
	return true, nil
}

// UnappliedLines implements ports.InventoryAdjuster.
func (r *InventoryRepository) UnappliedLines(ctx context.Context, after domain.LineCursor, limit int) ([]domain.OrderLine, error) {
	query, args := buildUnappliedQuery(after, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unapplied lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.VariantID, &l.Quantity, &l.UnitPrice, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unapplied line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// buildUnappliedQuery pages with a (created_at, id) keyset so lines that keep
// failing never hide the ones behind them.
func buildUnappliedQuery(after domain.LineCursor, limit int) (string, []any) {
	query := `
		SELECT oi.id, oi.order_id, oi.variant_id, oi.quantity, oi.price, oi.created_at
		FROM order_items oi
		LEFT JOIN inventory_movements m ON m.order_item_id = oi.id
		WHERE m.id IS NULL`
	var args []any
	if !after.IsZero() {
		args = append(args, after.CreatedAt, after.LineID)
		query += ` AND (oi.created_at, oi.id) > ($1, $2::uuid)`
	}
	query += ` ORDER BY oi.created_at, oi.id`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}
