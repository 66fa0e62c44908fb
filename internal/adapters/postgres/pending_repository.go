package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.PendingCheckoutStore = (*PendingRepository)(nil)

// PendingRepository implements ports.PendingCheckoutStore.
type PendingRepository struct {
	db *pgxpool.Pool
}

// NewPendingRepository creates a new pending checkout repository.
func NewPendingRepository(db *pgxpool.Pool) *PendingRepository {
	return &PendingRepository{db: db}
}

// SavePending keeps the first record written for a session.
func (r *PendingRepository) SavePending(ctx context.Context, p *domain.PendingCheckout) error {
	intent, err := json.Marshal(p.Intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO pending_checkouts (session_id, user_id, intent, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO NOTHING
	`, p.SessionID, p.Intent.BuyerID, intent, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save pending checkout: %w", err)
	}
	return nil
}

// GetPending implements ports.PendingCheckoutStore.
func (r *PendingRepository) GetPending(ctx context.Context, sessionID string) (*domain.PendingCheckout, error) {
	var (
		p       domain.PendingCheckout
		intent  []byte
		orderID *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT session_id, intent, order_id::text, created_at, consumed_at
		FROM pending_checkouts
		WHERE session_id = $1
	`, sessionID).Scan(&p.SessionID, &intent, &orderID, &p.CreatedAt, &p.ConsumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending checkout: %w", err)
	}
	if err := json.Unmarshal(intent, &p.Intent); err != nil {
		return nil, fmt.Errorf("decode pending intent %s: %w", sessionID, err)
	}
	if orderID != nil {
		p.OrderID = *orderID
	}
	return &p, nil
}

// MarkConsumed implements ports.PendingCheckoutStore.
func (r *PendingRepository) MarkConsumed(ctx context.Context, sessionID, orderID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE pending_checkouts
		SET order_id = $1, consumed_at = NOW()
		WHERE session_id = $2 AND consumed_at IS NULL
	`, orderID, sessionID)
	if err != nil {
		return fmt.Errorf("mark pending checkout consumed: %w", err)
	}
	return nil
}
