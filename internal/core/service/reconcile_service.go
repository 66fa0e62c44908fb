package service

import (
	"context"
	"log"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
)

const defaultReconcileBatch = 200

// ReconcileService applies stock decrements for order lines that never got one.
type ReconcileService struct {
	inventory ports.InventoryAdjuster
	batch     int
}

// NewReconcileService creates a new reconciliation service.
func NewReconcileService(inventory ports.InventoryAdjuster, batch int) *ReconcileService {
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &ReconcileService{inventory: inventory, batch: batch}
}

// Sweep runs a single reconciliation pass over the whole backlog, one batch
// at a time. Lines that fail stay unapplied and are retried next pass.
func (s *ReconcileService) Sweep(ctx context.Context) (domain.ReconcileReport, error) {
	var (
		report domain.ReconcileReport
		cursor domain.LineCursor
	)

	for {
		lines, err := s.inventory.UnappliedLines(ctx, cursor, s.batch)
		if err != nil {
			return report, err
		}
		report.Scanned += len(lines)

		for _, line := range lines {
			applied, err := s.inventory.ApplyOrderLine(ctx, line)
			if err != nil {
				report.Failed++
				log.Printf("[RECONCILE] line %s (variant %s) failed: %v", line.ID, line.VariantID, err)
				continue
			}
			if applied {
				report.Applied++
			}
		}

		if len(lines) < s.batch {
			break
		}
		cursor = domain.CursorAt(lines[len(lines)-1])
	}

	if report.Scanned > 0 {
		log.Printf("[RECONCILE] scanned %d, applied %d, failed %d", report.Scanned, report.Applied, report.Failed)
	}
	return report, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Printf("[RECONCILE] sweep failed: %v", err)
			}
		}
	}
}
