package scheduler

import (
	"context"
	"fmt"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DriftFinder returns the balance rows that disagree with their ledger
type DriftFinder interface {
	FindDrift(ctx context.Context, tenantID uuid.UUID) ([]inventory.BalanceDrift, error)
}

// DriftRecorder receives the drift count of each completed run
type DriftRecorder interface {
	RecordBalanceDrift(ctx context.Context, tenantID uuid.UUID, rows int64)
}

// ReconciliationExecutor audits one tenant's balances against the ledger.
// Drift is reported, never repaired: the ledger stays the source of truth
// and a corrected balance needs a booked adjustment.
type ReconciliationExecutor struct {
	finder   DriftFinder
	recorder DriftRecorder
	logger   *zap.Logger
}

// NewReconciliationExecutor creates an executor. recorder may be nil.
func NewReconciliationExecutor(finder DriftFinder, recorder DriftRecorder, logger *zap.Logger) *ReconciliationExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationExecutor{finder: finder, recorder: recorder, logger: logger}
}

// Execute implements JobExecutor
func (e *ReconciliationExecutor) Execute(ctx context.Context, job *Job) error {
	drifts, err := e.finder.FindDrift(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("reconcile tenant %s: %w", job.TenantID, err)
	}

	for _, d := range drifts {
		e.logger.Warn("Inventory balance disagrees with ledger",
			zap.String("tenant_id", d.TenantID.String()),
			zap.String("inventory_id", d.InventoryID.String()),
			zap.String("product_id", d.ProductID.String()),
			zap.String("store_id", d.StoreID.String()),
			zap.Int("projected", d.Projected),
			zap.Int64("ledger_sum", d.LedgerSum),
			zap.Int64("delta", d.Delta()),
		)
	}

	job.DriftCount = len(drifts)
	if e.recorder != nil {
		e.recorder.RecordBalanceDrift(ctx, job.TenantID, int64(len(drifts)))
	}
	return nil
}
