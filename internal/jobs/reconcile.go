package jobs

import (
	"context"

	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/logger"
	"spadesk/pkg/metrics"
	"spadesk/pkg/model"
)

const ReconcileJobName = "ledger-reconcile"

type CustomerLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, customerID string) (*model.Reconciliation, error)
}

// SweepResult summarises one reconcile pass.
type SweepResult struct {
	Checked    int
	Mismatched int
	Failed     int
	Mismatches []*model.Reconciliation
}

// ReconcileSweep compares every customer's stored balance with its ledger.
// It catches drift that the event-driven auditor can miss, for example
// while the consumer was down.
type ReconcileSweep struct {
	customers CustomerLister
	ledger    Reconciler
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewReconcileSweep(customers CustomerLister, ledger Reconciler, log *logger.Logger, m *metrics.Metrics) *ReconcileSweep {
	return &ReconcileSweep{
		customers: customers,
		ledger:    ledger,
		log:       log,
		metrics:   m,
	}
}

// Run checks all customers. Individual failures are counted and logged;
// only listing errors and cancellation abort the pass.
func (r *ReconcileSweep) Run(ctx context.Context) (*SweepResult, error) {
	ids, err := r.customers.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := r.ledger.Reconcile(ctx, id)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				continue
			}
			result.Failed++
			r.log.Warn("reconcile failed", "customer_id", id, "error", err)
			continue
		}

		result.Checked++
		if rec.Consistent {
			continue
		}
		result.Mismatched++
		result.Mismatches = append(result.Mismatches, rec)
		r.metrics.ObserveReconcileMismatch()
		r.log.Error("ledger inconsistency detected",
			"customer_id", rec.CustomerID,
			"expected", rec.Expected,
			"actual", rec.Actual,
			"credits", rec.Credits,
			"debits", rec.Debits,
			"vip_debits", rec.VIPDebits,
		)
	}

	r.log.Info("reconcile sweep complete",
		"customers", len(ids),
		"checked", result.Checked,
		"mismatched", result.Mismatched,
		"failed", result.Failed,
	)
	return result, nil
}

// Job adapts the sweep for the scheduler.
func (r *ReconcileSweep) Job() Job {
	return func(ctx context.Context) error {
		_, err := r.Run(ctx)
		return err
	}
}
