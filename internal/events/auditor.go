package events

import (
	"context"
	"fmt"

	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/kafka"
	"spadesk/pkg/logger"
	"spadesk/pkg/metrics"
	"spadesk/pkg/model"
)

type Reconciler interface {
	Reconcile(ctx context.Context, customerID string) (*model.Reconciliation, error)
}

// AuditHandler reconciles the customer named by each ledger event. A
// mismatch is logged and counted; it is not a processing failure.
func AuditHandler(reconciler Reconciler, log *logger.Logger, m *metrics.Metrics) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		ev, err := Decode(msg)
		if err != nil {
			return err
		}
		if ev.CustomerID == "" {
			return kafka.NewPermanentError("ledger event without customer id", kafka.ErrInvalidMessage)
		}

		result, err := reconciler.Reconcile(ctx, ev.CustomerID)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				log.Info("skipping audit of deleted customer", "customer_id", ev.CustomerID, "event_type", ev.Type)
				return nil
			}
			return kafka.NewTransientError(fmt.Sprintf("reconcile customer %s", ev.CustomerID), err)
		}

		if !result.Consistent {
			m.ObserveReconcileMismatch()
			log.Error("ledger inconsistency detected",
				"customer_id", result.CustomerID,
				"event_type", ev.Type,
				"event_id", ev.ID,
				"expected", result.Expected,
				"actual", result.Actual,
				"credits", result.Credits,
				"debits", result.Debits,
				"vip_debits", result.VIPDebits,
			)
			return nil
		}

		log.Debug("ledger consistent", "customer_id", result.CustomerID, "balance", result.Actual)
		return nil
	}
}
