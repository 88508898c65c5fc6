package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spadesk/internal/events"
	ledgererrors "spadesk/internal/ledger/errors"
	"spadesk/internal/ledger/repository"
	"spadesk/internal/ledger/validator"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/metrics"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/google/uuid"
)

const (
	OperationDeposit     = "deposit"
	OperationDebit       = "debit"
	OperationRefund      = "refund"
	OperationVIPPurchase = "vip_purchase"
)

type LedgerService interface {
	Deposit(ctx context.Context, customerID string, req *model.DepositRequest, operator string) (*model.DepositRecord, error)
	DebitForVisit(ctx context.Context, visit *model.Visit) (*model.BalanceUsageRecord, error)
	RefundVisit(ctx context.Context, visit *model.Visit) (int64, error)
	PurchaseVIP(ctx context.Context, customerID string, req *model.VIPPurchaseRequest, operator string) (*model.VIPPurchase, error)
	VerifyDepositSignature(ctx context.Context, depositID string, operator string) (*model.DepositRecord, error)
	ListDeposits(ctx context.Context, customerID string) ([]*model.DepositRecord, error)
	ListUsage(ctx context.Context, customerID string) ([]*model.BalanceUsageRecord, error)
	Reconcile(ctx context.Context, customerID string) (*model.Reconciliation, error)
}

// CustomerDirectory is the part of the customer service the ledger needs.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	GrantVIP(ctx context.Context, id string, grant model.VIPGrant) error
}

type ledgerService struct {
	repo      repository.LedgerRepository
	customers CustomerDirectory
	validator *validator.LedgerValidator
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       *config.Config
	now       func() time.Time
}

func NewLedgerService(
	repo repository.LedgerRepository,
	customers CustomerDirectory,
	validator *validator.LedgerValidator,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
) LedgerService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ledgerService{
		repo:      repo,
		customers: customers,
		validator: validator,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Deposit tops up a customer's balance by amount plus bonus and files a
// receipt. Balance and record are written in one transaction.
func (s *ledgerService) Deposit(ctx context.Context, customerID string, req *model.DepositRequest, operator string) (*model.DepositRecord, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Deposit request cannot be nil")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.Notes = strings.TrimSpace(req.Notes)

	if err := s.validator.ValidateDeposit(req, s.cfg.Policy.MinDepositAmount); err != nil {
		s.cfg.Log.Warn("Deposit validation failed", "customer_id", customerID, "error", err)
		return nil, validation.ToAppError("Invalid deposit", err)
	}

	total := req.Amount + req.BonusAmount
	var record *model.DepositRecord

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}

		before, after, err := s.repo.Deposit(ctx, customerID, total)
		if err != nil {
			return translateRepoError(err, customerID, "Failed to credit deposit")
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		record = &model.DepositRecord{
			CustomerID:      customerID,
			CustomerName:    customer.Name,
			Amount:          req.Amount,
			BonusAmount:     req.BonusAmount,
			TotalAmount:     total,
			PaymentMethod:   req.PaymentMethod,
			PreviousBalance: before,
			NewBalance:      after,
			ReceiptNumber:   ReceiptNumber(now),
			Operator:        operator,
			Notes:           req.Notes,
			CreatedAt:       now,
		}
		if err := s.repo.InsertDeposit(ctx, record); err != nil {
			return translateRepoError(err, customerID, "Failed to record deposit")
		}
		return nil
	})
	s.metrics.ObserveLedger(OperationDeposit, total, err)
	if err != nil {
		s.cfg.Log.Warn("Deposit failed", "customer_id", customerID, "amount", req.Amount, "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, events.New(events.DepositCreated, customerID, record.ID, total).
		WithBalance(record.NewBalance).
		WithOperator(operator))

	s.cfg.Log.Info("Deposit recorded",
		"customer_id", customerID,
		"deposit_id", record.ID,
		"receipt_number", record.ReceiptNumber,
		"amount", req.Amount,
		"bonus", req.BonusAmount,
		"new_balance", record.NewBalance,
		"operator", operator,
	)
	return record, nil
}

// DebitForVisit takes the visit's charge from the customer's balance and
// files a usage record. It joins the caller's transaction when there is one;
// publishing is left to the caller once that transaction commits.
func (s *ledgerService) DebitForVisit(ctx context.Context, visit *model.Visit) (*model.BalanceUsageRecord, error) {
	amount := visit.Charge()
	var usage *model.BalanceUsageRecord

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		before, after, err := s.repo.Debit(ctx, visit.CustomerID, amount)
		if err != nil {
			return translateRepoError(err, visit.CustomerID, "Failed to debit balance")
		}

		usage = &model.BalanceUsageRecord{
			CustomerID:    visit.CustomerID,
			VisitID:       visit.ID,
			ServiceName:   visit.ServiceName,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  after,
		}
		if err := s.repo.InsertUsage(ctx, usage); err != nil {
			return translateRepoError(err, visit.CustomerID, "Failed to record balance usage")
		}
		return nil
	})
	s.metrics.ObserveLedger(OperationDebit, amount, err)
	if err != nil {
		s.cfg.Log.Warn("Balance debit failed", "customer_id", visit.CustomerID, "visit_id", visit.ID, "amount", amount, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Balance debited",
		"customer_id", visit.CustomerID,
		"visit_id", visit.ID,
		"amount", amount,
		"balance_after", usage.BalanceAfter,
	)
	return usage, nil
}

// RefundVisit credits back the charge of a deposit-paid visit and marks its
// usage records reversed. It returns the balance after the credit.
func (s *ledgerService) RefundVisit(ctx context.Context, visit *model.Visit) (int64, error) {
	amount := visit.Charge()
	var balance int64

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		_, after, err := s.repo.Credit(ctx, visit.CustomerID, amount)
		if err != nil {
			return translateRepoError(err, visit.CustomerID, "Failed to refund balance")
		}
		balance = after

		reversed, err := s.repo.ReverseUsage(ctx, visit.CustomerID, visit.ID, s.now().UTC().Truncate(time.Millisecond))
		if err != nil {
			return translateRepoError(err, visit.CustomerID, "Failed to reverse balance usage")
		}
		if reversed == 0 {
			s.cfg.Log.Warn("Refund without matching usage record", "customer_id", visit.CustomerID, "visit_id", visit.ID)
		}
		return nil
	})
	s.metrics.ObserveLedger(OperationRefund, amount, err)
	if err != nil {
		s.cfg.Log.Error("Balance refund failed", "customer_id", visit.CustomerID, "visit_id", visit.ID, "amount", amount, "error", err)
		return 0, err
	}

	s.cfg.Log.Info("Balance refunded",
		"customer_id", visit.CustomerID,
		"visit_id", visit.ID,
		"amount", amount,
		"balance_after", balance,
	)
	return balance, nil
}

// PurchaseVIP sells a VIP period at the configured price. Paying by deposit
// debits the balance in the same transaction that grants the membership.
func (s *ledgerService) PurchaseVIP(ctx context.Context, customerID string, req *model.VIPPurchaseRequest, operator string) (*model.VIPPurchase, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("VIP purchase request cannot be nil")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))

	if err := s.validator.ValidateVIPPurchase(req); err != nil {
		s.cfg.Log.Warn("VIP purchase validation failed", "customer_id", customerID, "error", err)
		return nil, validation.ToAppError("Invalid VIP purchase", err)
	}

	price := s.cfg.Policy.VIPPrice
	var purchase *model.VIPPurchase

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		if customer.IsActiveVIP(now) {
			return apperrors.AlreadyVIP(customerID, customer.VIPEndDate)
		}

		before, after := customer.Balance, customer.Balance
		if req.PaymentMethod == model.PaymentDeposit {
			before, after, err = s.repo.Debit(ctx, customerID, price)
			if err != nil {
				return translateRepoError(err, customerID, "Failed to debit VIP purchase")
			}
		}

		grant := model.VIPGrant{
			StartDate:  now,
			EndDate:    now.AddDate(0, s.cfg.Policy.VIPValidityMonths, 0),
			ApprovedBy: operator,
		}
		if err := s.customers.GrantVIP(ctx, customerID, grant); err != nil {
			return err
		}

		purchase = &model.VIPPurchase{
			CustomerID:    customerID,
			Amount:        price,
			PaymentMethod: req.PaymentMethod,
			BalanceBefore: before,
			BalanceAfter:  after,
			VIPStartDate:  grant.StartDate,
			VIPEndDate:    grant.EndDate,
			Operator:      operator,
			CreatedAt:     now,
		}
		if err := s.repo.InsertVIPPurchase(ctx, purchase); err != nil {
			return translateRepoError(err, customerID, "Failed to record VIP purchase")
		}
		return nil
	})
	s.metrics.ObserveLedger(OperationVIPPurchase, price, err)
	if err != nil {
		s.cfg.Log.Warn("VIP purchase failed", "customer_id", customerID, "payment_method", req.PaymentMethod, "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, events.New(events.VIPPurchased, customerID, purchase.ID, price).
		WithBalance(purchase.BalanceAfter).
		WithOperator(operator))

	s.cfg.Log.Info("VIP purchased",
		"customer_id", customerID,
		"purchase_id", purchase.ID,
		"payment_method", purchase.PaymentMethod,
		"vip_end_date", purchase.VIPEndDate,
		"operator", operator,
	)
	return purchase, nil
}

func (s *ledgerService) VerifyDepositSignature(ctx context.Context, depositID string, operator string) (*model.DepositRecord, error) {
	if depositID == "" {
		return nil, apperrors.InvalidInput("Deposit ID cannot be empty")
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.VerifyDeposit(ctx, depositID, operator, now); err != nil {
		if errors.Is(err, ledgererrors.ErrAlreadyVerified) {
			return nil, apperrors.Conflict("Deposit signature already verified").
				WithDetails(map[string]any{"deposit_id": depositID})
		}
		return nil, translateDepositError(err, depositID)
	}

	record, err := s.repo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, translateDepositError(err, depositID)
	}

	s.cfg.Log.Info("Deposit signature verified", "deposit_id", depositID, "operator", operator)
	return record, nil
}

func (s *ledgerService) ListDeposits(ctx context.Context, customerID string) ([]*model.DepositRecord, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListDeposits(ctx, customerID)
	if err != nil {
		s.cfg.Log.Error("failed to list deposit records", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to list deposit records", err)
	}
	return records, nil
}

func (s *ledgerService) ListUsage(ctx context.Context, customerID string) ([]*model.BalanceUsageRecord, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListUsage(ctx, customerID)
	if err != nil {
		s.cfg.Log.Error("failed to list balance usage records", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to list balance usage records", err)
	}
	return records, nil
}

// Reconcile recomputes a balance from the ledger: deposits credited, minus
// visit debits still standing, minus VIP purchases paid from the balance.
// The reads share one snapshot.
func (s *ledgerService) Reconcile(ctx context.Context, customerID string) (*model.Reconciliation, error) {
	var result *model.Reconciliation

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}

		totals, err := s.repo.Totals(ctx, customerID)
		if err != nil {
			return translateRepoError(err, customerID, "Failed to total ledger")
		}

		expected := totals.Credits - totals.Debits - totals.VIPDebits
		result = &model.Reconciliation{
			CustomerID: customerID,
			Credits:    totals.Credits,
			Debits:     totals.Debits,
			VIPDebits:  totals.VIPDebits,
			Expected:   expected,
			Actual:     customer.Balance,
			Consistent: expected == customer.Balance,
			CheckedAt:  s.now().UTC().Truncate(time.Millisecond),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Consistent {
		s.metrics.ObserveReconcileMismatch()
		s.cfg.Log.Error("Ledger mismatch",
			"customer_id", customerID,
			"expected", result.Expected,
			"actual", result.Actual,
		)
	}
	return result, nil
}

// ReceiptNumber is "DEP", the last eight digits of the epoch milliseconds,
// and six random hex digits.
func ReceiptNumber(at time.Time) string {
	millis := fmt.Sprintf("%08d", at.UnixMilli()%100_000_000)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "DEP" + millis + "-" + strings.ToUpper(suffix)
}

func translateRepoError(err error, customerID string, message string) error {
	var insufficient *ledgererrors.InsufficientBalanceError
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.As(err, &insufficient):
		return apperrors.InsufficientBalance(insufficient.Current, insufficient.Required)
	case errors.Is(err, ledgererrors.ErrCustomerNotFound):
		return apperrors.NotFoundWithID("Customer", customerID)
	case errors.Is(err, ledgererrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid customer ID format")
	default:
		return apperrors.Internal(message, err)
	}
}

func translateDepositError(err error, depositID string) error {
	switch {
	case errors.Is(err, ledgererrors.ErrNotFound):
		return apperrors.NotFoundWithID("Deposit record", depositID)
	case errors.Is(err, ledgererrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid deposit ID format")
	default:
		return apperrors.Internal("Failed to verify deposit signature", err)
	}
}
