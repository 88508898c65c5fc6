package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"spadesk/internal/events"
	"spadesk/internal/pricing"
	visitserrors "spadesk/internal/visits/errors"
	"spadesk/internal/visits/repository"
	"spadesk/internal/visits/validator"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/locale"
	"spadesk/pkg/model"
	"spadesk/pkg/sanitizer"
	"spadesk/pkg/validation"
)

const maxSearchResults = 500

type VisitService interface {
	Create(ctx context.Context, req *model.VisitRequest, operator string) (*model.Visit, error)
	CreateFromBooking(ctx context.Context, booking *model.Booking, operator string) (*Checkout, error)
	GetByID(ctx context.Context, id string) (*model.Visit, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error)
	ByCustomer(ctx context.Context, customerID string) ([]*model.Visit, error)
	Search(ctx context.Context, start, end *time.Time, term string) ([]*model.Visit, error)
	Update(ctx context.Context, id string, updates *model.VisitUpdate, operator string) (*model.Visit, error)
	Delete(ctx context.Context, id string, operator string) error
	Stats(ctx context.Context) (*model.VisitStats, error)
	CustomerStats(ctx context.Context, customerID string) (*model.CustomerVisitStats, error)
}

type Pricer interface {
	Price(ctx context.Context, req pricing.Request) (*pricing.Priced, error)
}

type CustomerRecorder interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	RecordVisit(ctx context.Context, visit *model.Visit) (bool, error)
}

type Ledger interface {
	DebitForVisit(ctx context.Context, visit *model.Visit) (*model.BalanceUsageRecord, error)
	RefundVisit(ctx context.Context, visit *model.Visit) (int64, error)
}

// Checkout is a stored visit and the balance usage it produced, if any.
type Checkout struct {
	Visit *model.Visit
	Usage *model.BalanceUsageRecord
}

// Events lists what a committed checkout announces.
func (c *Checkout) Events(operator string) []events.Event {
	out := make([]events.Event, 0, 2)
	if c.Usage != nil {
		out = append(out, events.New(events.BalanceDebited, c.Visit.CustomerID, c.Visit.ID, c.Usage.Amount).
			WithBalance(c.Usage.BalanceAfter).
			WithOperator(operator))
	}
	out = append(out, events.New(events.VisitCreated, c.Visit.CustomerID, c.Visit.ID, c.Visit.Charge()).
		WithOperator(operator))
	return out
}

type visitService struct {
	repo      repository.VisitRepository
	pricer    Pricer
	customers CustomerRecorder
	ledger    Ledger
	validator *validator.VisitValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewVisitService(
	repo repository.VisitRepository,
	pricer Pricer,
	customers CustomerRecorder,
	ledger Ledger,
	validator *validator.VisitValidator,
	publisher events.Publisher,
	cfg *config.Config,
) VisitService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &visitService{
		repo:      repo,
		pricer:    pricer,
		customers: customers,
		ledger:    ledger,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create checks a customer out. The visit, its balance debit and the
// customer's statistics are written in one transaction, so an insufficient
// balance leaves nothing behind.
func (s *visitService) Create(ctx context.Context, req *model.VisitRequest, operator string) (*model.Visit, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Visit request cannot be nil")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.Notes = sanitizer.TrimAndNormalize(req.Notes)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Visit validation failed", "customer_id", req.CustomerID, "error", err)
		return nil, validation.ToAppError("Invalid visit", err)
	}

	var checkout *Checkout
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		visit, err := s.buildFromRequest(ctx, req, operator)
		if err != nil {
			return err
		}
		checkout, err = s.checkout(ctx, visit)
		return err
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to create visit", "customer_id", req.CustomerID, "payment_method", req.PaymentMethod, "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, checkout.Events(operator)...)

	s.cfg.Log.Info("Visit created successfully",
		"id", checkout.Visit.ID,
		"customer_id", checkout.Visit.CustomerID,
		"final_price", checkout.Visit.FinalPrice,
		"payment_method", checkout.Visit.PaymentMethod,
		"operator", operator,
	)
	return checkout.Visit, nil
}

// CreateFromBooking turns a paid booking into a visit carrying the booking's
// price snapshot. It joins the caller's transaction and leaves publishing to
// the caller.
func (s *visitService) CreateFromBooking(ctx context.Context, booking *model.Booking, operator string) (*Checkout, error) {
	if !booking.IsPaid() {
		return nil, apperrors.Conflict("Only paid bookings can be turned into visits")
	}

	method := booking.PaymentMethod
	if method == "" {
		method = model.PaymentCash
	}
	duration := booking.Duration
	if duration <= 0 {
		duration = model.DefaultVisitDuration
	}

	visit := &model.Visit{
		CustomerID:             booking.CustomerID,
		CustomerName:           booking.CustomerName,
		ServiceID:              booking.ServiceID,
		ServiceName:            booking.ServiceName,
		VisitDate:              booking.BookingDate,
		Duration:               duration,
		OriginalPrice:          booking.OriginalPrice,
		FinalPrice:             booking.Price,
		MembershipType:         booking.MembershipType,
		Discount:               pricing.Discount(booking.OriginalPrice, booking.Price),
		UseSelfOil:             booking.UseSelfOil,
		ExtraOilFee:            booking.ExtraOilFee,
		AdditionalService:      booking.AdditionalService,
		AdditionalServicePrice: booking.AdditionalServicePrice,
		PaymentMethod:          method,
		PaymentStatus:          model.PaymentStatusPaid,
		BookingID:              booking.ID,
		Notes:                  booking.Notes,
		Operator:               operator,
	}

	var checkout *Checkout
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		checkout, err = s.checkout(ctx, visit)
		return err
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to create visit from booking", "booking_id", booking.ID, "error", err)
		return nil, err
	}
	return checkout, nil
}

// checkout stores visit, debits the balance when it is paid by deposit and
// records it against the customer. It must run inside a transaction.
func (s *visitService) checkout(ctx context.Context, visit *model.Visit) (*Checkout, error) {
	if err := s.validator.Validate(visit); err != nil {
		return nil, validation.ToAppError("Invalid visit", err)
	}

	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, apperrors.Internal("Failed to create visit", err)
	}

	result := &Checkout{Visit: visit}
	if visit.PaidByDeposit() {
		usage, err := s.ledger.DebitForVisit(ctx, visit)
		if err != nil {
			return nil, err
		}
		result.Usage = usage
	}

	if _, err := s.customers.RecordVisit(ctx, visit); err != nil {
		return nil, err
	}
	return result, nil
}

// buildFromRequest prices the request at the visit date. Price overrides in
// the request win over the quote; membership is always the customer's level
// at the visit date.
func (s *visitService) buildFromRequest(ctx context.Context, req *model.VisitRequest, operator string) (*model.Visit, error) {
	visitDate := s.now().UTC().Truncate(time.Millisecond)
	if req.VisitDate != nil {
		visitDate = req.VisitDate.UTC()
	}

	priced, err := s.pricer.Price(ctx, pricing.Request{
		CustomerID:          req.CustomerID,
		ServiceID:           req.ServiceID,
		UseSelfOil:          req.UseSelfOil,
		ExtraOilFee:         req.ExtraOilFee,
		AdditionalServiceID: req.AdditionalServiceID,
		At:                  &visitDate,
	})
	if err != nil {
		return nil, err
	}

	original, final := priced.Quote.OriginalPrice, priced.Quote.FinalPrice
	if req.FinalPrice != nil {
		final = *req.FinalPrice
		if req.OriginalPrice != nil {
			original = *req.OriginalPrice
		}
	}

	duration := req.Duration
	if duration <= 0 {
		duration = priced.Service.Duration
	}
	if duration <= 0 {
		duration = model.DefaultVisitDuration
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentCash
	}
	status := req.PaymentStatus
	if status == "" {
		status = model.PaymentStatusUnpaid
	}

	visit := &model.Visit{
		CustomerID:     priced.Customer.ID,
		CustomerName:   priced.Customer.Name,
		ServiceID:      priced.Service.ID,
		ServiceName:    priced.Service.Name,
		VisitDate:      visitDate,
		Duration:       duration,
		OriginalPrice:  original,
		FinalPrice:     final,
		MembershipType: priced.Quote.MembershipType,
		Discount:       pricing.Discount(original, final),
		UseSelfOil:     req.UseSelfOil,
		ExtraOilFee:    req.ExtraOilFee,
		PaymentMethod:  method,
		PaymentStatus:  status,
		BookingID:      req.BookingID,
		Notes:          req.Notes,
		Operator:       operator,
	}
	if priced.Addon != nil {
		visit.AdditionalService = priced.Addon.Name
		visit.AdditionalServicePrice = priced.Quote.AddonPrice
	}
	return visit, nil
}

func (s *visitService) GetByID(ctx context.Context, id string) (*model.Visit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Visit ID cannot be empty")
	}

	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id, "Failed to retrieve visit")
	}
	return visit, nil
}

func (s *visitService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var visits []*model.Visit
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count visits", "error", errCount)
			errCount = apperrors.Internal("Failed to count visits", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		visits, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list visits", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve visits", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return visits, count, nil
}

func (s *visitService) ByCustomer(ctx context.Context, customerID string) ([]*model.Visit, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	visits, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list customer visits", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve customer visits", err)
	}
	return visits, nil
}

func (s *visitService) Search(ctx context.Context, start, end *time.Time, term string) ([]*model.Visit, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperrors.InvalidInput("end date must not be before start date")
	}

	filter := repository.Filter{
		Start: start,
		End:   end,
		Term:  sanitizer.TrimAndNormalize(term),
		Limit: maxSearchResults,
	}
	visits, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to search visits", "term", filter.Term, "error", err)
		return nil, apperrors.Internal("Failed to search visits", err)
	}
	return visits, nil
}

// Update edits a visit. When the charge or the payment method changes, a
// deposit-paid visit is refunded and a visit now paid by deposit is debited
// again, both in the transaction that saves the edit.
func (s *visitService) Update(ctx context.Context, id string, updates *model.VisitUpdate, operator string) (*model.Visit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Visit ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Visit update cannot be nil")
	}
	if updates.PaymentMethod != nil {
		method := strings.ToLower(strings.TrimSpace(*updates.PaymentMethod))
		updates.PaymentMethod = &method
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Visit update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("Invalid update input", err)
	}

	var existing, merged *model.Visit
	var refunded *int64
	var usage *model.BalanceUsageRecord

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		existing, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to retrieve visit")
		}

		merged = mergeVisitUpdates(existing, updates)
		merged.Operator = operator
		if err := s.validator.Validate(merged); err != nil {
			return validation.ToAppError("Invalid visit", err)
		}

		if settlementChanged(existing, merged) {
			if existing.PaidByDeposit() {
				balance, err := s.ledger.RefundVisit(ctx, existing)
				if err != nil {
					return err
				}
				refunded = &balance
			}
			if merged.PaidByDeposit() {
				if usage, err = s.ledger.DebitForVisit(ctx, merged); err != nil {
					return err
				}
			}
		}

		if err := s.repo.Update(ctx, merged); err != nil {
			return translateRepoError(err, id, "Failed to update visit")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to update visit", "id", id, "error", err)
		return nil, err
	}

	var out []events.Event
	if refunded != nil {
		out = append(out, events.New(events.BalanceRefunded, existing.CustomerID, id, existing.Charge()).
			WithBalance(*refunded).
			WithOperator(operator))
	}
	if usage != nil {
		out = append(out, events.New(events.BalanceDebited, merged.CustomerID, id, usage.Amount).
			WithBalance(usage.BalanceAfter).
			WithOperator(operator))
	}
	s.publisher.Publish(ctx, out...)

	s.cfg.Log.Info("Visit updated successfully", "id", id, "final_price", merged.FinalPrice, "payment_method", merged.PaymentMethod, "operator", operator)
	return merged, nil
}

// Delete removes a visit and refunds it when it was paid by deposit. Customer
// statistics keep the visit.
func (s *visitService) Delete(ctx context.Context, id string, operator string) error {
	if id == "" {
		return apperrors.InvalidInput("Visit ID cannot be empty")
	}

	var visit *model.Visit
	var refunded *int64

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		visit, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to retrieve visit")
		}

		if visit.PaidByDeposit() {
			balance, err := s.ledger.RefundVisit(ctx, visit)
			if err != nil {
				return err
			}
			refunded = &balance
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return translateRepoError(err, id, "Failed to delete visit")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to delete visit", "id", id, "error", err)
		return err
	}

	var out []events.Event
	if refunded != nil {
		out = append(out, events.New(events.BalanceRefunded, visit.CustomerID, id, visit.Charge()).
			WithBalance(*refunded).
			WithOperator(operator))
	}
	out = append(out, events.New(events.VisitDeleted, visit.CustomerID, id, visit.Charge()).WithOperator(operator))
	s.publisher.Publish(ctx, out...)

	s.cfg.Log.Info("Visit deleted successfully", "id", id, "customer_id", visit.CustomerID, "refunded", refunded != nil, "operator", operator)
	return nil
}

// Stats summarizes all visits, today's and this month's, with days and months
// taken in the business time zone.
func (s *visitService) Stats(ctx context.Context) (*model.VisitStats, error) {
	now := s.now().In(s.cfg.Location)
	dayStart, dayEnd := locale.StartOfDay(now), locale.EndOfDay(now)
	monthStart := locale.StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	all, err := s.repo.Summarize(ctx, nil, nil)
	if err != nil {
		return nil, s.statsError(err)
	}
	today, err := s.repo.Summarize(ctx, &dayStart, &dayEnd)
	if err != nil {
		return nil, s.statsError(err)
	}
	month, err := s.repo.Summarize(ctx, &monthStart, &monthEnd)
	if err != nil {
		return nil, s.statsError(err)
	}

	return DashboardStats(all, today, month), nil
}

func (s *visitService) statsError(err error) error {
	s.cfg.Log.Error("Failed to summarize visits", "error", err)
	return apperrors.Internal("Failed to compute visit statistics", err)
}

func (s *visitService) CustomerStats(ctx context.Context, customerID string) (*model.CustomerVisitStats, error) {
	visits, err := s.ByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return CustomerStats(customerID, visits), nil
}

// --- Helpers ---

func settlementChanged(before, after *model.Visit) bool {
	return before.PaymentMethod != after.PaymentMethod || before.Charge() != after.Charge()
}

func mergeVisitUpdates(existing *model.Visit, updates *model.VisitUpdate) *model.Visit {
	merged := *existing

	if updates.VisitDate != nil {
		merged.VisitDate = updates.VisitDate.UTC()
	}
	if updates.Duration != nil {
		merged.Duration = *updates.Duration
	}
	if updates.FinalPrice != nil {
		merged.FinalPrice = *updates.FinalPrice
		merged.Discount = pricing.Discount(merged.OriginalPrice, merged.FinalPrice)
	}
	if updates.PaymentMethod != nil {
		merged.PaymentMethod = *updates.PaymentMethod
	}
	if updates.PaymentStatus != nil {
		merged.PaymentStatus = *updates.PaymentStatus
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}

	return &merged
}

func translateRepoError(err error, id string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, visitserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Visit", id)
	case errors.Is(err, visitserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid visit ID format")
	default:
		return apperrors.Internal(message, err)
	}
}
