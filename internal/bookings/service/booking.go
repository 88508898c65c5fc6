package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	bookingserrors "spadesk/internal/bookings/errors"
	"spadesk/internal/bookings/repository"
	"spadesk/internal/bookings/validator"
	"spadesk/internal/events"
	"spadesk/internal/pricing"
	visitsservice "spadesk/internal/visits/service"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/locale"
	"spadesk/pkg/model"
	"spadesk/pkg/sanitizer"
	"spadesk/pkg/validation"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest, operator string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	SearchByDate(ctx context.Context, start, end time.Time) ([]*model.Booking, error)
	Today(ctx context.Context) ([]*model.Booking, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	ChangeStatus(ctx context.Context, id string, change *model.StatusChange) (*model.Booking, error)
	ConfirmPayment(ctx context.Context, id string, payment *model.PaymentConfirmation) (*model.Booking, error)
	SpawnVisit(ctx context.Context, id string, operator string) (*model.Visit, error)
}

type Pricer interface {
	Price(ctx context.Context, req pricing.Request) (*pricing.Priced, error)
}

// AppointmentRecorder keeps the customer's recent appointment list.
type AppointmentRecorder interface {
	RecordAppointment(ctx context.Context, booking *model.Booking) error
}

type VisitSpawner interface {
	CreateFromBooking(ctx context.Context, booking *model.Booking, operator string) (*visitsservice.Checkout, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	pricer       Pricer
	appointments AppointmentRecorder
	visits       VisitSpawner
	validator    *validator.BookingValidator
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	pricer Pricer,
	appointments AppointmentRecorder,
	visits VisitSpawner,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:         repo,
		pricer:       pricer,
		appointments: appointments,
		visits:       visits,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create prices the booking from the catalog and the customer's membership
// on the booking date and snapshots that price. It never touches the
// balance.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest, operator string) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Booking request cannot be nil")
	}
	req.Notes = sanitizer.TrimAndNormalize(req.Notes)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "customer_id", req.CustomerID, "error", err)
		return nil, validation.ToAppError("Invalid booking", err)
	}

	booking := &model.Booking{
		CustomerID:          req.CustomerID,
		ServiceID:           req.ServiceID,
		BookingDate:         req.BookingDate.UTC(),
		Duration:            req.Duration,
		UseSelfOil:          req.UseSelfOil,
		ExtraOilFee:         req.ExtraOilFee,
		AdditionalServiceID: req.AdditionalServiceID,
		Status:              model.BookingStatusPending,
		PaymentStatus:       model.PaymentStatusUnpaid,
		Notes:               req.Notes,
		CreatedBy:           operator,
	}

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.reprice(ctx, booking); err != nil {
			return err
		}
		if err := s.validate(booking); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return s.appointments.RecordAppointment(ctx, booking)
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to create booking", "customer_id", req.CustomerID, "service_id", req.ServiceID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"customer_id", booking.CustomerID,
		"booking_date", booking.BookingDate,
		"total_price", booking.TotalPrice,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) SearchByDate(ctx context.Context, start, end time.Time) ([]*model.Booking, error) {
	if end.Before(start) {
		return nil, apperrors.InvalidInput("end date must not be before start date")
	}

	bookings, err := s.repo.FindByDateRange(ctx, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to search bookings", "start", start, "end", end, "error", err)
		return nil, apperrors.Internal("Failed to search bookings", err)
	}
	return bookings, nil
}

// Today lists the bookings of the current business day.
func (s *bookingService) Today(ctx context.Context) ([]*model.Booking, error) {
	now := s.now().In(s.cfg.Location)
	return s.SearchByDate(ctx, locale.StartOfDay(now), locale.EndOfDay(now))
}

// Update edits an unpaid booking and prices it again.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Booking update cannot be nil")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("Invalid update input", err)
	}

	var merged *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to retrieve booking")
		}
		if existing.IsPaid() {
			return paidConflict(id, "edited")
		}

		merged = mergeBookingUpdates(existing, updates)
		if err := s.reprice(ctx, merged); err != nil {
			return err
		}
		if err := s.validate(merged); err != nil {
			return err
		}

		if err := s.repo.UpdateUnpaid(ctx, id, merged); err != nil {
			if errors.Is(err, bookingserrors.ErrPaid) {
				return paidConflict(id, "edited")
			}
			return translateRepoError(err, id, "Failed to update booking")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id, "total_price", merged.TotalPrice)
	return merged, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateRepoError(err, id, "Failed to retrieve booking")
	}
	if existing.IsPaid() {
		s.cfg.Log.Warn("Refused to delete paid booking", "id", id)
		return paidConflict(id, "deleted")
	}

	if err := s.repo.DeleteUnpaid(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrPaid) {
			return paidConflict(id, "deleted")
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return translateRepoError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// ChangeStatus moves a booking forward through pending, confirmed and
// completed.
func (s *bookingService) ChangeStatus(ctx context.Context, id string, change *model.StatusChange) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if change == nil {
		return nil, apperrors.InvalidInput("Status change cannot be nil")
	}
	change.Status = strings.ToLower(strings.TrimSpace(change.Status))

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id, "Failed to retrieve booking")
	}

	if err := s.validator.ValidateTransition(existing.Status, change.Status); err != nil {
		s.cfg.Log.Warn("Booking status transition rejected", "id", id, "from", existing.Status, "to", change.Status)
		return nil, apperrors.Conflict(fmt.Sprintf("Booking %s cannot move from %s to %s", id, existing.Status, change.Status)).
			WithDetails(validationDetails(err))
	}

	if err := s.repo.UpdateStatus(ctx, id, existing.Status, change.Status); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return nil, apperrors.Conflict(fmt.Sprintf("Booking %s status changed concurrently", id))
		}
		return nil, translateRepoError(err, id, "Failed to update booking status")
	}

	existing.Status = change.Status
	s.cfg.Log.Info("Booking status changed", "id", id, "status", change.Status)
	return existing, nil
}

// ConfirmPayment records how a booking was paid. The balance is not debited
// here; a deposit-paid booking is debited when its visit is created.
func (s *bookingService) ConfirmPayment(ctx context.Context, id string, payment *model.PaymentConfirmation) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if payment == nil {
		return nil, apperrors.InvalidInput("Payment confirmation cannot be nil")
	}
	payment.PaymentMethod = strings.ToLower(strings.TrimSpace(payment.PaymentMethod))

	if err := s.validator.ValidatePayment(payment); err != nil {
		s.cfg.Log.Warn("Payment confirmation validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("Invalid payment confirmation", err)
	}

	paidAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.MarkPaid(ctx, id, payment.PaymentMethod, paidAt); err != nil {
		if errors.Is(err, bookingserrors.ErrPaid) {
			return nil, apperrors.Conflict(fmt.Sprintf("Booking %s is already paid", id))
		}
		return nil, translateRepoError(err, id, "Failed to confirm payment")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id, "Failed to reload booking")
	}

	s.cfg.Log.Info("Booking payment confirmed", "id", id, "payment_method", payment.PaymentMethod)
	return booking, nil
}

// SpawnVisit creates the visit of a paid booking and links it back. A
// booking yields at most one visit.
func (s *bookingService) SpawnVisit(ctx context.Context, id string, operator string) (*model.Visit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var checkout *visitsservice.Checkout
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to retrieve booking")
		}
		if !booking.IsPaid() {
			return apperrors.Conflict(fmt.Sprintf("Booking %s is not paid", id))
		}
		if booking.VisitID != "" {
			return spawnedConflict(id, booking.VisitID)
		}

		checkout, err = s.visits.CreateFromBooking(ctx, booking, operator)
		if err != nil {
			return err
		}

		if err := s.repo.AttachVisit(ctx, id, checkout.Visit.ID); err != nil {
			if errors.Is(err, bookingserrors.ErrVisitAlreadySpawned) {
				return spawnedConflict(id, "")
			}
			return translateRepoError(err, id, "Failed to link visit to booking")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to create visit from booking", "id", id, "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, checkout.Events(operator)...)

	s.cfg.Log.Info("Visit created from booking", "id", id, "visit_id", checkout.Visit.ID, "operator", operator)
	return checkout.Visit, nil
}

// --- Helpers ---

// reprice refreshes the customer, service and price snapshot of booking.
func (s *bookingService) reprice(ctx context.Context, booking *model.Booking) error {
	at := booking.BookingDate
	priced, err := s.pricer.Price(ctx, pricing.Request{
		CustomerID:          booking.CustomerID,
		ServiceID:           booking.ServiceID,
		UseSelfOil:          booking.UseSelfOil,
		ExtraOilFee:         booking.ExtraOilFee,
		AdditionalServiceID: booking.AdditionalServiceID,
		At:                  &at,
	})
	if err != nil {
		return err
	}

	booking.CustomerName = priced.Customer.Name
	booking.CustomerPhone = priced.Customer.Phone
	booking.ServiceName = priced.Service.Name
	if booking.Duration <= 0 {
		booking.Duration = priced.Service.Duration
	}
	booking.MembershipType = priced.Quote.MembershipType
	booking.OriginalPrice = priced.Quote.OriginalPrice
	booking.Price = priced.Quote.FinalPrice
	booking.AdditionalServicePrice = priced.Quote.AddonPrice
	booking.TotalPrice = priced.Quote.TotalPrice
	booking.AdditionalService = ""
	if priced.Addon != nil {
		booking.AdditionalService = priced.Addon.Name
	}
	return nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return validation.ToAppError("Booking validation failed", err)
	}
	return nil
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.ServiceID != nil {
		merged.ServiceID = *updates.ServiceID
		merged.Duration = 0
	}
	if updates.BookingDate != nil {
		merged.BookingDate = updates.BookingDate.UTC()
	}
	if updates.Duration != nil {
		merged.Duration = *updates.Duration
	}
	if updates.UseSelfOil != nil {
		merged.UseSelfOil = *updates.UseSelfOil
	}
	if updates.ExtraOilFee != nil {
		merged.ExtraOilFee = *updates.ExtraOilFee
	}
	if updates.AdditionalServiceID != nil {
		merged.AdditionalServiceID = strings.TrimSpace(*updates.AdditionalServiceID)
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}

	return &merged
}

func paidConflict(id, action string) error {
	return apperrors.Conflict(fmt.Sprintf("Booking %s is paid and cannot be %s", id, action)).
		WithDetails(map[string]any{"booking_id": id, "payment_status": model.PaymentStatusPaid})
}

func spawnedConflict(id, visitID string) error {
	details := map[string]any{"booking_id": id}
	if visitID != "" {
		details["visit_id"] = visitID
	}
	return apperrors.Conflict(fmt.Sprintf("Booking %s already has a visit", id)).WithDetails(details)
}

func validationDetails(err error) map[string]any {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Details()
	}
	return nil
}

func translateRepoError(err error, id string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal(message, err)
	}
}
