package service

import (
	"context"
	"errors"
	"fmt"
	customerserrors "spadesk/internal/customers/errors"
	"spadesk/internal/customers/repository"
	"spadesk/internal/customers/validator"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/model"
	"spadesk/pkg/sanitizer"
	"spadesk/pkg/validation"
	"sync"
	"time"
)

const maxSearchResults = 50

type CustomerService interface {
	Create(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, int64, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Customer, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, updates *model.CustomerUpdate) error
	Delete(ctx context.Context, id string) error
	ApproveVIP(ctx context.Context, id string, operator string) (*model.Customer, error)
	GrantVIP(ctx context.Context, id string, grant model.VIPGrant) error
	RecordVisit(ctx context.Context, visit *model.Visit) (bool, error)
	RecordAppointment(ctx context.Context, booking *model.Booking) error
}

// VisitCounter reports how many visits reference a customer.
type VisitCounter interface {
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
}

type customerService struct {
	repo      repository.CustomerRepository
	visits    VisitCounter
	validator *validator.CustomerValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewCustomerService(
	repo repository.CustomerRepository,
	visits VisitCounter,
	validator *validator.CustomerValidator,
	cfg *config.Config,
) CustomerService {
	return &customerService{
		repo:      repo,
		visits:    visits,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create registers a new customer. Ledger and statistics fields always start
// at zero, whatever the caller sent.
func (s *customerService) Create(ctx context.Context, customer *model.Customer) error {
	s.resetManagedFields(customer)
	if err := s.sanitize(customer); err != nil {
		return err
	}
	if err := s.validate(customer); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensurePhoneAvailable(ctx, customer.Phone, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, customer); err != nil {
			if errors.Is(err, customerserrors.ErrDuplicatePhone) {
				return apperrors.Conflict(fmt.Sprintf("Phone %s is already registered", customer.Phone))
			}
			return apperrors.Internal("Failed to create customer", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create customer", "phone", customer.Phone, "error", err)
		return err
	}

	s.cfg.Log.Info("Customer created successfully", "id", customer.ID, "phone", customer.Phone)
	return nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id, "Failed to retrieve customer")
	}
	return customer, nil
}

func (s *customerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var customers []*model.Customer
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count customers", "error", errCount)
			errCount = apperrors.Internal("Failed to count customers", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		customers, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list customers", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve customers", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return customers, count, nil
}

// Search looks the term up in names, emails and phones. A term that parses as
// a phone number is also matched in its E.164 form.
func (s *customerService) Search(ctx context.Context, term string, limit int) ([]*model.Customer, error) {
	term = sanitizer.TrimAndNormalize(term)
	if term == "" {
		return nil, apperrors.InvalidInput("Search term cannot be empty")
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	if phone := sanitizer.NormalizePhone(term, s.cfg.PhoneRegion); phone != "" {
		term = phone
	}

	customers, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to search customers", "term", term, "error", err)
		return nil, apperrors.Internal("Failed to search customers", err)
	}

	s.cfg.Log.Debug("Customer search completed", "term", term, "count", len(customers))
	return customers, nil
}

func (s *customerService) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list customers", err)
	}
	return ids, nil
}

func (s *customerService) Update(ctx context.Context, id string, updates *model.CustomerUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Customer ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Customer update validation failed", "id", id, "error", err)
		return validation.ToAppError("Invalid update input", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to check customer existence")
		}

		merged := mergeCustomerUpdates(existing, updates)
		if err := s.sanitize(merged); err != nil {
			return err
		}
		if err := s.validate(merged); err != nil {
			return err
		}
		if merged.Phone != existing.Phone {
			if err := s.ensurePhoneAvailable(ctx, merged.Phone, id); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateProfile(ctx, id, merged); err != nil {
			if errors.Is(err, customerserrors.ErrDuplicatePhone) {
				return apperrors.Conflict(fmt.Sprintf("Phone %s is already registered", merged.Phone))
			}
			return translateRepoError(err, id, "Failed to update customer")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update customer", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Customer updated successfully", "id", id)
	return nil
}

// Delete removes a customer that no visit references.
func (s *customerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Customer ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		visits, err := s.visits.CountByCustomer(ctx, id)
		if err != nil {
			return apperrors.Internal("Failed to count customer visits", err)
		}
		if visits > 0 {
			return apperrors.Conflict(fmt.Sprintf("Customer %s has %d visit(s) and cannot be deleted", id, visits))
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return translateRepoError(err, id, "Failed to delete customer")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to delete customer", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Customer deleted successfully", "id", id)
	return nil
}

// ApproveVIP grants a VIP period starting now. Eligibility is advisory; an
// operator may approve any customer whose VIP period is not running.
func (s *customerService) ApproveVIP(ctx context.Context, id string, operator string) (*model.Customer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	var approved *model.Customer
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to retrieve customer")
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		if customer.IsActiveVIP(now) {
			return apperrors.AlreadyVIP(id, customer.VIPEndDate)
		}

		grant := model.VIPGrant{
			StartDate:  now,
			EndDate:    now.AddDate(0, s.cfg.Policy.VIPValidityMonths, 0),
			ApprovedBy: operator,
		}
		if err := s.GrantVIP(ctx, id, grant); err != nil {
			return err
		}

		approved, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err, id, "Failed to reload customer")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("VIP approval failed", "id", id, "operator", operator, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("VIP approved", "id", id, "operator", operator, "vip_end_date", approved.VIPEndDate)
	return approved, nil
}

func (s *customerService) GrantVIP(ctx context.Context, id string, grant model.VIPGrant) error {
	if err := s.repo.SetVIP(ctx, id, grant); err != nil {
		return translateRepoError(err, id, "Failed to grant VIP")
	}
	return nil
}

// RecordVisit applies a new visit to the customer's statistics and reports
// whether it made the customer VIP-eligible. Callers run it inside the
// transaction that creates the visit.
func (s *customerService) RecordVisit(ctx context.Context, visit *model.Visit) (bool, error) {
	customer, err := s.repo.FindByID(ctx, visit.CustomerID)
	if err != nil {
		return false, translateRepoError(err, visit.CustomerID, "Failed to retrieve customer")
	}

	eligible := ApplyVisit(customer, visit, s.now(), s.cfg.Location, s.cfg.Policy)

	if err := s.repo.SaveStats(ctx, customer); err != nil {
		return false, translateRepoError(err, visit.CustomerID, "Failed to update customer statistics")
	}

	if eligible {
		s.cfg.Log.Info("Customer became VIP eligible",
			"id", customer.ID,
			"year", customer.CurrentYearStats.Year,
			"visit_count", customer.CurrentYearStats.VisitCount,
		)
	}
	return eligible, nil
}

// RecordAppointment adds booking to the customer's recent appointments.
// Callers run it inside the transaction that creates the booking.
func (s *customerService) RecordAppointment(ctx context.Context, booking *model.Booking) error {
	customer, err := s.repo.FindByID(ctx, booking.CustomerID)
	if err != nil {
		return translateRepoError(err, booking.CustomerID, "Failed to retrieve customer")
	}

	ApplyAppointment(customer, booking, s.now(), s.cfg.Policy)

	if err := s.repo.SaveAppointments(ctx, customer); err != nil {
		return translateRepoError(err, booking.CustomerID, "Failed to record appointment")
	}
	return nil
}

// --- Helpers ---

func (s *customerService) resetManagedFields(c *model.Customer) {
	*c = model.Customer{
		Name:               c.Name,
		Phone:              c.Phone,
		Email:              c.Email,
		Notes:              c.Notes,
		MembershipLevel:    model.MembershipRegular,
		CurrentYearStats:   model.YearStats{Year: s.now().In(s.cfg.Location).Year()},
		RecentVisits:       []model.RecentVisit{},
		RecentAppointments: []model.RecentAppointment{},
	}
}

func (s *customerService) sanitize(c *model.Customer) error {
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Email = sanitizer.NormalizeEmail(c.Email)
	c.Notes = sanitizer.TrimAndNormalize(c.Notes)

	phone := sanitizer.NormalizePhone(c.Phone, s.cfg.PhoneRegion)
	if phone == "" {
		s.cfg.Log.Warn("Customer phone could not be normalized", "phone", c.Phone)
		return apperrors.Validation("Customer validation failed", map[string]any{
			"Phone": fmt.Sprintf("%q is not a valid phone number", c.Phone),
		})
	}
	c.Phone = phone
	return nil
}

func (s *customerService) validate(c *model.Customer) error {
	if err := s.validator.Validate(c); err != nil {
		s.cfg.Log.Warn("Customer validation failed", "error", err)
		return validation.ToAppError("Customer validation failed", err)
	}
	return nil
}

func (s *customerService) ensurePhoneAvailable(ctx context.Context, phone string, selfID string) error {
	existing, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, customerserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check phone uniqueness", err)
	}
	if existing.ID != selfID {
		return apperrors.Conflict(fmt.Sprintf("Phone %s is already registered", phone)).
			WithDetails(map[string]any{"customer_id": existing.ID})
	}
	return nil
}

func mergeCustomerUpdates(existing *model.Customer, updates *model.CustomerUpdate) *model.Customer {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.Email != nil {
		merged.Email = *updates.Email
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}

	return &merged
}

func translateRepoError(err error, id string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, customerserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Customer", id)
	case errors.Is(err, customerserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid customer ID format")
	default:
		return apperrors.Internal(message, err)
	}
}
