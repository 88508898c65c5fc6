package service

import (
	"context"
	"testing"
	"time"

	"spadesk/internal/bookings/validator"
	catalogservice "spadesk/internal/catalog/service"
	catalogvalidator "spadesk/internal/catalog/validator"
	customersservice "spadesk/internal/customers/service"
	customersvalidator "spadesk/internal/customers/validator"
	"spadesk/internal/events"
	ledgerservice "spadesk/internal/ledger/service"
	ledgervalidator "spadesk/internal/ledger/validator"
	"spadesk/internal/pricing"
	"spadesk/internal/testutil"
	visitsservice "spadesk/internal/visits/service"
	visitsvalidator "spadesk/internal/visits/validator"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	store     *testutil.Store
	customers *testutil.CustomerRepo
	bookings  *testutil.BookingRepo
	recorder  *testutil.Recorder
	svc       BookingService

	massageID string
	facialID  string
	scrubID   string
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	cfg := testutil.Config()
	store := testutil.NewStore()
	customerRepo := testutil.NewCustomerRepo(store)
	serviceRepo := testutil.NewServiceRepo(store)
	visitRepo := testutil.NewVisitRepo(store)
	bookingRepo := testutil.NewBookingRepo(store)
	recorder := &testutil.Recorder{}

	customerSvc := customersservice.NewCustomerService(customerRepo, visitRepo, customersvalidator.NewCustomerValidator(cfg.Log), cfg)
	catalogSvc := catalogservice.NewCatalogService(serviceRepo, catalogvalidator.NewServiceValidator(cfg.Log), cfg)
	ledgerSvc := ledgerservice.NewLedgerService(testutil.NewLedgerRepo(store), customerSvc, ledgervalidator.NewLedgerValidator(cfg.Log), recorder, nil, cfg)
	quoter := pricing.NewQuoter(pricing.NewEngine(cfg.Policy.VIPDiscountRatio), catalogSvc, customerSvc)
	visitSvc := visitsservice.NewVisitService(visitRepo, quoter, customerSvc, ledgerSvc, visitsvalidator.NewVisitValidator(cfg.Log), recorder, cfg)

	return &bookingFixture{
		store:     store,
		customers: customerRepo,
		bookings:  bookingRepo,
		recorder:  recorder,
		svc:       NewBookingService(bookingRepo, quoter, customerSvc, visitSvc, validator.NewBookingValidator(cfg.Log), recorder, cfg),
		massageID: serviceRepo.Seed(&model.Service{
			Code: "BS01", Category: model.CategoryBodySpa, Name: "Swedish massage", Price: 2000, Duration: 90,
		}),
		facialID: serviceRepo.Seed(&model.Service{
			Code: "FS01", Category: model.CategoryFacialSpa, Name: "Hydrating facial", Price: 1800, Duration: 75,
		}),
		scrubID: serviceRepo.Seed(&model.Service{
			Code: "MS01", Category: model.CategoryMiniSpa, Name: "Foot scrub", Price: 500, Duration: 30,
		}),
	}
}

var bookingDate = time.Now().In(testutil.Taipei).AddDate(0, 0, 7).Truncate(time.Hour)

func (f *bookingFixture) seedCustomer(c *model.Customer) string {
	if c.Name == "" {
		c.Name = "林美華"
	}
	if c.Phone == "" {
		c.Phone = "+886912345678"
	}
	return f.customers.Seed(c)
}

func (f *bookingFixture) customer(t *testing.T, id string) *model.Customer {
	t.Helper()
	c, err := f.customers.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *bookingFixture) create(t *testing.T, customerID string) *model.Booking {
	t.Helper()
	booking, err := f.svc.Create(context.Background(), &model.BookingRequest{
		CustomerID:          customerID,
		ServiceID:           f.massageID,
		BookingDate:         bookingDate,
		AdditionalServiceID: f.scrubID,
	}, "alice")
	require.NoError(t, err)
	return booking
}

func (f *bookingFixture) pay(t *testing.T, id, method string) {
	t.Helper()
	_, err := f.svc.ConfirmPayment(context.Background(), id, &model.PaymentConfirmation{PaymentMethod: method})
	require.NoError(t, err)
}

func TestCreate_SnapshotsServerSidePrice(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{Balance: 100})

	booking := f.create(t, id)

	assert.Equal(t, "林美華", booking.CustomerName)
	assert.Equal(t, "+886912345678", booking.CustomerPhone)
	assert.Equal(t, "Swedish massage", booking.ServiceName)
	assert.Equal(t, 90, booking.Duration)
	assert.Equal(t, model.MembershipRegular, booking.MembershipType)
	assert.Equal(t, int64(2000), booking.Price)
	assert.Equal(t, "Foot scrub", booking.AdditionalService)
	assert.Equal(t, int64(500), booking.AdditionalServicePrice)
	assert.Equal(t, int64(2500), booking.TotalPrice)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, booking.PaymentStatus)
	assert.Equal(t, "alice", booking.CreatedBy)

	c := f.customer(t, id)
	assert.Equal(t, int64(100), c.Balance)
	require.Len(t, c.RecentAppointments, 1)
	assert.Equal(t, booking.ID, c.RecentAppointments[0].BookingID)
	assert.Equal(t, int64(2500), c.RecentAppointments[0].TotalPrice)
}

func TestCreate_VIPPricedAtBookingDate(t *testing.T) {
	tests := []struct {
		name      string
		vipEnd    time.Time
		wantPrice int64
		wantType  string
	}{
		{name: "vip active on booking date", vipEnd: bookingDate.AddDate(0, 0, 1), wantPrice: 1000, wantType: model.MembershipVIP},
		{name: "vip expired before booking date", vipEnd: bookingDate.AddDate(0, 0, -1), wantPrice: 2000, wantType: model.MembershipRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			end := tt.vipEnd.UTC()
			id := f.seedCustomer(&model.Customer{MembershipLevel: model.MembershipVIP, VIPEndDate: &end})

			booking := f.create(t, id)
			assert.Equal(t, tt.wantType, booking.MembershipType)
			assert.Equal(t, tt.wantPrice, booking.Price)
			assert.Equal(t, tt.wantPrice+500, booking.TotalPrice)
		})
	}
}

func TestCreate_UnknownServiceCreatesNothing(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{})

	_, err := f.svc.Create(context.Background(), &model.BookingRequest{
		CustomerID:  id,
		ServiceID:   "65f000000000000000000002",
		BookingDate: bookingDate,
	}, "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Empty(t, f.store.Bookings)
	assert.Empty(t, f.customer(t, id).RecentAppointments)
}

func TestCreate_AppointmentFailureRollsBack(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{})
	f.store.FailNext("customers.SaveAppointments", assert.AnError)

	_, err := f.svc.Create(context.Background(), &model.BookingRequest{
		CustomerID:  id,
		ServiceID:   f.massageID,
		BookingDate: bookingDate,
	}, "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Empty(t, f.store.Bookings)
	assert.Empty(t, f.customer(t, id).RecentAppointments)
	assert.Empty(t, f.recorder.Types())
}

func TestUpdate_RepricesUnpaidBooking(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{})
	booking := f.create(t, id)

	none := ""
	updated, err := f.svc.Update(context.Background(), booking.ID, &model.BookingUpdate{
		ServiceID:           &f.facialID,
		AdditionalServiceID: &none,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hydrating facial", updated.ServiceName)
	assert.Equal(t, 75, updated.Duration)
	assert.Equal(t, int64(1800), updated.TotalPrice)
	assert.Empty(t, updated.AdditionalService)

	stored, err := f.svc.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), stored.TotalPrice)
}

func TestPaidBookingIsFrozen(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{})
	booking := f.create(t, id)
	f.pay(t, booking.ID, "card")

	notes := "moved to the window room"
	_, err := f.svc.Update(context.Background(), booking.ID, &model.BookingUpdate{Notes: &notes})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	err = f.svc.Delete(context.Background(), booking.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.svc.GetByID(context.Background(), booking.ID)
	assert.NoError(t, err)
}

func TestDelete_UnpaidBooking(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, f.seedCustomer(&model.Customer{}))

	require.NoError(t, f.svc.Delete(context.Background(), booking.ID))

	_, err := f.svc.GetByID(context.Background(), booking.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestChangeStatus_ForwardOnly(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, f.seedCustomer(&model.Customer{}))
	ctx := context.Background()

	updated, err := f.svc.ChangeStatus(ctx, booking.ID, &model.StatusChange{Status: " Confirmed "})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)

	_, err = f.svc.ChangeStatus(ctx, booking.ID, &model.StatusChange{Status: model.BookingStatusPending})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.svc.ChangeStatus(ctx, booking.ID, &model.StatusChange{Status: model.BookingStatusCompleted})
	require.NoError(t, err)

	stored, err := f.svc.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, stored.Status)
}

func TestConfirmPayment_DoesNotDebitAndOnlyOnce(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{Balance: 3000})
	booking := f.create(t, id)
	ctx := context.Background()

	paid, err := f.svc.ConfirmPayment(ctx, booking.ID, &model.PaymentConfirmation{PaymentMethod: "Deposit"})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid())
	assert.Equal(t, model.PaymentDeposit, paid.PaymentMethod)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, int64(3000), f.customer(t, id).Balance)

	_, err = f.svc.ConfirmPayment(ctx, booking.ID, &model.PaymentConfirmation{PaymentMethod: "cash"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.svc.ConfirmPayment(ctx, booking.ID, &model.PaymentConfirmation{PaymentMethod: "voucher"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSpawnVisit_RequiresPaidBooking(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, f.seedCustomer(&model.Customer{}))

	_, err := f.svc.SpawnVisit(context.Background(), booking.ID, "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.store.Visits)
}

func TestSpawnVisit_DepositBookingDebitsOnce(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{Balance: 3000})
	booking := f.create(t, id)
	f.pay(t, booking.ID, model.PaymentDeposit)
	ctx := context.Background()

	visit, err := f.svc.SpawnVisit(ctx, booking.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, visit.BookingID)
	assert.Equal(t, int64(2000), visit.FinalPrice)
	assert.Equal(t, int64(500), visit.AdditionalServicePrice)
	assert.Equal(t, model.PaymentStatusPaid, visit.PaymentStatus)

	c := f.customer(t, id)
	assert.Equal(t, int64(500), c.Balance)
	assert.Equal(t, 1, c.TotalVisits)

	stored, err := f.svc.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, visit.ID, stored.VisitID)

	assert.Equal(t, []string{events.BalanceDebited, events.VisitCreated}, f.recorder.Types())

	_, err = f.svc.SpawnVisit(ctx, booking.ID, "bob")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Len(t, f.store.Visits, 1)
	assert.Equal(t, int64(500), f.customer(t, id).Balance)
}

func TestSpawnVisit_InsufficientBalanceKeepsBookingOpen(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seedCustomer(&model.Customer{Balance: 1000})
	booking := f.create(t, id)
	f.pay(t, booking.ID, model.PaymentDeposit)

	_, err := f.svc.SpawnVisit(context.Background(), booking.ID, "bob")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientBalance))

	stored, err := f.svc.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.VisitID)
	assert.Empty(t, f.store.Visits)
	assert.Equal(t, int64(1000), f.customer(t, id).Balance)
	assert.Empty(t, f.recorder.Events())
}

func TestToday_UsesBusinessDay(t *testing.T) {
	f := newBookingFixture(t)
	now := time.Date(2026, 4, 10, 14, 0, 0, 0, testutil.Taipei)
	f.svc.(*bookingService).now = func() time.Time { return now }

	at := func(day, hour int) time.Time {
		return time.Date(2026, 4, day, hour, 0, 0, 0, testutil.Taipei).UTC()
	}
	f.bookings.Seed(&model.Booking{CustomerName: "early", BookingDate: at(10, 1)})
	f.bookings.Seed(&model.Booking{CustomerName: "late", BookingDate: at(10, 23)})
	f.bookings.Seed(&model.Booking{CustomerName: "yesterday", BookingDate: at(9, 23)})
	f.bookings.Seed(&model.Booking{CustomerName: "tomorrow", BookingDate: at(11, 0)})

	today, err := f.svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "early", today[0].CustomerName)
	assert.Equal(t, "late", today[1].CustomerName)
}
