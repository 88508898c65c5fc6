package service

import (
	"context"
	"testing"
	"time"

	catalogservice "spadesk/internal/catalog/service"
	catalogvalidator "spadesk/internal/catalog/validator"
	customersservice "spadesk/internal/customers/service"
	customersvalidator "spadesk/internal/customers/validator"
	"spadesk/internal/events"
	ledgerservice "spadesk/internal/ledger/service"
	ledgervalidator "spadesk/internal/ledger/validator"
	"spadesk/internal/pricing"
	"spadesk/internal/testutil"
	"spadesk/internal/visits/validator"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visitFixture struct {
	cfg       *config.Config
	store     *testutil.Store
	customers *testutil.CustomerRepo
	visits    *testutil.VisitRepo
	ledger    ledgerservice.LedgerService
	recorder  *testutil.Recorder
	svc       VisitService

	massageID string
	scrubID   string
}

func newVisitFixture(t *testing.T) *visitFixture {
	t.Helper()

	cfg := testutil.Config()
	store := testutil.NewStore()
	customerRepo := testutil.NewCustomerRepo(store)
	serviceRepo := testutil.NewServiceRepo(store)
	visitRepo := testutil.NewVisitRepo(store)
	recorder := &testutil.Recorder{}

	customerSvc := customersservice.NewCustomerService(customerRepo, visitRepo, customersvalidator.NewCustomerValidator(cfg.Log), cfg)
	catalogSvc := catalogservice.NewCatalogService(serviceRepo, catalogvalidator.NewServiceValidator(cfg.Log), cfg)
	ledgerSvc := ledgerservice.NewLedgerService(
		testutil.NewLedgerRepo(store),
		customerSvc,
		ledgervalidator.NewLedgerValidator(cfg.Log),
		recorder,
		nil,
		cfg,
	)
	quoter := pricing.NewQuoter(pricing.NewEngine(cfg.Policy.VIPDiscountRatio), catalogSvc, customerSvc)

	selfOil := int64(1600)
	f := &visitFixture{
		cfg:       cfg,
		store:     store,
		customers: customerRepo,
		visits:    visitRepo,
		ledger:    ledgerSvc,
		recorder:  recorder,
		svc:       NewVisitService(visitRepo, quoter, customerSvc, ledgerSvc, validator.NewVisitValidator(cfg.Log), recorder, cfg),
		massageID: serviceRepo.Seed(&model.Service{
			Code: "BS01", Category: model.CategoryBodySpa, Name: "Swedish massage",
			Price: 2000, SelfOilPrice: &selfOil, Duration: 90,
		}),
		scrubID: serviceRepo.Seed(&model.Service{
			Code: "MS01", Category: model.CategoryMiniSpa, Name: "Foot scrub",
			Price: 500, Duration: 30,
		}),
	}
	return f
}

func (f *visitFixture) seedCustomer(balance int64) string {
	return f.customers.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678", Balance: balance})
}

func (f *visitFixture) customer(t *testing.T, id string) *model.Customer {
	t.Helper()
	c, err := f.customers.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *visitFixture) request(customerID, method string) *model.VisitRequest {
	return &model.VisitRequest{CustomerID: customerID, ServiceID: f.massageID, PaymentMethod: method}
}

func TestCreate_RegularCashVisit(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(0)

	visit, err := f.svc.Create(context.Background(), &model.VisitRequest{CustomerID: id, ServiceID: f.massageID}, "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, visit.ID)
	assert.Equal(t, "林美華", visit.CustomerName)
	assert.Equal(t, "Swedish massage", visit.ServiceName)
	assert.Equal(t, int64(2000), visit.OriginalPrice)
	assert.Equal(t, int64(2000), visit.FinalPrice)
	assert.Equal(t, 1.0, visit.Discount)
	assert.Equal(t, 90, visit.Duration)
	assert.Equal(t, model.MembershipRegular, visit.MembershipType)
	assert.Equal(t, model.PaymentCash, visit.PaymentMethod)
	assert.Equal(t, model.PaymentStatusUnpaid, visit.PaymentStatus)
	assert.Equal(t, "alice", visit.Operator)

	c := f.customer(t, id)
	assert.Equal(t, 1, c.TotalVisits)
	assert.Equal(t, int64(2000), c.TotalSpent)
	require.Len(t, c.RecentVisits, 1)
	assert.Equal(t, visit.ID, c.RecentVisits[0].VisitID)

	assert.Equal(t, []string{events.VisitCreated}, f.recorder.Types())
}

func TestCreate_SelfOilPriceForRegular(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(0)

	req := f.request(id, "cash")
	req.UseSelfOil = true

	visit, err := f.svc.Create(context.Background(), req, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1600), visit.FinalPrice)
	assert.Equal(t, 0.8, visit.Discount)
}

func TestCreate_VIPPricingWithOilSurcharge(t *testing.T) {
	f := newVisitFixture(t)
	id := f.customers.Seed(&model.Customer{
		Name: "陳志明", Phone: "+886922333444", MembershipLevel: model.MembershipVIP,
	})

	req := f.request(id, "card")
	req.ExtraOilFee = 200
	req.UseSelfOil = true

	visit, err := f.svc.Create(context.Background(), req, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipVIP, visit.MembershipType)
	assert.Equal(t, int64(1200), visit.FinalPrice)
}

func TestCreate_DepositDebitsChargeWithAddon(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(5000)

	req := f.request(id, "deposit")
	req.AdditionalServiceID = f.scrubID

	visit, err := f.svc.Create(context.Background(), req, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Foot scrub", visit.AdditionalService)
	assert.Equal(t, int64(500), visit.AdditionalServicePrice)

	c := f.customer(t, id)
	assert.Equal(t, int64(2500), c.Balance)
	assert.Equal(t, int64(2500), c.TotalSpent)

	usage, err := f.ledger.ListUsage(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, visit.ID, usage[0].VisitID)
	assert.Equal(t, int64(2500), usage[0].Amount)

	assert.Equal(t, []string{events.BalanceDebited, events.VisitCreated}, f.recorder.Types())
}

func TestCreate_InsufficientBalanceLeavesNoVisit(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(1999)

	_, err := f.svc.Create(context.Background(), f.request(id, "deposit"), "alice")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientBalance))

	count, err := f.visits.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	c := f.customer(t, id)
	assert.Equal(t, int64(1999), c.Balance)
	assert.Zero(t, c.TotalVisits)
	assert.Empty(t, f.recorder.Events())
}

func TestCreate_StatisticsFailureRollsBackDebit(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(5000)
	f.store.FailNext("customers.SaveStats", assert.AnError)

	_, err := f.svc.Create(context.Background(), f.request(id, "deposit"), "alice")
	require.Error(t, err)

	assert.Equal(t, int64(5000), f.customer(t, id).Balance)
	assert.Empty(t, f.store.Visits)
	assert.Empty(t, f.store.Usage)
	assert.Empty(t, f.recorder.Events())
}

func TestCreate_PriceOverride(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(0)

	final := int64(1500)
	req := f.request(id, "cash")
	req.FinalPrice = &final

	visit, err := f.svc.Create(context.Background(), req, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), visit.OriginalPrice)
	assert.Equal(t, int64(1500), visit.FinalPrice)
	assert.Equal(t, 0.75, visit.Discount)
}

func TestCreate_ValidationAndLookupErrors(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(0)

	tests := []struct {
		name string
		req  *model.VisitRequest
		code string
	}{
		{name: "unknown payment method", req: f.request(id, "cheque"), code: apperrors.CodeValidation},
		{name: "malformed customer id", req: &model.VisitRequest{CustomerID: "nope", ServiceID: f.massageID}, code: apperrors.CodeValidation},
		{name: "unknown customer", req: &model.VisitRequest{CustomerID: "65f000000000000000000001", ServiceID: f.massageID}, code: apperrors.CodeNotFound},
		{name: "unknown service", req: &model.VisitRequest{CustomerID: id, ServiceID: "65f000000000000000000002"}, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.req, "alice")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDelete_RefundsDepositAndKeepsStatistics(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(5000)
	ctx := context.Background()

	visit, err := f.svc.Create(ctx, f.request(id, "deposit"), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(3000), f.customer(t, id).Balance)

	require.NoError(t, f.svc.Delete(ctx, visit.ID, "bob"))

	_, err = f.svc.GetByID(ctx, visit.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	c := f.customer(t, id)
	assert.Equal(t, int64(5000), c.Balance)
	assert.Equal(t, 1, c.TotalVisits)

	assert.Equal(t,
		[]string{events.BalanceDebited, events.VisitCreated, events.BalanceRefunded, events.VisitDeleted},
		f.recorder.Types(),
	)
}

func TestDelete_CashVisitDoesNotTouchBalance(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(800)
	ctx := context.Background()

	visit, err := f.svc.Create(ctx, f.request(id, "cash"), "alice")
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, visit.ID, "bob"))

	assert.Equal(t, int64(800), f.customer(t, id).Balance)
	assert.Equal(t, []string{events.VisitCreated, events.VisitDeleted}, f.recorder.Types())
}

func TestUpdate_SwitchingPaymentMethod(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(5000)
	ctx := context.Background()

	visit, err := f.svc.Create(ctx, f.request(id, "cash"), "alice")
	require.NoError(t, err)

	deposit := model.PaymentDeposit
	updated, err := f.svc.Update(ctx, visit.ID, &model.VisitUpdate{PaymentMethod: &deposit}, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentDeposit, updated.PaymentMethod)
	assert.Equal(t, int64(3000), f.customer(t, id).Balance)

	cash := model.PaymentCash
	_, err = f.svc.Update(ctx, visit.ID, &model.VisitUpdate{PaymentMethod: &cash}, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), f.customer(t, id).Balance)

	rec, err := f.ledger.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Debits)
}

func TestUpdate_RepricingDepositVisit(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(0)
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, id, &model.DepositRequest{Amount: 5000, PaymentMethod: "cash"}, "alice")
	require.NoError(t, err)
	visit, err := f.svc.Create(ctx, f.request(id, "deposit"), "alice")
	require.NoError(t, err)

	price := int64(1500)
	updated, err := f.svc.Update(ctx, visit.ID, &model.VisitUpdate{FinalPrice: &price}, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0.75, updated.Discount)
	assert.Equal(t, int64(3500), f.customer(t, id).Balance)

	rec, err := f.ledger.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(1500), rec.Debits)
}

func TestUpdate_InsufficientRedebitRollsBack(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(2000)
	ctx := context.Background()

	visit, err := f.svc.Create(ctx, f.request(id, "deposit"), "alice")
	require.NoError(t, err)
	require.Zero(t, f.customer(t, id).Balance)

	price := int64(3000)
	_, err = f.svc.Update(ctx, visit.ID, &model.VisitUpdate{FinalPrice: &price}, "bob")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientBalance))

	assert.Zero(t, f.customer(t, id).Balance)
	stored, err := f.svc.GetByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), stored.FinalPrice)

	usage, err := f.ledger.ListUsage(ctx, id)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.False(t, usage[0].Reversed)
}

func TestUpdate_NotesOnlyLeavesLedgerAlone(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(5000)
	ctx := context.Background()

	visit, err := f.svc.Create(ctx, f.request(id, "deposit"), "alice")
	require.NoError(t, err)

	notes := "  prefers   firm pressure "
	updated, err := f.svc.Update(ctx, visit.ID, &model.VisitUpdate{Notes: &notes}, "bob")
	require.NoError(t, err)
	assert.Equal(t, "prefers firm pressure", updated.Notes)
	assert.Equal(t, int64(3000), f.customer(t, id).Balance)
	assert.Len(t, f.store.Usage, 1)
}

func TestCreateFromBooking(t *testing.T) {
	f := newVisitFixture(t)
	id := f.seedCustomer(4000)
	ctx := context.Background()

	booking := &model.Booking{
		ID:                     "65f0000000000000000000aa",
		CustomerID:             id,
		CustomerName:           "林美華",
		ServiceID:              f.massageID,
		ServiceName:            "Swedish massage",
		BookingDate:            time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		MembershipType:         model.MembershipRegular,
		OriginalPrice:          2000,
		Price:                  2000,
		AdditionalService:      "Foot scrub",
		AdditionalServicePrice: 500,
		TotalPrice:             2500,
		PaymentStatus:          model.PaymentStatusUnpaid,
	}

	_, err := f.svc.CreateFromBooking(ctx, booking, "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	booking.PaymentStatus = model.PaymentStatusPaid
	booking.PaymentMethod = model.PaymentDeposit

	checkout, err := f.svc.CreateFromBooking(ctx, booking, "alice")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, checkout.Visit.BookingID)
	assert.Equal(t, model.PaymentStatusPaid, checkout.Visit.PaymentStatus)
	assert.Equal(t, model.DefaultVisitDuration, checkout.Visit.Duration)
	require.NotNil(t, checkout.Usage)
	assert.Equal(t, int64(2500), checkout.Usage.Amount)
	assert.Equal(t, int64(1500), f.customer(t, id).Balance)

	assert.Empty(t, f.recorder.Events())
	assert.Equal(t, []string{events.BalanceDebited, events.VisitCreated}, eventTypes(checkout.Events("alice")))
}

func TestStats_WindowsInBusinessTimezone(t *testing.T) {
	f := newVisitFixture(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, testutil.Taipei)
	f.svc.(*visitService).now = func() time.Time { return now }

	seed := func(at time.Time, method string, price int64) {
		f.visits.Seed(&model.Visit{CustomerID: "c", VisitDate: at.UTC(), FinalPrice: price, PaymentMethod: method})
	}
	seed(time.Date(2026, 3, 15, 0, 30, 0, 0, testutil.Taipei), model.PaymentCash, 1000)
	seed(time.Date(2026, 3, 15, 23, 0, 0, 0, testutil.Taipei), model.PaymentDeposit, 2000)
	seed(time.Date(2026, 3, 1, 9, 0, 0, 0, testutil.Taipei), model.PaymentCard, 1500)
	seed(time.Date(2026, 2, 28, 23, 59, 0, 0, testutil.Taipei), model.PaymentCard, 700)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalVisits)
	assert.Equal(t, int64(5200), stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.TodayVisits)
	assert.Equal(t, int64(3000), stats.TodayRevenue)
	assert.Equal(t, int64(3), stats.MonthVisits)
	assert.Equal(t, int64(4500), stats.MonthRevenue)
	assert.Equal(t, map[string]int64{"cash": 1000, "card": 2200, "deposit": 2000}, stats.PaymentMethods)
}

func TestSearch_ByTermAndRange(t *testing.T) {
	f := newVisitFixture(t)
	day := func(d int) time.Time { return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC) }

	f.visits.Seed(&model.Visit{CustomerName: "王小明", ServiceName: "Swedish massage", VisitDate: day(1)})
	f.visits.Seed(&model.Visit{CustomerName: "林美華", ServiceName: "Foot scrub", VisitDate: day(5)})
	f.visits.Seed(&model.Visit{CustomerName: "王大同", ServiceName: "Facial", Notes: "allergic to lavender", VisitDate: day(9)})

	got, err := f.svc.Search(context.Background(), nil, nil, "王")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "王大同", got[0].CustomerName)

	start, end := day(2), day(9)
	got, err = f.svc.Search(context.Background(), &start, &end, "LAVENDER")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = f.svc.Search(context.Background(), &end, &start, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func eventTypes(evs []events.Event) []string {
	types := make([]string, len(evs))
	for i, ev := range evs {
		types[i] = ev.Type
	}
	return types
}
