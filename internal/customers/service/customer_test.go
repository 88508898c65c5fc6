package service

import (
	"context"
	"testing"
	"time"

	"spadesk/internal/customers/validator"
	"spadesk/internal/testutil"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customerFixture struct {
	store  *testutil.Store
	repo   *testutil.CustomerRepo
	visits *testutil.VisitRepo
	svc    *customerService
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()

	cfg := testutil.Config()
	store := testutil.NewStore()
	repo := testutil.NewCustomerRepo(store)
	visits := testutil.NewVisitRepo(store)

	svc := NewCustomerService(repo, visits, validator.NewCustomerValidator(cfg.Log), cfg).(*customerService)
	return &customerFixture{store: store, repo: repo, visits: visits, svc: svc}
}

func TestCreate_NormalizesAndZeroesManagedFields(t *testing.T) {
	f := newCustomerFixture(t)
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, testutil.Taipei)
	f.svc.now = func() time.Time { return now }

	customer := &model.Customer{
		Name:            "  林   美華 ",
		Phone:           "0912-345-678",
		Email:           " Mei@Example.COM ",
		MembershipLevel: model.MembershipVIP,
		Balance:         99999,
		TotalVisits:     12,
		VIPApproved:     true,
	}
	require.NoError(t, f.svc.Create(context.Background(), customer))

	stored, err := f.svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "林 美華", stored.Name)
	assert.Equal(t, "+886912345678", stored.Phone)
	assert.Equal(t, "mei@example.com", stored.Email)
	assert.Equal(t, model.MembershipRegular, stored.MembershipLevel)
	assert.Zero(t, stored.Balance)
	assert.Zero(t, stored.TotalVisits)
	assert.False(t, stored.VIPApproved)
	assert.Equal(t, 2026, stored.CurrentYearStats.Year)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		customer *model.Customer
		code     string
	}{
		{name: "unparseable phone", customer: &model.Customer{Name: "王小明", Phone: "call me"}, code: apperrors.CodeValidation},
		{name: "missing name", customer: &model.Customer{Phone: "0922333444"}, code: apperrors.CodeValidation},
		{name: "bad email", customer: &model.Customer{Name: "王小明", Phone: "0922333444", Email: "nope"}, code: apperrors.CodeValidation},
		{name: "phone already registered", customer: &model.Customer{Name: "王小明", Phone: "+886 912 345 678"}, code: apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCustomerFixture(t)
			f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})

			err := f.svc.Create(context.Background(), tt.customer)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Len(t, f.store.Customers, 1)
		})
	}
}

func TestUpdate_PhoneUniqueness(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	first := f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})
	second := f.repo.Seed(&model.Customer{Name: "王小明", Phone: "+886922333444"})

	taken := "0912345678"
	err := f.svc.Update(ctx, second, &model.CustomerUpdate{Phone: &taken})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	same := "0912 345 678"
	notes := "regular on Fridays"
	require.NoError(t, f.svc.Update(ctx, first, &model.CustomerUpdate{Phone: &same, Notes: &notes}))

	stored, err := f.svc.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "+886912345678", stored.Phone)
	assert.Equal(t, notes, stored.Notes)
}

func TestSearch_MatchesNormalizedPhone(t *testing.T) {
	f := newCustomerFixture(t)
	f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})
	f.repo.Seed(&model.Customer{Name: "王小明", Phone: "+886922333444", Email: "ming@example.com"})

	got, err := f.svc.Search(context.Background(), "0912-345-678", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "林美華", got[0].Name)

	got, err = f.svc.Search(context.Background(), "MING@", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = f.svc.Search(context.Background(), "   ", 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestDelete_RefusedWhileVisitsExist(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	id := f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})
	f.visits.Seed(&model.Visit{CustomerID: id, VisitDate: time.Now()})

	err := f.svc.Delete(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	other := f.repo.Seed(&model.Customer{Name: "王小明", Phone: "+886922333444"})
	require.NoError(t, f.svc.Delete(ctx, other))
	_, err = f.svc.GetByID(ctx, other)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestApproveVIP(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	id := f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})

	approved, err := f.svc.ApproveVIP(ctx, id, "manager")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipVIP, approved.MembershipLevel)
	assert.True(t, approved.VIPApproved)
	assert.Equal(t, "manager", approved.VIPApprovedBy)
	require.NotNil(t, approved.VIPEndDate)
	assert.True(t, approved.VIPEndDate.Equal(now.AddDate(0, 12, 0)))

	_, err = f.svc.ApproveVIP(ctx, id, "manager")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyVIP))

	f.svc.now = func() time.Time { return now.AddDate(1, 0, 1) }
	renewed, err := f.svc.ApproveVIP(ctx, id, "manager")
	require.NoError(t, err)
	assert.True(t, renewed.VIPEndDate.After(*approved.VIPEndDate))
}

func TestRecordVisit_FailureLeavesCustomerUntouched(t *testing.T) {
	f := newCustomerFixture(t)
	id := f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})
	f.store.FailNext("customers.SaveStats", assert.AnError)

	_, err := f.svc.RecordVisit(context.Background(), &model.Visit{
		ID: "v1", CustomerID: id, VisitDate: time.Now(), FinalPrice: 1000,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))

	stored, err := f.svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, stored.TotalVisits)
}

func TestRecordVisit_ReachingThresholdMarksEligible(t *testing.T) {
	f := newCustomerFixture(t)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, testutil.Taipei)
	f.svc.now = func() time.Time { return now }

	id := f.repo.Seed(&model.Customer{
		Name:             "林美華",
		Phone:            "+886912345678",
		CurrentYearStats: model.YearStats{Year: 2026, VisitCount: 39},
	})

	eligible, err := f.svc.RecordVisit(context.Background(), &model.Visit{
		ID: "v40", CustomerID: id, VisitDate: now, FinalPrice: 1000,
	})
	require.NoError(t, err)
	assert.True(t, eligible)

	stored, err := f.svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.VIPEligible)
	assert.Equal(t, 40, stored.CurrentYearStats.VisitCount)
}

func TestRecordAppointment_DropsAppointmentsOlderThanWindow(t *testing.T) {
	f := newCustomerFixture(t)
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, testutil.Taipei)
	f.svc.now = func() time.Time { return now }

	id := f.repo.Seed(&model.Customer{Name: "林美華", Phone: "+886912345678"})

	require.NoError(t, f.svc.RecordAppointment(context.Background(), &model.Booking{
		ID: "old", CustomerID: id, BookingDate: now.AddDate(-2, 0, 0),
	}))
	require.NoError(t, f.svc.RecordAppointment(context.Background(), &model.Booking{
		ID: "new", CustomerID: id, BookingDate: now,
	}))

	stored, err := f.svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.RecentAppointments, 1)
	assert.Equal(t, "new", stored.RecentAppointments[0].BookingID)
}

func TestRecordAppointment_UnknownCustomer(t *testing.T) {
	f := newCustomerFixture(t)

	err := f.svc.RecordAppointment(context.Background(), &model.Booking{
		ID: "b", CustomerID: "64b7f0c2a1d3e4f5a6b7c8d9", BookingDate: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
