package service

import (
	"spadesk/pkg/config"
	"spadesk/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taipei(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return loc
}

func TestApplyVisit_UpdatesCounters(t *testing.T) {
	loc := taipei(t)
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, loc)
	c := &model.Customer{CurrentYearStats: model.YearStats{Year: 2025, VisitCount: 3, TotalSpent: 3000}}
	v := &model.Visit{ID: "v1", ServiceName: "Body", VisitDate: now, OriginalPrice: 1200, FinalPrice: 1000, PaymentMethod: model.PaymentCash}

	eligible := ApplyVisit(c, v, now, loc, config.DefaultMembershipPolicy())

	assert.False(t, eligible)
	assert.Equal(t, 1, c.TotalVisits)
	assert.Equal(t, int64(1000), c.TotalSpent)
	assert.Equal(t, 4, c.CurrentYearStats.VisitCount)
	assert.Equal(t, int64(4000), c.CurrentYearStats.TotalSpent)
	require.Len(t, c.RecentVisits, 1)
	assert.Equal(t, "v1", c.RecentVisits[0].VisitID)
	require.NotNil(t, c.LastVisitAt)
	assert.True(t, c.LastVisitAt.Equal(now))
}

func TestApplyVisit_ResetsYearlyStatsOnNewYear(t *testing.T) {
	loc := taipei(t)
	// 2024-12-31 17:00 UTC is already 2025 in Taipei.
	now := time.Date(2024, 12, 31, 17, 0, 0, 0, time.UTC)
	c := &model.Customer{CurrentYearStats: model.YearStats{Year: 2024, VisitCount: 39, TotalSpent: 39000}}

	ApplyVisit(c, &model.Visit{ID: "v", VisitDate: now, FinalPrice: 800}, now, loc, config.DefaultMembershipPolicy())

	assert.Equal(t, 2025, c.CurrentYearStats.Year)
	assert.Equal(t, 1, c.CurrentYearStats.VisitCount)
	assert.Equal(t, int64(800), c.CurrentYearStats.TotalSpent)
	assert.False(t, c.VIPEligible)
}

func TestApplyVisit_FlagsEligibilityAtThreshold(t *testing.T) {
	loc := taipei(t)
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, loc)
	policy := config.DefaultMembershipPolicy()
	c := &model.Customer{CurrentYearStats: model.YearStats{Year: 2025, VisitCount: policy.VIPEligibilityVisits - 1}}

	eligible := ApplyVisit(c, &model.Visit{ID: "v40", VisitDate: now}, now, loc, policy)

	assert.True(t, eligible)
	assert.True(t, c.VIPEligible)
	require.NotNil(t, c.VIPEligibleAt)
	assert.True(t, c.VIPEligibleAt.Equal(now))

	later := now.Add(time.Hour)
	eligible = ApplyVisit(c, &model.Visit{ID: "v41", VisitDate: later}, later, loc, policy)
	assert.False(t, eligible, "eligibility is only reported once")
	assert.True(t, c.VIPEligibleAt.Equal(now))
}

func TestApplyVisit_PrunesRecentHistory(t *testing.T) {
	loc := taipei(t)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)
	policy := config.DefaultMembershipPolicy()
	policy.RecentHistoryLimit = 3

	c := &model.Customer{
		RecentVisits: []model.RecentVisit{
			{VisitID: "recent1", VisitDate: now.AddDate(0, -1, 0)},
			{VisitID: "recent2", VisitDate: now.AddDate(0, -2, 0)},
			{VisitID: "old", VisitDate: now.AddDate(-1, -1, 0)},
			{VisitID: "recent3", VisitDate: now.AddDate(0, -3, 0)},
		},
	}

	ApplyVisit(c, &model.Visit{ID: "new", VisitDate: now}, now, loc, policy)

	ids := make([]string, 0, len(c.RecentVisits))
	for _, rv := range c.RecentVisits {
		ids = append(ids, rv.VisitID)
	}
	assert.Equal(t, []string{"new", "recent1", "recent2"}, ids)
}

func TestApplyVisit_RenewsEligibilityInLaterYear(t *testing.T) {
	loc := taipei(t)
	policy := config.DefaultMembershipPolicy()
	firstAt := time.Date(2024, 11, 2, 10, 0, 0, 0, loc)
	c := &model.Customer{
		CurrentYearStats: model.YearStats{Year: 2024, VisitCount: 45},
		VIPEligible:      true,
		VIPEligibleAt:    &firstAt,
	}

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	eligible := ApplyVisit(c, &model.Visit{ID: "v1", VisitDate: now}, now, loc, policy)
	assert.False(t, eligible)
	assert.False(t, c.VIPEligible)
	assert.Nil(t, c.VIPEligibleAt)

	c.CurrentYearStats.VisitCount = policy.VIPEligibilityVisits - 1
	later := now.AddDate(0, 6, 0)
	eligible = ApplyVisit(c, &model.Visit{ID: "v40", VisitDate: later}, later, loc, policy)
	assert.True(t, eligible)
	assert.True(t, c.VIPEligible)
	require.NotNil(t, c.VIPEligibleAt)
	assert.True(t, c.VIPEligibleAt.Equal(later))
}

func TestApplyAppointment_PrunesRecentHistory(t *testing.T) {
	loc := taipei(t)
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, loc)
	policy := config.DefaultMembershipPolicy()
	policy.RecentHistoryLimit = 3

	c := &model.Customer{
		RecentAppointments: []model.RecentAppointment{
			{BookingID: "recent1", BookingDate: now.AddDate(0, -1, 0)},
			{BookingID: "old", BookingDate: now.AddDate(-2, 0, 0)},
			{BookingID: "recent2", BookingDate: now.AddDate(0, -2, 0)},
			{BookingID: "recent3", BookingDate: now.AddDate(0, -3, 0)},
		},
	}

	ApplyAppointment(c, &model.Booking{ID: "new", ServiceName: "Body", BookingDate: now.AddDate(0, 0, 3), TotalPrice: 2500}, now, policy)

	ids := make([]string, 0, len(c.RecentAppointments))
	for _, ra := range c.RecentAppointments {
		ids = append(ids, ra.BookingID)
	}
	assert.Equal(t, []string{"new", "recent1", "recent2"}, ids)
	assert.Equal(t, "Body", c.RecentAppointments[0].ServiceName)
	assert.Equal(t, int64(2500), c.RecentAppointments[0].TotalPrice)
}
