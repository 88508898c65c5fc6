package service

import (
	"testing"
	"time"

	"spadesk/internal/testutil"
	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2026, 5, day, hour, 0, 0, 0, testutil.Taipei).UTC()
}

func TestRevenue_GroupsByBusinessDay(t *testing.T) {
	visits := []*model.Visit{
		{VisitDate: at(1, 0), FinalPrice: 1000, PaymentMethod: model.PaymentCash},
		{VisitDate: at(1, 23), FinalPrice: 2000, AdditionalServicePrice: 500, PaymentMethod: model.PaymentDeposit},
		{VisitDate: at(3, 12), FinalPrice: 1500, PaymentMethod: model.PaymentCard},
		{VisitDate: at(3, 13), FinalPrice: 700},
	}

	report := Revenue(visits, at(1, 0), at(31, 0), testutil.Taipei)

	assert.Equal(t, int64(5700), report.TotalRevenue)
	assert.Equal(t, 4, report.TotalVisits)
	require.Len(t, report.Daily, 2)

	assert.Equal(t, model.DailyRevenue{Date: "2026-05-01", Revenue: 3500, Visits: 2, Cash: 1000, Deposit: 2500}, report.Daily[0])
	assert.Equal(t, model.DailyRevenue{Date: "2026-05-03", Revenue: 2200, Visits: 2, Cash: 700, Card: 1500}, report.Daily[1])

	assert.Equal(t, 2850.0, report.AvgDailyRevenue)
	assert.Equal(t, 2.0, report.AvgVisitsPerDay)
	assert.Equal(t, map[string]int64{"cash": 1700, "card": 1500, "deposit": 2500}, report.PaymentMethods)
}

func TestRevenue_Empty(t *testing.T) {
	report := Revenue(nil, at(1, 0), at(2, 0), testutil.Taipei)

	assert.Zero(t, report.TotalRevenue)
	assert.Empty(t, report.Daily)
	assert.Zero(t, report.AvgDailyRevenue)
}

func TestRanking(t *testing.T) {
	customers := []*model.Customer{
		{ID: "a", Phone: "+886911111111", MembershipLevel: model.MembershipVIP},
		{ID: "b", Phone: "+886922222222", MembershipLevel: model.MembershipRegular},
	}
	visits := []*model.Visit{
		{CustomerID: "a", CustomerName: "Amy", ServiceName: "Massage", FinalPrice: 1000},
		{CustomerID: "b", CustomerName: "Ben", ServiceName: "Facial", FinalPrice: 3000},
		{CustomerID: "a", CustomerName: "Amy", ServiceName: "Massage", FinalPrice: 1000},
		{CustomerID: "a", CustomerName: "Amy", ServiceName: "Scrub", FinalPrice: 500},
		{CustomerID: "gone", CustomerName: "Cleo", ServiceName: "Massage", FinalPrice: 100},
		{CustomerName: "walk-in", FinalPrice: 9999},
	}

	ranking := Ranking(visits, customers, 0)
	require.Len(t, ranking, 3)

	assert.Equal(t, model.CustomerRank{
		Rank: 1, CustomerID: "b", CustomerName: "Ben", Phone: "+886922222222",
		MembershipLevel: model.MembershipRegular, TotalSpent: 3000, VisitCount: 1, Services: []string{"Facial"},
	}, ranking[0])
	assert.Equal(t, 2, ranking[1].Rank)
	assert.Equal(t, "a", ranking[1].CustomerID)
	assert.Equal(t, int64(2500), ranking[1].TotalSpent)
	assert.Equal(t, 3, ranking[1].VisitCount)
	assert.Equal(t, []string{"Massage", "Scrub"}, ranking[1].Services)
	assert.Equal(t, model.MembershipVIP, ranking[1].MembershipLevel)

	assert.Equal(t, model.MembershipRegular, ranking[2].MembershipLevel)
	assert.Empty(t, ranking[2].Phone)

	assert.Len(t, Ranking(visits, customers, 1), 1)
}

func TestPopularity(t *testing.T) {
	visits := []*model.Visit{
		{ServiceName: "Massage", FinalPrice: 2000},
		{ServiceName: "Massage", FinalPrice: 1001},
		{ServiceName: "Facial", FinalPrice: 1800},
	}
	bookings := []*model.Booking{
		{ServiceName: "Facial"},
		{ServiceName: "Facial"},
		{ServiceName: "Scrub"},
		{ServiceName: ""},
	}

	stats := Popularity(visits, bookings)
	require.Len(t, stats, 3)

	assert.Equal(t, model.ServicePopularity{ServiceName: "Facial", VisitCount: 1, BookingCount: 2, TotalCount: 3, Revenue: 1800, AvgPrice: 1800}, stats[0])
	assert.Equal(t, model.ServicePopularity{ServiceName: "Massage", VisitCount: 2, TotalCount: 2, Revenue: 3001, AvgPrice: 1500.5}, stats[1])
	assert.Equal(t, model.ServicePopularity{ServiceName: "Scrub", BookingCount: 1, TotalCount: 1}, stats[2])
}

func TestMembership(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	past, future := now.AddDate(0, -1, 0), now.AddDate(0, 1, 0)

	customers := []*model.Customer{
		{MembershipLevel: model.MembershipRegular, Balance: 1000},
		{MembershipLevel: model.MembershipRegular, Balance: 0, VIPEligible: true},
		{MembershipLevel: model.MembershipVIP, Balance: 5000, VIPEndDate: &future, VIPApproved: true, VIPEligible: true},
		{MembershipLevel: model.MembershipVIP, Balance: 2000, VIPEndDate: &past, VIPApproved: true},
	}

	dist := Membership(customers, now)

	assert.Equal(t, 4, dist.TotalCustomers)
	assert.Equal(t, int64(8000), dist.TotalBalance)
	assert.Equal(t, 2000.0, dist.AvgBalance)
	assert.Equal(t, []model.LevelStats{
		{Level: model.MembershipRegular, Count: 2, TotalBalance: 1000, AvgBalance: 500},
		{Level: model.MembershipVIP, Count: 2, TotalBalance: 7000, AvgBalance: 3500},
	}, dist.Levels)
	assert.Equal(t, model.VIPSummary{Active: 1, Expired: 1, Eligible: 1}, dist.VIP)
}

func TestMembership_LapsedVIPCountsAsEligibleAgain(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	lapsed := now.AddDate(0, -2, 0)

	dist := Membership([]*model.Customer{
		{MembershipLevel: model.MembershipVIP, VIPEndDate: &lapsed, VIPApproved: true, VIPEligible: true},
	}, now)

	assert.Equal(t, model.VIPSummary{Expired: 1, Eligible: 1}, dist.VIP)
}
