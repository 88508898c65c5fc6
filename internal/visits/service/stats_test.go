package service

import (
	"testing"
	"time"

	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerStats(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 1, d, 10, 0, 0, 0, time.UTC) }

	tests := []struct {
		name         string
		visits       []*model.Visit
		wantSpent    int64
		wantFavorite string
		wantLast     *time.Time
	}{
		{
			name: "no visits",
		},
		{
			name: "most frequent service wins",
			visits: []*model.Visit{
				{ServiceName: "Facial", FinalPrice: 1200, VisitDate: day(9)},
				{ServiceName: "Swedish massage", FinalPrice: 2000, AdditionalServicePrice: 500, VisitDate: day(5)},
				{ServiceName: "Swedish massage", FinalPrice: 2000, VisitDate: day(2)},
			},
			wantSpent:    5700,
			wantFavorite: "Swedish massage",
			wantLast:     ptr(day(9)),
		},
		{
			name: "tie goes to the first listed service",
			visits: []*model.Visit{
				{ServiceName: "Facial", FinalPrice: 1000, VisitDate: day(3)},
				{ServiceName: "Foot scrub", FinalPrice: 500, VisitDate: day(2)},
			},
			wantSpent:    1500,
			wantFavorite: "Facial",
			wantLast:     ptr(day(3)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := CustomerStats("c1", tt.visits)
			assert.Equal(t, "c1", stats.CustomerID)
			assert.Equal(t, len(tt.visits), stats.TotalVisits)
			assert.Equal(t, tt.wantSpent, stats.TotalSpent)
			assert.Equal(t, tt.wantFavorite, stats.FavoriteService)
			if tt.wantLast == nil {
				assert.Nil(t, stats.LastVisit)
				return
			}
			require.NotNil(t, stats.LastVisit)
			assert.True(t, tt.wantLast.Equal(*stats.LastVisit))
		})
	}
}

func TestDashboardStats_UnknownMethodCountsOnlyInTotals(t *testing.T) {
	all := []model.PaymentSummary{
		{Method: "", Visits: 1, Revenue: 300},
		{Method: "voucher", Visits: 2, Revenue: 900},
		{Method: model.PaymentCard, Visits: 1, Revenue: 1000},
	}

	stats := DashboardStats(all, nil, nil)
	assert.Equal(t, int64(4), stats.TotalVisits)
	assert.Equal(t, int64(2200), stats.TotalRevenue)
	assert.Equal(t, map[string]int64{"cash": 300, "card": 1000, "deposit": 0}, stats.PaymentMethods)
}

func ptr[T any](v T) *T {
	return &v
}
