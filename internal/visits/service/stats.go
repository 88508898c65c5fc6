package service

import (
	"time"

	"spadesk/pkg/model"
)

// DashboardStats folds payment summaries of all time, today and this month
// into the dashboard counters. Revenue per method covers all time.
func DashboardStats(all, today, month []model.PaymentSummary) *model.VisitStats {
	stats := &model.VisitStats{
		PaymentMethods: map[string]int64{
			model.PaymentCash:    0,
			model.PaymentCard:    0,
			model.PaymentDeposit: 0,
		},
	}

	for _, s := range all {
		stats.TotalVisits += s.Visits
		stats.TotalRevenue += s.Revenue
		method := s.Method
		if method == "" {
			method = model.PaymentCash
		}
		if _, ok := stats.PaymentMethods[method]; ok {
			stats.PaymentMethods[method] += s.Revenue
		}
	}
	for _, s := range today {
		stats.TodayVisits += s.Visits
		stats.TodayRevenue += s.Revenue
	}
	for _, s := range month {
		stats.MonthVisits += s.Visits
		stats.MonthRevenue += s.Revenue
	}
	return stats
}

// CustomerStats summarizes a customer's visits, given newest first. The
// favourite service is the most frequent one; ties go to the one seen first.
func CustomerStats(customerID string, visits []*model.Visit) *model.CustomerVisitStats {
	stats := &model.CustomerVisitStats{
		CustomerID:  customerID,
		TotalVisits: len(visits),
	}

	counts := make(map[string]int)
	var order []string
	var last time.Time

	for _, v := range visits {
		stats.TotalSpent += v.Charge()
		if v.VisitDate.After(last) {
			last = v.VisitDate
		}
		if v.ServiceName == "" {
			continue
		}
		if counts[v.ServiceName] == 0 {
			order = append(order, v.ServiceName)
		}
		counts[v.ServiceName]++
	}

	if len(visits) > 0 {
		stats.LastVisit = &last
	}

	best := 0
	for _, name := range order {
		if counts[name] > best {
			best = counts[name]
			stats.FavoriteService = name
		}
	}
	return stats
}
