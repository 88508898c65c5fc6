package service

import (
	"sort"
	"time"

	"spadesk/pkg/locale"
	"spadesk/pkg/model"
)

// Revenue groups the charge of each visit by business day and payment
// method. Days without visits are omitted.
func Revenue(visits []*model.Visit, start, end time.Time, loc *time.Location) *model.RevenueReport {
	report := &model.RevenueReport{
		Start: start,
		End:   end,
		PaymentMethods: map[string]int64{
			model.PaymentCash:    0,
			model.PaymentCard:    0,
			model.PaymentDeposit: 0,
		},
	}

	days := make(map[string]*model.DailyRevenue)
	for _, v := range visits {
		key := locale.DayKey(v.VisitDate, loc)
		day, ok := days[key]
		if !ok {
			day = &model.DailyRevenue{Date: key}
			days[key] = day
		}

		charge := v.Charge()
		day.Revenue += charge
		day.Visits++
		switch methodOf(v) {
		case model.PaymentCard:
			day.Card += charge
		case model.PaymentDeposit:
			day.Deposit += charge
		default:
			day.Cash += charge
		}
		report.PaymentMethods[methodOf(v)] += charge
		report.TotalRevenue += charge
		report.TotalVisits++
	}

	report.Daily = make([]model.DailyRevenue, 0, len(days))
	for _, day := range days {
		report.Daily = append(report.Daily, *day)
	}
	sort.Slice(report.Daily, func(i, j int) bool { return report.Daily[i].Date < report.Daily[j].Date })

	if n := len(report.Daily); n > 0 {
		report.AvgDailyRevenue = float64(report.TotalRevenue) / float64(n)
		report.AvgVisitsPerDay = float64(report.TotalVisits) / float64(n)
	}
	return report
}

// Ranking orders customers by what they spent in visits, highest first, and
// keeps the top limit. Ties keep the customer who visited first.
func Ranking(visits []*model.Visit, customers []*model.Customer, limit int) []model.CustomerRank {
	if limit <= 0 {
		limit = model.DefaultRankingLimit
	}

	byID := make(map[string]*model.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	index := make(map[string]int)
	var ranks []model.CustomerRank
	seen := make(map[string]map[string]bool)

	for _, v := range visits {
		if v.CustomerID == "" {
			continue
		}
		i, ok := index[v.CustomerID]
		if !ok {
			i = len(ranks)
			index[v.CustomerID] = i
			seen[v.CustomerID] = make(map[string]bool)
			ranks = append(ranks, model.CustomerRank{
				CustomerID:      v.CustomerID,
				CustomerName:    v.CustomerName,
				MembershipLevel: model.MembershipRegular,
				Services:        []string{},
			})
		}

		r := &ranks[i]
		r.TotalSpent += v.Charge()
		r.VisitCount++
		if v.ServiceName != "" && !seen[v.CustomerID][v.ServiceName] {
			seen[v.CustomerID][v.ServiceName] = true
			r.Services = append(r.Services, v.ServiceName)
		}
	}

	for i := range ranks {
		if c, ok := byID[ranks[i].CustomerID]; ok {
			ranks[i].Phone = c.Phone
			ranks[i].Email = c.Email
			if c.MembershipLevel != "" {
				ranks[i].MembershipLevel = c.MembershipLevel
			}
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].TotalSpent > ranks[j].TotalSpent })
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}

// Popularity counts visits and bookings per service name. Revenue and the
// average price come from visits only.
func Popularity(visits []*model.Visit, bookings []*model.Booking) []model.ServicePopularity {
	index := make(map[string]int)
	var stats []model.ServicePopularity

	entry := func(name string) *model.ServicePopularity {
		i, ok := index[name]
		if !ok {
			i = len(stats)
			index[name] = i
			stats = append(stats, model.ServicePopularity{ServiceName: name})
		}
		return &stats[i]
	}

	for _, v := range visits {
		if v.ServiceName == "" {
			continue
		}
		s := entry(v.ServiceName)
		s.VisitCount++
		s.Revenue += v.Charge()
	}
	for _, b := range bookings {
		if b.ServiceName == "" {
			continue
		}
		entry(b.ServiceName).BookingCount++
	}

	for i := range stats {
		stats[i].TotalCount = stats[i].VisitCount + stats[i].BookingCount
		if stats[i].VisitCount > 0 {
			stats[i].AvgPrice = float64(stats[i].Revenue) / float64(stats[i].VisitCount)
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].TotalCount > stats[j].TotalCount })
	return stats
}

// Membership distributes all customers over membership levels. VIP periods
// are judged at now.
func Membership(customers []*model.Customer, now time.Time) *model.MembershipDistribution {
	levels := []model.LevelStats{
		{Level: model.MembershipRegular},
		{Level: model.MembershipVIP},
	}
	dist := &model.MembershipDistribution{TotalCustomers: len(customers)}

	for _, c := range customers {
		i := 0
		if c.MembershipLevel == model.MembershipVIP {
			i = 1
			if c.IsActiveVIP(now) {
				dist.VIP.Active++
			} else {
				dist.VIP.Expired++
			}
		}
		levels[i].Count++
		levels[i].TotalBalance += c.Balance
		dist.TotalBalance += c.Balance

		if c.VIPEligible && !c.IsActiveVIP(now) {
			dist.VIP.Eligible++
		}
	}

	for i := range levels {
		if levels[i].Count > 0 {
			levels[i].AvgBalance = float64(levels[i].TotalBalance) / float64(levels[i].Count)
		}
	}
	if dist.TotalCustomers > 0 {
		dist.AvgBalance = float64(dist.TotalBalance) / float64(dist.TotalCustomers)
	}
	dist.Levels = levels
	return dist
}

func methodOf(v *model.Visit) string {
	switch v.PaymentMethod {
	case model.PaymentCard, model.PaymentDeposit:
		return v.PaymentMethod
	default:
		return model.PaymentCash
	}
}
