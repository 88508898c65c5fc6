package service

import (
	"spadesk/pkg/config"
	"spadesk/pkg/locale"
	"spadesk/pkg/model"
	"time"
)

// ApplyVisit folds a new visit into the customer's statistics. Yearly counters
// restart when the stored year is not the current year in loc. It reports
// whether the visit made the customer eligible for VIP.
func ApplyVisit(c *model.Customer, v *model.Visit, now time.Time, loc *time.Location, policy config.MembershipPolicy) bool {
	c.TotalVisits++
	c.TotalSpent += v.Charge()
	if c.LastVisitAt == nil || v.VisitDate.After(*c.LastVisitAt) {
		visitDate := v.VisitDate
		c.LastVisitAt = &visitDate
	}

	year := locale.YearOf(now, loc)
	if c.CurrentYearStats.Year != year {
		c.CurrentYearStats = model.YearStats{Year: year}
		c.VIPEligible = false
		c.VIPEligibleAt = nil
	}
	c.CurrentYearStats.VisitCount++
	c.CurrentYearStats.TotalSpent += v.Charge()

	c.RecentVisits = pruneRecentVisits(append([]model.RecentVisit{{
		VisitID:       v.ID,
		ServiceName:   v.ServiceName,
		VisitDate:     v.VisitDate,
		OriginalPrice: v.OriginalPrice,
		FinalPrice:    v.FinalPrice,
		PaymentMethod: v.PaymentMethod,
	}}, c.RecentVisits...), now, policy)

	if !c.VIPEligible && c.CurrentYearStats.VisitCount >= policy.VIPEligibilityVisits {
		c.VIPEligible = true
		eligibleAt := now
		c.VIPEligibleAt = &eligibleAt
		return true
	}
	return false
}

// ApplyAppointment puts a new booking at the head of the customer's recent
// appointments, dropping entries older than the history window.
func ApplyAppointment(c *model.Customer, b *model.Booking, now time.Time, policy config.MembershipPolicy) {
	c.RecentAppointments = pruneRecentAppointments(append([]model.RecentAppointment{{
		BookingID:   b.ID,
		ServiceName: b.ServiceName,
		BookingDate: b.BookingDate,
		TotalPrice:  b.TotalPrice,
	}}, c.RecentAppointments...), now, policy)
}

func pruneRecentAppointments(appointments []model.RecentAppointment, now time.Time, policy config.MembershipPolicy) []model.RecentAppointment {
	cutoff := now.AddDate(0, -policy.RecentHistoryMonths, 0)

	kept := make([]model.RecentAppointment, 0, min(len(appointments), policy.RecentHistoryLimit))
	for _, ra := range appointments {
		if ra.BookingDate.Before(cutoff) {
			continue
		}
		kept = append(kept, ra)
		if len(kept) == policy.RecentHistoryLimit {
			break
		}
	}
	return kept
}

func pruneRecentVisits(visits []model.RecentVisit, now time.Time, policy config.MembershipPolicy) []model.RecentVisit {
	cutoff := now.AddDate(0, -policy.RecentHistoryMonths, 0)

	kept := make([]model.RecentVisit, 0, min(len(visits), policy.RecentHistoryLimit))
	for _, rv := range visits {
		if rv.VisitDate.Before(cutoff) {
			continue
		}
		kept = append(kept, rv)
		if len(kept) == policy.RecentHistoryLimit {
			break
		}
	}
	return kept
}
