package model

import "time"

const (
	ReportRevenue    = "revenue"
	ReportRanking    = "ranking"
	ReportServices   = "services"
	ReportMembership = "membership"
)

const DefaultRankingLimit = 10

type DailyRevenue struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Visits  int    `json:"visits"`
	Cash    int64  `json:"cash"`
	Card    int64  `json:"card"`
	Deposit int64  `json:"deposit"`
}

type RevenueReport struct {
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	TotalRevenue    int64            `json:"total_revenue"`
	TotalVisits     int              `json:"total_visits"`
	AvgDailyRevenue float64          `json:"avg_daily_revenue"`
	AvgVisitsPerDay float64          `json:"avg_visits_per_day"`
	Daily           []DailyRevenue   `json:"daily"`
	PaymentMethods  map[string]int64 `json:"payment_methods"`
}

type CustomerRank struct {
	Rank            int      `json:"rank"`
	CustomerID      string   `json:"customer_id"`
	CustomerName    string   `json:"customer_name"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email,omitempty"`
	MembershipLevel string   `json:"membership_level"`
	TotalSpent      int64    `json:"total_spent"`
	VisitCount      int      `json:"visit_count"`
	Services        []string `json:"services"`
}

type ServicePopularity struct {
	ServiceName  string  `json:"service_name"`
	VisitCount   int     `json:"visit_count"`
	BookingCount int     `json:"booking_count"`
	TotalCount   int     `json:"total_count"`
	Revenue      int64   `json:"revenue"`
	AvgPrice     float64 `json:"avg_price"`
}

type LevelStats struct {
	Level        string  `json:"level"`
	Count        int     `json:"count"`
	TotalBalance int64   `json:"total_balance"`
	AvgBalance   float64 `json:"avg_balance"`
}

type VIPSummary struct {
	Active   int `json:"active"`
	Expired  int `json:"expired"`
	Eligible int `json:"eligible"`
}

type MembershipDistribution struct {
	Levels         []LevelStats `json:"levels"`
	TotalCustomers int          `json:"total_customers"`
	TotalBalance   int64        `json:"total_balance"`
	AvgBalance     float64      `json:"avg_balance"`
	VIP            VIPSummary   `json:"vip"`
}

type FullReport struct {
	Revenue     *RevenueReport          `json:"revenue"`
	Ranking     []CustomerRank          `json:"ranking"`
	Services    []ServicePopularity     `json:"services"`
	Membership  *MembershipDistribution `json:"membership"`
	GeneratedAt time.Time               `json:"generated_at"`
}
