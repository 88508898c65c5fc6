package model

import "time"

type Customer struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string     `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Phone           string     `json:"phone" bson:"phone" validate:"required,e164"`
	Email           string     `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email,max=254"`
	Notes           string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	MembershipLevel string     `json:"membership_level" bson:"membership_level" validate:"required,oneof=regular vip"`
	Balance         int64      `json:"balance" bson:"balance" validate:"min=0"`
	TotalDeposit    int64      `json:"total_deposit" bson:"total_deposit" validate:"min=0"`
	DepositCount    int        `json:"deposit_count" bson:"deposit_count" validate:"min=0"`
	TotalSpent      int64      `json:"total_spent" bson:"total_spent" validate:"min=0"`
	TotalVisits     int        `json:"total_visits" bson:"total_visits" validate:"min=0"`
	LastVisitAt     *time.Time `json:"last_visit_at,omitempty" bson:"last_visit_at,omitempty"`

	VIPEligible   bool       `json:"vip_eligible" bson:"vip_eligible"`
	VIPEligibleAt *time.Time `json:"vip_eligible_at,omitempty" bson:"vip_eligible_at,omitempty"`
	VIPApproved   bool       `json:"vip_approved" bson:"vip_approved"`
	VIPApprovedAt *time.Time `json:"vip_approved_at,omitempty" bson:"vip_approved_at,omitempty"`
	VIPApprovedBy string     `json:"vip_approved_by,omitempty" bson:"vip_approved_by,omitempty"`
	VIPStartDate  *time.Time `json:"vip_start_date,omitempty" bson:"vip_start_date,omitempty"`
	VIPEndDate    *time.Time `json:"vip_end_date,omitempty" bson:"vip_end_date,omitempty"`

	CurrentYearStats   YearStats           `json:"current_year_stats" bson:"current_year_stats"`
	RecentVisits       []RecentVisit       `json:"recent_visits" bson:"recent_visits"`
	RecentAppointments []RecentAppointment `json:"recent_appointments" bson:"recent_appointments"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type YearStats struct {
	Year       int   `json:"year" bson:"year"`
	VisitCount int   `json:"visit_count" bson:"visit_count"`
	TotalSpent int64 `json:"total_spent" bson:"total_spent"`
}

type RecentVisit struct {
	VisitID       string    `json:"visit_id" bson:"visit_id"`
	ServiceName   string    `json:"service_name" bson:"service_name"`
	VisitDate     time.Time `json:"visit_date" bson:"visit_date"`
	OriginalPrice int64     `json:"original_price" bson:"original_price"`
	FinalPrice    int64     `json:"final_price" bson:"final_price"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method"`
}

type RecentAppointment struct {
	BookingID   string    `json:"booking_id" bson:"booking_id"`
	ServiceName string    `json:"service_name" bson:"service_name"`
	BookingDate time.Time `json:"booking_date" bson:"booking_date"`
	TotalPrice  int64     `json:"total_price" bson:"total_price"`
}

type CustomerUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone,omitempty" validate:"omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
