package model

import "time"

// VIPGrant is the membership period written on approval or purchase.
type VIPGrant struct {
	StartDate  time.Time
	EndDate    time.Time
	ApprovedBy string
}
