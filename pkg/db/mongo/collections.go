package mongo

const (
	CustomersCollection    = "Customers"
	ServicesCollection     = "Services"
	BookingsCollection     = "Bookings"
	VisitsCollection       = "Visits"
	DepositsCollection     = "Deposit_records"
	UsageCollection        = "Balance_usage_records"
	VIPPurchasesCollection = "Vip_purchases"
)
