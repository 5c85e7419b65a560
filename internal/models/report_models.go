package models

// BarberEarnings is one barber's slice of a financial report. Commission is
// computed at the barber's CURRENT percentage, not a percentage snapshotted at
// completion time, so editing a rate retroactively changes historical reports.
// That is how the shop settles with its barbers today; snapshotting would need
// a migration and their sign-off.
type BarberEarnings struct {
	BarberID             int64   `json:"barber_id"`
	BarberName           string  `json:"barber_name"`
	CommissionPercentage float64 `json:"commission_percentage"`
	TicketsCompleted     int     `json:"tickets_completed"`
	TotalRevenue         float64 `json:"total_revenue"`
	Commission           float64 `json:"commission"`
}

// PopularService ranks services by how often they appear in completed carts.
type PopularService struct {
	ServiceID   int64   `json:"service_id"`
	ServiceName string  `json:"service_name"`
	TimesSold   int     `json:"times_sold"`
	Revenue     float64 `json:"revenue"`
}

// FinancialSummary is the full read-side report over a date range.
type FinancialSummary struct {
	StartDate       string           `json:"start_date"`
	EndDate         string           `json:"end_date"`
	TotalRevenue    float64          `json:"total_revenue"`
	TotalCommission float64          `json:"total_commission"`
	ShopProfit      float64          `json:"shop_profit"`
	TicketsServed   int              `json:"tickets_served"`
	Barbers         []BarberEarnings `json:"barbers"`
	PopularServices []PopularService `json:"popular_services"`
}

// DailyRevenuePoint is one day of the dashboard revenue series.
type DailyRevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Tickets int     `json:"tickets"`
}

// ReportRequestParams holds common query parameters for report endpoints.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	BarberID  *int64 `form:"barber_id"`
}
