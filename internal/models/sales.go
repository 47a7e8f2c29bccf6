package models

// SalesSummary totals what an organizer has sold across their events.
type SalesSummary struct {
	TotalOrders  int          `json:"totalOrders"`
	TotalRevenue string       `json:"totalRevenue"`
	Events       []EventSales `json:"events"`
	DailySales   []DailySales `json:"dailySales"`
}

type EventSales struct {
	EventID string `json:"eventId"`
	Title   string `json:"title"`
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}

// DailySales buckets orders by UTC calendar day, formatted 2006-01-02.
type DailySales struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}
