package dto

// QueueResponse is the staff queue view: ordered entries, category buckets,
// and today's counters.
type QueueResponse struct {
	Entries   []TicketResponse            `json:"entries"`
	Grouped   map[string][]TicketResponse `json:"grouped"`
	Dashboard DashboardResponse           `json:"dashboard"`
}

// DashboardResponse carries today's totals.
type DashboardResponse struct {
	Total                 int     `json:"total"`
	Pending               int     `json:"pending"`
	InService             int     `json:"in_service"`
	Completed             int     `json:"completed"`
	Cancelled             int     `json:"cancelled"`
	AverageServiceMinutes float64 `json:"average_service_minutes"`
}

// StatsSummaryRequest payload.
type StatsSummaryRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StatsSummaryResponse carries range aggregates.
type StatsSummaryResponse struct {
	TotalCount            int            `json:"total_count"`
	CountsByState         map[string]int `json:"counts_by_state"`
	CountsByCategory      map[string]int `json:"counts_by_category"`
	CountsByServiceType   map[string]int `json:"counts_by_service_type"`
	AverageServiceMinutes float64        `json:"average_service_minutes"`
}
