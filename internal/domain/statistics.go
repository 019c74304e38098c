package domain

// NameCount is one bucket of a grouped count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MonthCount is one calendar-month bucket; Month is formatted YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Statistics is the aggregate view over all events.
type Statistics struct {
	ByCategory []NameCount  `json:"byCategory"`
	ByBorough  []NameCount  `json:"byBorough"`
	ByMonth    []MonthCount `json:"byMonth"`
	Total      int          `json:"total"`
}
