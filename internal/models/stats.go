package models

import "time"

// ComplaintStats aggregates the complaint set for the admin dashboard.
type ComplaintStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	ByCategory  map[string]int `json:"byCategory"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// StatusCount is a GROUP BY row for per-status totals.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// CategoryCount is a GROUP BY row for per-category totals.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}
