package model

// Closure is an institution-wide non-operating day, recorded independently
// of per-doctor schedules. Reasons are append-only and deduplicated by
// exact string.
type Closure struct {
	Date    string   `db:"date" json:"date"`
	Reasons []string `json:"reasons"`
}
