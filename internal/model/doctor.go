package model

import (
	"github.com/lib/pq"
)

// Doctor is a directory record used for fuzzy matching and display.
// Designation and StartTime are baseline values used only when no
// per-date override exists for a given day.
type Doctor struct {
	Base
	Name        string         `db:"name" json:"name"`
	Specialty   string         `db:"specialty" json:"specialty"`
	Designation string         `db:"designation" json:"designation,omitempty"`
	StartTime   string         `db:"start_time" json:"start_time,omitempty"`
	Keywords    pq.StringArray `db:"keywords" json:"keywords"`
}

// DoctorDay is a doctor merged with the schedule entry for one date,
// the shape the display endpoints and SSE payloads serve.
type DoctorDay struct {
	Doctor
	ForDate  string   `json:"for_date"`
	Schedule DayEntry `json:"schedule,omitempty"`
}
