package model

import "github.com/google/uuid"

// ScheduleEntry is one stored (doctor, date) row as read back from the
// schedule repository.
type ScheduleEntry struct {
	DoctorID uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ForDate  string    `db:"for_date" json:"for_date"`
	Entry    DayEntry  `db:"entry" json:"entry"`
}
