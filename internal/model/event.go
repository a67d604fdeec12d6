package model

import "github.com/google/uuid"

// Event names published to subscribers after successful mutations.
const (
	EventDoctorUpdate  = "doctor_update"
	EventClosureUpdate = "closure_update"
	EventBulkUpdate    = "bulk_update"
)

type DoctorUpdateEvent struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
}

type ClosureUpdateEvent struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type BulkUpdateEvent struct {
	Bulk bool `json:"bulk"`
}
