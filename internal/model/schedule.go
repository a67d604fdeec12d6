package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Duty status values stored under FieldStatus.
const (
	StatusOnDuty  = "ON_DUTY"
	StatusOffDuty = "OFF_DUTY"
	StatusOnCall  = "ON_CALL"
	StatusLeave   = "LEAVE"
	StatusSick    = "SICK"
	StatusPending = "PENDING"
)

// NoBreakSentinel marks an explicit "no break today" in the breaks list,
// distinct from the breaks field being absent altogether.
const NoBreakSentinel = "NO BREAK"

// After-break note values.
const (
	NoteNoTokens     = "NO TOKENS"
	NoteNoAfterBreak = "NO AFTER BREAK"
)

// Field names a per-date schedule entry may carry.
type Field string

const (
	FieldStatus              Field = "status"
	FieldStatusReason        Field = "status_reason"
	FieldStartTime           Field = "start_time"
	FieldRoom                Field = "room"
	FieldPatientCount        Field = "patient_count"
	FieldOPD                 Field = "opd"
	FieldBreaks              Field = "breaks"
	FieldDesignation         Field = "designation"
	FieldBeforeBreakOPD      Field = "before_break_opd"
	FieldAfterBreakOPD       Field = "after_break_opd"
	FieldBeforeBreakPatients Field = "before_break_opd_patients"
	FieldAfterBreakPatients  Field = "after_break_opd_patients"
	FieldPostOncall          Field = "post_oncall"
	FieldAfterBreakNote      Field = "after_break_note"
	FieldLastUpdate          Field = "last_update"
)

// PerDateFields is the whitelist of patchable fields. FieldLastUpdate is
// stamped by the applier and never accepted from a patch.
var PerDateFields = map[Field]bool{
	FieldStatus:              true,
	FieldStatusReason:        true,
	FieldStartTime:           true,
	FieldRoom:                true,
	FieldPatientCount:        true,
	FieldOPD:                 true,
	FieldBreaks:              true,
	FieldDesignation:         true,
	FieldBeforeBreakOPD:      true,
	FieldAfterBreakOPD:       true,
	FieldBeforeBreakPatients: true,
	FieldAfterBreakPatients:  true,
	FieldPostOncall:          true,
	FieldAfterBreakNote:      true,
}

// OPDSlot is one outpatient session interval, optionally with the number
// of patients booked into it.
type OPDSlot struct {
	Range string `json:"range"`
	Count int    `json:"count,omitempty"`
}

// Patch is a partial update to one doctor's entry for one date. Keys not
// present are left untouched; a nil or empty-string value deletes the key.
type Patch map[Field]interface{}

// Clone returns a shallow copy so appliers can mutate safely.
func (p Patch) Clone() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DayEntry is the field record stored for one doctor on one date. Only
// whitelisted keys appear; values are held in canonical form (see
// Canonicalize) so deep-equality checks survive a JSON round trip.
type DayEntry map[Field]interface{}

func (e DayEntry) Clone() DayEntry {
	out := make(DayEntry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Value implements driver.Valuer for JSONB storage.
func (e DayEntry) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB storage.
func (e *DayEntry) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported scan type %T for DayEntry", src)
	}
	var m map[Field]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	out := make(DayEntry, len(m))
	for k, v := range m {
		out[k] = CanonicalizeField(k, v)
	}
	*e = out
	return nil
}

// CanonicalizeField coerces a decoded JSON value into the canonical Go
// representation for the given field: ints for counts, []OPDSlot for
// session lists, []string for breaks, bool for flags, string otherwise.
func CanonicalizeField(k Field, v interface{}) interface{} {
	switch k {
	case FieldPatientCount, FieldBeforeBreakPatients, FieldAfterBreakPatients:
		if n, ok := asInt(v); ok {
			return n
		}
	case FieldOPD, FieldBeforeBreakOPD, FieldAfterBreakOPD:
		if slots, ok := asSlots(v); ok {
			return slots
		}
	case FieldBreaks:
		if ss, ok := asStrings(v); ok {
			return ss
		}
	case FieldPostOncall:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return v
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func asStrings(v interface{}) ([]string, bool) {
	switch ss := v.(type) {
	case []string:
		return ss, true
	case []interface{}:
		out := make([]string, 0, len(ss))
		for _, item := range ss {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func asSlots(v interface{}) ([]OPDSlot, bool) {
	switch items := v.(type) {
	case []OPDSlot:
		return items, true
	case []interface{}:
		out := make([]OPDSlot, 0, len(items))
		for _, item := range items {
			switch slot := item.(type) {
			case OPDSlot:
				out = append(out, slot)
			case string:
				out = append(out, OPDSlot{Range: slot})
			case map[string]interface{}:
				s := OPDSlot{}
				if r, ok := slot["range"].(string); ok {
					s.Range = r
				}
				if c, ok := asInt(slot["count"]); ok {
					s.Count = c
				}
				if s.Range == "" {
					continue
				}
				out = append(out, s)
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
