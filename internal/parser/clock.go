package parser

import (
	"sync"
	"time"
)

// todayCacheTTL bounds how long a computed "today" is reused. Short enough
// that a midnight rollover is picked up within a minute, long enough that a
// burst of inbound messages doesn't recompute per call.
const todayCacheTTL = 55 * time.Second

// Clock supplies the hospital-local notion of time. Injected so tests can
// pin "now".
type Clock interface {
	Now() time.Time
	TodayISO() string
}

// HospitalClock derives local time from UTC plus a fixed offset (the
// deployment runs at UTC+5) and caches the derived date.
type HospitalClock struct {
	offset time.Duration
	now    func() time.Time

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
}

func NewClock(offsetMinutes int) *HospitalClock {
	return &HospitalClock{
		offset: time.Duration(offsetMinutes) * time.Minute,
		now:    time.Now,
	}
}

// NewClockAt builds a clock with a custom time source, for tests.
func NewClockAt(now func() time.Time, offsetMinutes int) *HospitalClock {
	return &HospitalClock{
		offset: time.Duration(offsetMinutes) * time.Minute,
		now:    now,
	}
}

func (c *HospitalClock) Now() time.Time {
	return c.now().UTC().Add(c.offset)
}

func (c *HospitalClock) TodayISO() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != "" && c.now().Sub(c.cachedAt) < todayCacheTTL {
		return c.cached
	}
	c.cached = c.now().UTC().Add(c.offset).Format("2006-01-02")
	c.cachedAt = c.now()
	return c.cached
}
