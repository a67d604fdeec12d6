package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthIndex = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	if n, ok := monthIndex[name]; ok {
		return n
	}
	if len(name) >= 3 {
		abbr := name[:3]
		for full, n := range monthIndex {
			if strings.HasPrefix(full, abbr) {
				return n
			}
		}
	}
	return 0
}

var (
	reISODate     = regexp.MustCompile(`(20\d{2}-\d{2}-\d{2})`)
	reDMYDate     = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](20\d{2})`)
	reOrdinal     = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)`)
	reDayMonth    = regexp.MustCompile(`(\d{1,2})\s+([a-z]{3,9})\s+(20\d{2})`)
	reMonthDay    = regexp.MustCompile(`([a-z]{3,9})\s+(\d{1,2})\s*(?:,?\s*(20\d{2}))?`)
	reDateRange   = regexp.MustCompile(`(?i)(\d{1,2}[./-]\d{1,2}[./-](?:20)?\d{2}).{0,30}?(?:till|to|until|through|thru|-|\x{2013}|\x{2014}).{0,30}?(\d{1,2}[./-]\d{1,2}[./-](?:20)?\d{2})`)
	reLooseDMY    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2,4})`)
	reDayMonthHdr = regexp.MustCompile(`\d{1,2}(st|nd|rd|th)?\s+[A-Za-z]{3,}`)
)

// Dates parses loosely formatted dates relative to the injected clock's
// "today" (used only to default an omitted year).
type Dates struct {
	clock Clock
}

func NewDates(clock Clock) *Dates {
	return &Dates{clock: clock}
}

// Parse extracts the first recognizable date in text and returns it as
// YYYY-MM-DD, or "" when nothing matches. Priority: ISO, day-first
// numeric, "31 Jan 2025", "Jan 31" (current year assumed).
func (dp *Dates) Parse(text string) string {
	if text == "" {
		return ""
	}
	t := strings.TrimSpace(text)
	if m := reISODate.FindString(t); m != "" {
		return m
	}
	if m := reDMYDate.FindStringSubmatch(t); m != nil {
		if iso := isoFromDMY(m[1], m[2], m[3]); iso != "" {
			return iso
		}
	}
	t2 := reOrdinal.ReplaceAllString(strings.ToLower(t), "$1")
	if m := reDayMonth.FindStringSubmatch(t2); m != nil {
		if mon := monthNumber(m[2]); mon != 0 {
			if iso := isoFromParts(m[3], mon, m[1]); iso != "" {
				return iso
			}
		}
	}
	if m := reMonthDay.FindStringSubmatch(t2); m != nil {
		if mon := monthNumber(m[1]); mon != 0 {
			year := m[3]
			if year == "" {
				year = dp.clock.TodayISO()[:4]
			}
			if iso := isoFromParts(year, mon, m[2]); iso != "" {
				return iso
			}
		}
	}
	return ""
}

// ParseOrToday falls back to the hospital-local today.
func (dp *Dates) ParseOrToday(text string) string {
	if iso := dp.Parse(text); iso != "" {
		return iso
	}
	return dp.clock.TodayISO()
}

// ExtractRange finds two dates joined by a connector word within a bounded
// window and returns them ordered. Two-digit years are expanded to 20xx.
func (dp *Dates) ExtractRange(text string) (string, string, bool) {
	m := reDateRange.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	a := normalizeLooseDMY(m[1])
	b := normalizeLooseDMY(m[2])
	if a == "" || b == "" {
		return "", "", false
	}
	if b < a {
		a, b = b, a
	}
	return a, b, true
}

func normalizeLooseDMY(s string) string {
	s = strings.NewReplacer(".", "/", "-", "/").Replace(s)
	m := reLooseDMY.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	y := m[3]
	if len(y) == 2 {
		y = "20" + y
	}
	return isoFromDMY(m[1], m[2], y)
}

func isoFromDMY(day, month, year string) string {
	return isoFromParts(year, atoi(month), day)
}

func isoFromParts(year string, month int, day string) string {
	y := atoi(year)
	d := atoi(day)
	if y == 0 || month < 1 || month > 12 || d < 1 || d > 31 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, month, d)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// ExpandRange returns every ISO date from start to end inclusive, swapping
// if reversed. Unparseable bounds yield just the start date, matching the
// lenient behavior callers rely on.
func ExpandRange(startISO, endISO string) []string {
	a, errA := time.Parse("2006-01-02", startISO)
	b, errB := time.Parse("2006-01-02", endISO)
	if errA != nil || errB != nil {
		return []string{startISO}
	}
	if b.Before(a) {
		a, b = b, a
	}
	var out []string
	for cur := a; !cur.After(b); cur = cur.AddDate(0, 0, 1) {
		out = append(out, cur.Format("2006-01-02"))
	}
	return out
}

// FormatDMY renders an ISO date as DD/MM/YYYY for human-facing reasons.
func FormatDMY(iso string) string {
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return d.Format("02/01/2006")
}

// DisplayDate renders an ISO date as "02 JAN 2006".
func DisplayDate(iso string) string {
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return strings.ToUpper(d.Format("02 Jan 2006"))
}
