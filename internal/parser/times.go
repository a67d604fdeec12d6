package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reClock     = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	reDigits    = regexp.MustCompile(`^\d{1,4}$`)
	reTimeRange = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})(?::\d{2})?\s*(?:-|\x{2013}|\x{2014}|to)\s*(\d{1,2}:\d{2})(?::\d{2})?`)
)

// ParseTimeToken normalizes a compressed numeric time into "HH:MM".
// Disambiguation rules for bare digits:
//
//	"8"    -> 08:00
//	"80"   -> 08:00 (trailing zero read as minutes)
//	"12"   -> 12:00
//	"830"  -> 08:30
//	"1230" -> 12:30
//
// Hour and minute are clamped into range rather than rejected. Returns
// ("", false) when the token isn't a time at all.
func ParseTimeToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := reClock.FindStringSubmatch(raw); m != nil {
		return clampClock(atoi(m[1]), atoi(m[2])), true
	}
	if !reDigits.MatchString(raw) {
		return "", false
	}
	var hh, mm int
	switch len(raw) {
	case 1:
		hh = atoi(raw)
	case 2:
		if raw[1] == '0' {
			hh = atoi(raw[:1])
		} else {
			hh = atoi(raw)
		}
	case 3:
		hh = atoi(raw[:1])
		mm = atoi(raw[1:])
	default:
		hh = atoi(raw[:2])
		mm = atoi(raw[2:])
	}
	return clampClock(hh, mm), true
}

func clampClock(hh, mm int) string {
	if hh < 0 {
		hh = 0
	}
	if hh > 23 {
		hh = 23
	}
	if mm < 0 {
		mm = 0
	}
	if mm > 59 {
		mm = 59
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// normalizeClockPiece turns a loosely captured time fragment ("8", "830",
// "8:00", "8 : 30") into HH:MM.
func normalizeClockPiece(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		if parts[1] == "" {
			parts[1] = "0"
		}
		return clampClock(atoi(parts[0]), atoi(parts[1]))
	}
	switch len(s) {
	case 1, 2:
		return clampClock(atoi(s), 0)
	case 3:
		return clampClock(atoi(s[:1]), atoi(s[1:]))
	default:
		return clampClock(atoi(s[:2]), atoi(s[2:]))
	}
}

// ExtractTimeRanges scans text for "HH:MM-HH:MM" style ranges (seconds and
// the word "to" tolerated) and returns each normalized to "HH:MM-HH:MM".
func ExtractTimeRanges(text string) []string {
	var out []string
	for _, m := range reTimeRange.FindAllStringSubmatch(text, -1) {
		a := normalizeClockPiece(m[1])
		b := normalizeClockPiece(m[2])
		out = append(out, a+"-"+b)
	}
	return out
}

// FirstTime returns the first clock time mentioned in text as HH:MM, or "".
func FirstTime(text string) string {
	if m := reClock.FindStringSubmatch(text); m != nil {
		return clampClock(atoi(m[1]), atoi(m[2]))
	}
	return ""
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}
