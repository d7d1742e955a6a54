package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts seen in RSS pubDate, Atom updated and assorted API payloads.
var timestampLayouts = []string{
	time.RFC1123Z,                    // Mon, 02 Jan 2006 15:04:05 -0700
	time.RFC1123,                     // Mon, 02 Jan 2006 15:04:05 MST
	"Mon, 2 Jan 2006 15:04:05 -0700", // single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 06 15:04:05 -0700", // two-digit year
	"Mon, 02 Jan 06 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700", // no weekday
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano, // also accepts RFC3339
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp maps every supported source format onto one absolute UTC
// time. Decimal strings are epoch seconds, or epoch milliseconds when they
// have 13 or more digits. Zone-less layouts are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrParse)
	}

	if isDigits(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: epoch %q: %v", ErrParse, value, err)
		}
		if len(value) >= 13 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "MST") {
			t = anchorZone(t)
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrParse, value)
}

// zoneOffsets covers the abbreviations feeds commonly emit. time.Parse only
// knows UTC, GMT and the local zone; anything else parses with offset zero.
var zoneOffsets = map[string]int{
	"UT":   0,
	"UTC":  0,
	"GMT":  0,
	"Z":    0,
	"EST":  -5 * 3600,
	"EDT":  -4 * 3600,
	"CST":  -6 * 3600,
	"CDT":  -5 * 3600,
	"MST":  -7 * 3600,
	"MDT":  -6 * 3600,
	"PST":  -8 * 3600,
	"PDT":  -7 * 3600,
	"AKST": -9 * 3600,
	"AKDT": -8 * 3600,
	"HST":  -10 * 3600,
	"BST":  1 * 3600,
	"IST":  5*3600 + 1800,
	"CET":  1 * 3600,
	"CEST": 2 * 3600,
	"EET":  2 * 3600,
	"EEST": 3 * 3600,
	"MSK":  3 * 3600,
	"JST":  9 * 3600,
	"KST":  9 * 3600,
	"AEST": 10 * 3600,
	"AEDT": 11 * 3600,
}

// anchorZone re-reads the wall clock of t in the offset its zone
// abbreviation stands for. Unknown abbreviations are left as parsed.
func anchorZone(t time.Time) time.Time {
	name, _ := t.Zone()
	offset, ok := zoneOffsets[strings.ToUpper(name)]
	if !ok {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, offset))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
