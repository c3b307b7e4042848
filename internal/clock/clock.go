// Package clock holds the pure time arithmetic: fixed-offset zone
// parsing, local-day boundaries and circular wake-window membership.
package clock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerDay = 24 * 60

	// Wake window bounds relative to the committed wake time.
	WindowBeforeMinutes = 55
	WindowAfterMinutes  = 10

	// After wake+grace a direct report no longer counts.
	GraceAfterWakeMinutes = 30
)

var offsetPattern = regexp.MustCompile(`^GMT([+-])(\d{2}):(\d{2})$`)

// ParseOffset parses a canonical GMT±HH:MM string into signed minutes.
// Offsets beyond ±14:00 or with a minute part over 59 are rejected.
func ParseOffset(tz string) (int, error) {
	m := offsetPattern.FindStringSubmatch(tz)
	if m == nil {
		return 0, fmt.Errorf("invalid timezone format: %q", tz)
	}

	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])

	if hours > 14 || minutes > 59 || (hours == 14 && minutes > 0) {
		return 0, fmt.Errorf("timezone offset out of range: %q", tz)
	}

	total := hours*60 + minutes
	if m[1] == "-" {
		total = -total
	}

	return total, nil
}

// FormatOffset renders signed minutes back into GMT±HH:MM.
func FormatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}

	return fmt.Sprintf("GMT%s%02d:%02d", sign, minutes/60, minutes%60)
}

// Location resolves either a fixed GMT±HH:MM offset or an IANA zone
// name. Anything else is a configuration error for the caller.
func Location(tz string) (*time.Location, error) {
	if strings.HasPrefix(tz, "GMT") {
		offset, err := ParseOffset(tz)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(tz, offset*60), nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// LocalParts returns the local calendar parts of an instant in tz.
func LocalParts(instant time.Time, tz string) (year int, month time.Month, day, hour, minute int, err error) {
	loc, err := Location(tz)
	if err != nil {
		return 0, 0, 0, 0, 0, err
	}

	local := instant.In(loc)
	year, month, day = local.Date()
	hour = local.Hour()
	minute = local.Minute()
	return year, month, day, hour, minute, nil
}

// OffsetMinutes returns local-minus-UTC in minutes for an instant,
// honoring DST for geographic zones.
func OffsetMinutes(instant time.Time, tz string) (int, error) {
	loc, err := Location(tz)
	if err != nil {
		return 0, err
	}

	_, offsetSeconds := instant.In(loc).Zone()
	return offsetSeconds / 60, nil
}

func MinutesOfDay(hour, minute int) int {
	return hour*60 + minute
}

// FormatHHMM renders a minute-of-day value as HH:MM.
func FormatHHMM(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseHHMM parses HH:MM into a minute-of-day value.
func ParseHHMM(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return MinutesOfDay(hour, minute), nil
}

// IsInWindow reports whether now lies in [start, start+windowLen]
// inclusive, on a 24h circle.
func IsInWindow(nowMinutes, startMinutes, windowLen int) bool {
	return InCircularRange(nowMinutes, startMinutes, (startMinutes+windowLen)%MinutesPerDay)
}

// InCircularRange reports whether now lies in the inclusive [start, end]
// range on a 24h clock. start > end means the range wraps midnight.
func InCircularRange(nowMinutes, startMinutes, endMinutes int) bool {
	nowMinutes = ((nowMinutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	startMinutes = ((startMinutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	endMinutes = ((endMinutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay

	if startMinutes <= endMinutes {
		return nowMinutes >= startMinutes && nowMinutes <= endMinutes
	}
	return nowMinutes >= startMinutes || nowMinutes <= endMinutes
}

// WakeWindowContains reports whether a tap at nowMinutes falls inside
// the accepted window around wakeMinutes.
func WakeWindowContains(nowMinutes, wakeMinutes int) bool {
	start := ((wakeMinutes-WindowBeforeMinutes)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
	end := (wakeMinutes + WindowAfterMinutes) % MinutesPerDay
	return InCircularRange(nowMinutes, start, end)
}

// UTCRangeForLocalDay returns the UTC instants bounding the local
// calendar day containing now, plus the local date string used as the
// one-check-in-per-day dedup key.
func UTCRangeForLocalDay(now time.Time, tz string) (startUTC, endUTC time.Time, localDate string, err error) {
	loc, err := Location(tz)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}

	local := now.In(loc)
	year, month, day := local.Date()

	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	return dayStart.UTC(), dayEnd.UTC(), dayStart.Format("2006-01-02"), nil
}

// WakeUTCMinutes converts a local wake minute-of-day to its UTC
// minute-of-day given a fixed offset.
func WakeUTCMinutes(wakeLocalMinutes, offsetMinutes int) int {
	return ((wakeLocalMinutes-offsetMinutes)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
}
