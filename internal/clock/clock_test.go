package clock

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		want    int
		wantErr bool
	}{
		{"moscow", "GMT+03:00", 180, false},
		{"utc", "GMT+00:00", 0, false},
		{"negative", "GMT-05:30", -330, false},
		{"max positive", "GMT+14:00", 840, false},
		{"max negative", "GMT-14:00", -840, false},
		{"beyond max hours", "GMT+15:00", 0, true},
		{"beyond max with minutes", "GMT+14:01", 0, true},
		{"minutes overflow", "GMT+03:60", 0, true},
		{"missing sign", "GMT03:00", 0, true},
		{"iana name", "Europe/Moscow", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffset(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOffset(%q) error = %v, wantErr %v", tt.tz, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOffset(%q) = %d, want %d", tt.tz, got, tt.want)
			}
		})
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{180, "GMT+03:00"},
		{0, "GMT+00:00"},
		{-330, "GMT-05:30"},
		{840, "GMT+14:00"},
	}

	for _, tt := range tests {
		if got := FormatOffset(tt.minutes); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestWakeWindowContains(t *testing.T) {
	wake := MinutesOfDay(7, 0)

	tests := []struct {
		name string
		now  int
		want bool
	}{
		{"lower bound inclusive", wake - 55, true},
		{"upper bound inclusive", wake + 10, true},
		{"one before lower bound", wake - 56, false},
		{"one past upper bound", wake + 11, false},
		{"exact wake time", wake, true},
		{"mid window", wake - 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WakeWindowContains(tt.now, wake); got != tt.want {
				t.Errorf("WakeWindowContains(%d, %d) = %v, want %v", tt.now, wake, got, tt.want)
			}
		})
	}
}

func TestWakeWindowMidnightWrap(t *testing.T) {
	wake := MinutesOfDay(0, 10)

	tests := []struct {
		name string
		now  int
		want bool
	}{
		{"previous evening inside", MinutesOfDay(23, 30), true},
		{"window start", MinutesOfDay(23, 15), true},
		{"just before window start", MinutesOfDay(23, 14), false},
		{"window end after midnight", MinutesOfDay(0, 20), true},
		{"just past window end", MinutesOfDay(0, 21), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WakeWindowContains(tt.now, wake); got != tt.want {
				t.Errorf("WakeWindowContains(%d, %d) = %v, want %v", tt.now, wake, got, tt.want)
			}
		})
	}
}

func TestInCircularRange(t *testing.T) {
	tests := []struct {
		name            string
		now, start, end int
		want            bool
	}{
		{"plain range inside", 100, 50, 150, true},
		{"plain range boundary start", 50, 50, 150, true},
		{"plain range boundary end", 150, 50, 150, true},
		{"plain range outside", 151, 50, 150, false},
		{"wrapping inside before midnight", 1430, 1400, 20, true},
		{"wrapping inside after midnight", 10, 1400, 20, true},
		{"wrapping outside", 700, 1400, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InCircularRange(tt.now, tt.start, tt.end); got != tt.want {
				t.Errorf("InCircularRange(%d, %d, %d) = %v, want %v", tt.now, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestUTCRangeForLocalDay(t *testing.T) {
	// 2026-03-10 01:30 UTC is still 2026-03-09 evening in GMT-05:00.
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	start, end, date, err := UTCRangeForLocalDay(now, "GMT-05:00")
	if err != nil {
		t.Fatalf("UTCRangeForLocalDay: %v", err)
	}

	if date != "2026-03-09" {
		t.Errorf("local date = %q, want 2026-03-09", date)
	}

	wantStart := time.Date(2026, 3, 9, 5, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestUTCRangeMoscow(t *testing.T) {
	now := time.Date(2026, 8, 23, 4, 10, 0, 0, time.UTC)

	start, _, date, err := UTCRangeForLocalDay(now, "GMT+03:00")
	if err != nil {
		t.Fatalf("UTCRangeForLocalDay: %v", err)
	}

	if date != "2026-08-23" {
		t.Errorf("local date = %q, want 2026-08-23", date)
	}

	wantStart := time.Date(2026, 8, 22, 21, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
}

func TestLocalParts(t *testing.T) {
	instant := time.Date(2026, 8, 23, 4, 10, 0, 0, time.UTC)

	_, _, day, hour, minute, err := LocalParts(instant, "GMT+03:00")
	if err != nil {
		t.Fatalf("LocalParts: %v", err)
	}

	if day != 23 || hour != 7 || minute != 10 {
		t.Errorf("LocalParts = day %d %02d:%02d, want day 23 07:10", day, hour, minute)
	}
}

func TestOffsetMinutesIANA(t *testing.T) {
	// Fixed offsets are exact; geographic zones go through the tzdb.
	instant := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	got, err := OffsetMinutes(instant, "GMT+03:00")
	if err != nil {
		t.Fatalf("OffsetMinutes: %v", err)
	}
	if got != 180 {
		t.Errorf("OffsetMinutes = %d, want 180", got)
	}

	if _, err := OffsetMinutes(instant, "Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"07:00", 420, false},
		{"00:10", 10, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"07:60", 0, true},
		{"7am", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseHHMM(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseHHMM(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseHHMM(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWakeUTCMinutes(t *testing.T) {
	// 07:00 local in GMT+03:00 is 04:00 UTC.
	if got := WakeUTCMinutes(MinutesOfDay(7, 0), 180); got != MinutesOfDay(4, 0) {
		t.Errorf("WakeUTCMinutes = %d, want %d", got, MinutesOfDay(4, 0))
	}

	// 01:00 local in GMT+03:00 wraps to 22:00 UTC the previous day.
	if got := WakeUTCMinutes(MinutesOfDay(1, 0), 180); got != MinutesOfDay(22, 0) {
		t.Errorf("WakeUTCMinutes wrap = %d, want %d", got, MinutesOfDay(22, 0))
	}
}
