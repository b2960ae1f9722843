package nlp

import (
	"testing"
	"time"
)

var anchor = time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local) // a Tuesday

func TestResolveDefaults(t *testing.T) {
	got := Resolve("", "", anchor)

	want := time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Errorf("Resolve(\"\", \"\") = %v, want %v", got.At, want)
	}
	if !got.DateDefaulted || !got.TimeDefaulted {
		t.Errorf("expected both parts defaulted, got date=%v time=%v", got.DateDefaulted, got.TimeDefaulted)
	}
}

func TestResolveDates(t *testing.T) {
	tests := []struct {
		name      string
		dateToken string
		wantDay   time.Time
		defaulted bool
	}{
		{"hoje", "hoje", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), false},
		{"amanhã", "amanhã", time.Date(2025, 6, 11, 9, 0, 0, 0, time.Local), false},
		{"amanha unaccented", "amanha", time.Date(2025, 6, 11, 9, 0, 0, 0, time.Local), false},
		{"day month", "20/12", time.Date(2025, 12, 20, 9, 0, 0, 0, time.Local), false},
		{"dash separated", "20-12", time.Date(2025, 12, 20, 9, 0, 0, 0, time.Local), false},
		{"two digit year", "25/05/26", time.Date(2026, 5, 25, 9, 0, 0, 0, time.Local), false},
		{"four digit year", "25/05/2027", time.Date(2027, 5, 25, 9, 0, 0, 0, time.Local), false},
		// Malformed input degrades to today instead of failing.
		{"invalid calendar date", "31/02", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), true},
		{"month out of range", "10/13", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), true},
		{"garbage", "segunda", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), true},
		{"too many parts", "1/2/3/4", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.dateToken, "", anchor)
			if !got.At.Equal(tt.wantDay) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.dateToken, got.At, tt.wantDay)
			}
			if got.DateDefaulted != tt.defaulted {
				t.Errorf("Resolve(%q) DateDefaulted = %v, want %v", tt.dateToken, got.DateDefaulted, tt.defaulted)
			}
		})
	}
}

func TestResolveTimes(t *testing.T) {
	tests := []struct {
		name       string
		timeToken  string
		wantHour   int
		wantMinute int
		defaulted  bool
	}{
		{"bare hour", "8", 8, 0, false},
		{"colon", "14:30", 14, 30, false},
		{"lowercase h", "17h45", 17, 45, false},
		{"uppercase H", "17H45", 17, 45, false},
		{"hour with trailing h", "10h", 10, 0, false},
		{"hour out of range", "25", 9, 0, true},
		{"minute out of range", "10:75", 9, 0, true},
		{"garbage", "logo", 9, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve("", tt.timeToken, anchor)
			if got.At.Hour() != tt.wantHour || got.At.Minute() != tt.wantMinute {
				t.Errorf("Resolve(time=%q) = %02d:%02d, want %02d:%02d",
					tt.timeToken, got.At.Hour(), got.At.Minute(), tt.wantHour, tt.wantMinute)
			}
			if got.TimeDefaulted != tt.defaulted {
				t.Errorf("Resolve(time=%q) TimeDefaulted = %v, want %v", tt.timeToken, got.TimeDefaulted, tt.defaulted)
			}
			if got.At.Second() != 0 {
				t.Errorf("seconds must always be zero, got %d", got.At.Second())
			}
		})
	}
}

func TestResolveCombined(t *testing.T) {
	got := Resolve("amanhã", "10h", anchor)
	want := time.Date(2025, 6, 11, 10, 0, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Errorf("Resolve(amanhã, 10h) = %v, want %v", got.At, want)
	}
	if got.DateDefaulted || got.TimeDefaulted {
		t.Error("explicit tokens must not be flagged as defaulted")
	}
}
