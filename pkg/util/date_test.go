package util

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2025-07-01T12:00:00Z", true, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)},
		{"2025-07-01", true, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"1751371200", true, time.Unix(1751371200, 0)},
		{"", false, time.Time{}},
		{"not-a-date", false, time.Time{}},
	}
	for _, c := range cases {
		got, ok := ParseTime(c.in)
		if ok != c.ok {
			t.Fatalf("ParseTime(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && !got.Equal(c.want) {
			t.Fatalf("ParseTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("garbage", def); !got.Equal(def) {
		t.Fatalf("ParseTimeDefault fallback = %v, want %v", got, def)
	}
	want := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("2025-03-31", def); !got.Equal(want) {
		t.Fatalf("ParseTimeDefault = %v, want %v", got, want)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("ParseIntDefault(42) = %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("ParseIntDefault empty = %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("ParseIntDefault invalid = %d", got)
	}
}
