package util

import "testing"

func TestNormalizePeriod(t *testing.T) {
	cases := map[string]string{
		"2025-Q3":        "2025-Q3",
		"2025Q3":         "2025-Q3",
		"2025 q3":        "2025-Q3",
		"Q3 2025":        "2025-Q3",
		"q3-2025":        "2025-Q3",
		"2025 quarter 3": "2025-Q3",
		"2025":           "2025",
		"FY2025":         "FY2025",
		"":               "",
	}
	for in, want := range cases {
		if got := NormalizePeriod(in); got != want {
			t.Fatalf("NormalizePeriod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	y, q, ok := ParsePeriod("2025-Q3")
	if !ok || y != 2025 || q != 3 {
		t.Fatalf("ParsePeriod(2025-Q3) = %d %d %v", y, q, ok)
	}
	if _, _, ok := ParsePeriod("2025-Q5"); ok {
		t.Fatalf("expected quarter 5 to be rejected")
	}
	if _, _, ok := ParsePeriod("2025"); ok {
		t.Fatalf("expected bare year to be rejected")
	}
}

func TestPrevQuarterPeriod(t *testing.T) {
	if p, ok := PrevQuarterPeriod("2025-Q3"); !ok || p != "2025-Q2" {
		t.Fatalf("got %q %v", p, ok)
	}
	if p, ok := PrevQuarterPeriod("2025-Q1"); !ok || p != "2024-Q4" {
		t.Fatalf("year rollover: got %q %v", p, ok)
	}
	if _, ok := PrevQuarterPeriod("garbage"); ok {
		t.Fatalf("expected failure for non-quarterly period")
	}
}

func TestPrevYearPeriod(t *testing.T) {
	if p, ok := PrevYearPeriod("2025-Q1"); !ok || p != "2024-Q1" {
		t.Fatalf("got %q %v", p, ok)
	}
}

func TestNormalizeTicker(t *testing.T) {
	cases := map[string]string{
		"aapl":    "AAPL",
		"AAPL.US": "AAPL",
		"msft.o":  "MSFT",
		"BRK.A":   "BRK",
		" tsla ":  "TSLA",
	}
	for in, want := range cases {
		if got := NormalizeTicker(in); got != want {
			t.Fatalf("NormalizeTicker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidTicker(t *testing.T) {
	for _, ok := range []string{"A", "AAPL", "GOOGL"} {
		if !ValidTicker(ok) {
			t.Fatalf("expected %q to be valid", ok)
		}
	}
	for _, bad := range []string{"", "aapl", "TOOLONG", "BRK.B", "123"} {
		if ValidTicker(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}
