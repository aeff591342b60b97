package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	periodYYYYQ   = regexp.MustCompile(`^(\d{4})\s*[-_ ]?\s*Q(\d)$`)
	periodQYYYY   = regexp.MustCompile(`^Q(\d)\s*[-_ ]?\s*(\d{4})$`)
	periodQuarter = regexp.MustCompile(`^(\d{4})\s*QUARTER\s*(\d)$`)
	periodYear    = regexp.MustCompile(`^\d{4}$`)

	tickerRe = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// NormalizePeriod converts common quarter spellings to the canonical
// "YYYY-QX" form ("2025Q3", "Q3 2025", "2025 quarter 3" -> "2025-Q3").
// Bare years pass through; anything else is returned unchanged.
func NormalizePeriod(period string) string {
	p := strings.ToUpper(strings.TrimSpace(period))
	if p == "" {
		return ""
	}
	if m := periodYYYYQ.FindStringSubmatch(p); m != nil {
		return m[1] + "-Q" + m[2]
	}
	if m := periodQYYYY.FindStringSubmatch(p); m != nil {
		return m[2] + "-Q" + m[1]
	}
	if m := periodQuarter.FindStringSubmatch(p); m != nil {
		return m[1] + "-Q" + m[2]
	}
	if periodYear.MatchString(p) {
		return p
	}
	return p
}

// ParsePeriod splits a canonical "YYYY-QX" period into year and quarter.
func ParsePeriod(period string) (year, quarter int, ok bool) {
	m := periodYYYYQ.FindStringSubmatch(strings.ToUpper(period))
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	quarter, _ = strconv.Atoi(m[2])
	if quarter < 1 || quarter > 4 {
		return 0, 0, false
	}
	return year, quarter, true
}

// PrevQuarterPeriod returns the period one quarter earlier ("2025-Q1" ->
// "2024-Q4"). ok is false for non-quarterly periods.
func PrevQuarterPeriod(period string) (string, bool) {
	y, q, ok := ParsePeriod(period)
	if !ok {
		return "", false
	}
	q--
	if q == 0 {
		q = 4
		y--
	}
	return fmt.Sprintf("%d-Q%d", y, q), true
}

// PrevYearPeriod returns the same quarter one year earlier.
func PrevYearPeriod(period string) (string, bool) {
	y, q, ok := ParsePeriod(period)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d-Q%d", y-1, q), true
}

// NormalizeTicker uppercases and strips exchange suffixes.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for _, suffix := range []string{".US", ".N", ".O", ".A"} {
		if strings.HasSuffix(t, suffix) {
			t = strings.TrimSuffix(t, suffix)
			break
		}
	}
	return t
}

// ValidTicker reports whether the ticker matches the expected 1-5 uppercase
// letter form.
func ValidTicker(ticker string) bool {
	return tickerRe.MatchString(ticker)
}
