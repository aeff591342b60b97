package consensus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/util"
)

// Source is an in-memory consensus table seeded from a CSV file with
// columns ticker,period,metric,value. Read-only after load.
type Source struct {
	estimates map[string]float64
}

// NewEmpty returns a source with no estimates; every lookup misses.
func NewEmpty() *Source {
	return &Source{estimates: make(map[string]float64)}
}

// LoadCSV reads the estimate table from path. A header row is detected and
// skipped. Malformed rows abort the load.
func LoadCSV(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open consensus csv: %w", err)
	}
	defer f.Close()

	s := NewEmpty()
	r := csv.NewReader(f)
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read consensus csv: %w", err)
		}
		line++
		if len(row) < 4 {
			return nil, fmt.Errorf("consensus csv line %d: want 4 columns, got %d", line, len(row))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "ticker") {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("consensus csv line %d: bad value: %w", line, err)
		}
		ticker := util.NormalizeTicker(row[0])
		period := util.NormalizePeriod(row[1])
		metric := strings.ToLower(strings.TrimSpace(row[2]))
		s.estimates[key(ticker, period, metric)] = value
	}
	return s, nil
}

// Consensus returns the analyst estimate for (ticker, period, metric).
func (s *Source) Consensus(ticker, period, metric string) (float64, bool) {
	v, ok := s.estimates[key(ticker, period, metric)]
	return v, ok
}

// Len returns the number of loaded estimates.
func (s *Source) Len() int { return len(s.estimates) }

func key(ticker, period, metric string) string {
	return ticker + "|" + period + "|" + metric
}
