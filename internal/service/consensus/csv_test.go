package consensus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consensus.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "ticker,period,metric,value\nAAPL,2025-Q3,eps,1.40\naapl.us,2025Q3,Revenue,97000000000\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	v, ok := s.Consensus("AAPL", "2025-Q3", "eps")
	require.True(t, ok)
	assert.Equal(t, 1.40, v)

	// Ticker and period are normalized on load.
	v, ok = s.Consensus("AAPL", "2025-Q3", "revenue")
	require.True(t, ok)
	assert.Equal(t, 97e9, v)

	_, ok = s.Consensus("MSFT", "2025-Q3", "eps")
	assert.False(t, ok)
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	path := writeCSV(t, "AAPL,2025-Q3,eps,1.40\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestLoadCSVRejectsMalformedRows(t *testing.T) {
	path := writeCSV(t, "AAPL,2025-Q3,eps,not-a-number\n")
	_, err := LoadCSV(path)
	assert.Error(t, err)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestEmptySourceAlwaysMisses(t *testing.T) {
	s := NewEmpty()
	_, ok := s.Consensus("AAPL", "2025-Q3", "eps")
	assert.False(t, ok)
}
