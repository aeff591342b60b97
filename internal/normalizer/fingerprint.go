package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
)

// Fingerprint computes a deterministic content digest over the ticker,
// period, doc type and raw field values. Two uploads carrying identical
// content produce the same fingerprint regardless of doc ID or field order.
func Fingerprint(ticker, period string, docType models.DocType, fields []repository.ExtractedField) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%s=%.10g|%s", canonicalMetric(f.Metric), f.Value, f.Unit))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s\n", ticker, period, docType)
	h.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
