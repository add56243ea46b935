package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jaboteur/Pmetrics/internal/summary"
)

// DomainSummary prefixes summary content hashes.
// Version suffix enables future algorithm migration.
const DomainSummary = "pmetrics/summary/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the content address of an encoded summary body.
func ContentHash(body []byte) string {
	return hashWithDomain(DomainSummary, body)
}

// EncodeSummary returns the archived body of a summary.
// Equal summaries encode to identical bytes.
func EncodeSummary(s *summary.FinalCycleSummary) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return body, nil
}
