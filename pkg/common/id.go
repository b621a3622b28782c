package common

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fact identity
//
// Every fact carries a deterministic ID derived from its load-bearing
// fields. Two observations with the same fingerprint are the same fact,
// no matter which feed produced them or in which order they arrived.
// Dates are truncated to day precision on purpose: news feeds rarely
// agree on anything finer, and the occasional same-day round collapse
// is an accepted trade-off.

func dayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func shortHash(fingerprint string, n int) string {
	sum := sha1.Sum([]byte(fingerprint))
	return hex.EncodeToString(sum[:])[:n]
}

// InvestmentFactID returns the stable identifier for an investment fact.
func InvestmentFactID(inv Investment) string {
	fp := strings.Join([]string{
		NormalizeName(inv.Investor.Name),
		NormalizeName(inv.Investee.Name),
		fmt.Sprintf("%.3f", inv.Amount),
		string(inv.Stage),
		dayKey(inv.Date),
	}, "|")
	return "inv:" + shortHash(fp, 20)
}

// EventFactID returns the stable identifier for an event fact.
func EventFactID(e Event) string {
	fp := strings.Join([]string{
		NormalizeName(e.Name),
		NormalizeName(e.URL),
		dayKey(e.Date),
	}, "|")
	return "evt:" + shortHash(fp, 20)
}
