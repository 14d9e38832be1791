// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"
	"strings"

	"github.com/trustcart/trustcart/internal/domain"
)

// Weights holds the scoring policy tuning values. The defaults are the
// production tuning; they can be overridden from configuration.
type Weights struct {
	// Severity penalties per mismatch.
	High   int `yaml:"high" json:"high"`
	Medium int `yaml:"medium" json:"medium"`
	Low    int `yaml:"low" json:"low"`

	// PerExtraMismatch is multiplied by the mismatch count when more than
	// one field disagrees.
	PerExtraMismatch int `yaml:"per-extra-mismatch" json:"per-extra-mismatch"`

	// CriticalField is added once per mismatch on price or returnPolicy.
	CriticalField int `yaml:"critical-field" json:"critical-field"`

	// PolicyBreach is a flat penalty applied when the return policy
	// mismatches at all. It stacks with CriticalField for that mismatch.
	PolicyBreach int `yaml:"policy-breach" json:"policy-breach"`
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		High:             35,
		Medium:           20,
		Low:              10,
		PerExtraMismatch: 8,
		CriticalField:    15,
		PolicyBreach:     25,
	}
}

// Score folds an ordered mismatch sequence into a 0-100 transaction score.
// Return-policy lies are penalized categorically harder than price lies of
// similar magnitude: trust, not cost, is being measured.
func Score(mismatches []domain.Mismatch, w Weights) int {
	const totalFields = 5

	base := float64(totalFields-len(mismatches)) / totalFields * 100

	penalty := 0
	for _, m := range mismatches {
		switch m.Severity {
		case domain.SeverityHigh:
			penalty += w.High
		case domain.SeverityMedium:
			penalty += w.Medium
		case domain.SeverityLow:
			penalty += w.Low
		}
		if m.Field == domain.FieldPrice || m.Field == domain.FieldReturnPolicy {
			penalty += w.CriticalField
		}
	}

	if len(mismatches) > 1 {
		penalty += len(mismatches) * w.PerExtraMismatch
	}

	for _, m := range mismatches {
		if m.Field == domain.FieldReturnPolicy {
			penalty += w.PolicyBreach
			break
		}
	}

	return ClampScore(int(base) - penalty)
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// PerfectMatchAnalysis is the fixed analysis text for zero mismatches.
const PerfectMatchAnalysis = "Perfect match! All seller promises align with the invoice. This seller demonstrates high trustworthiness."

// Analysis renders the human-readable report for a scored comparison:
// mismatches grouped by severity, the numeric score, a qualitative band,
// and a recommendation when any high-severity mismatch exists.
func Analysis(mismatches []domain.Mismatch, score int) string {
	if len(mismatches) == 0 {
		return PerfectMatchAnalysis
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Verification completed with %d mismatch(es) found:\n\n", len(mismatches))

	writeSection(&b, "CRITICAL ISSUES", mismatches, domain.SeverityHigh)
	writeSection(&b, "MODERATE CONCERNS", mismatches, domain.SeverityMedium)
	writeSection(&b, "MINOR DISCREPANCIES", mismatches, domain.SeverityLow)

	fmt.Fprintf(&b, "Overall Trust Score: %d/100\n\n", score)

	switch {
	case score >= 90:
		b.WriteString("EXCELLENT - Minimal discrepancies, highly trustworthy seller")
	case score >= 80:
		b.WriteString("GOOD - Minor issues detected, generally trustworthy")
	case score >= 70:
		b.WriteString("FAIR - Some concerns identified, proceed with caution")
	case score >= 50:
		b.WriteString("POOR - Multiple issues detected, high risk transaction")
	default:
		b.WriteString("CRITICAL - Significant mismatches found, avoid this seller")
	}

	if hasSeverity(mismatches, domain.SeverityHigh) {
		b.WriteString("\n\nRECOMMENDATION: Contact seller to clarify discrepancies before proceeding.")
	}

	return b.String()
}

func writeSection(b *strings.Builder, header string, mismatches []domain.Mismatch, severity domain.Severity) {
	if !hasSeverity(mismatches, severity) {
		return
	}
	b.WriteString(header + ":\n")
	for _, m := range mismatches {
		if m.Severity == severity {
			fmt.Fprintf(b, "  - %s\n", m.Explanation)
		}
	}
	b.WriteString("\n")
}

func hasSeverity(mismatches []domain.Mismatch, severity domain.Severity) bool {
	for _, m := range mismatches {
		if m.Severity == severity {
			return true
		}
	}
	return false
}
