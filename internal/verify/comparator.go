// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package verify implements the promise/invoice comparison engine: pure
// field comparators, the severity-weighted scoring policy, and the
// orchestrator that prefers an external AI scorer but always falls back to
// the deterministic rules.
package verify

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/trustcart/trustcart/internal/domain"
)

// priceTolerance is the absolute tolerance applied to numeric fields.
// Differences at or below one paisa are treated as rounding noise.
const priceTolerance = 0.01

var embeddedIntRe = regexp.MustCompile(`\d+`)

// CompareFields runs all five field comparators in their fixed order and
// returns the resulting mismatches. It is pure and safe for concurrent use.
func CompareFields(promise domain.PromiseRecord, invoice domain.InvoiceRecord) []domain.Mismatch {
	var mismatches []domain.Mismatch

	if math.Abs(promise.Price-invoice.Price) > priceTolerance {
		mismatches = append(mismatches, domain.Mismatch{
			Field:       domain.FieldPrice,
			Promised:    promise.Price,
			Actual:      invoice.Price,
			Severity:    domain.SeverityHigh,
			Explanation: fmt.Sprintf("Price mismatch: promised %s but invoice shows %s", formatAmount(promise.Price), formatAmount(invoice.Price)),
		})
	}

	if math.Abs(promise.DeliveryCharges-invoice.DeliveryCharges) > priceTolerance {
		mismatches = append(mismatches, domain.Mismatch{
			Field:       domain.FieldDeliveryCharges,
			Promised:    promise.DeliveryCharges,
			Actual:      invoice.DeliveryCharges,
			Severity:    domain.SeverityMedium,
			Explanation: fmt.Sprintf("Delivery charges mismatch: promised %s but invoice shows %s", formatAmount(promise.DeliveryCharges), formatAmount(invoice.DeliveryCharges)),
		})
	}

	if !strings.EqualFold(promise.DeliveryTime, invoice.DeliveryTime) {
		mismatches = append(mismatches, domain.Mismatch{
			Field:       domain.FieldDeliveryTime,
			Promised:    promise.DeliveryTime,
			Actual:      invoice.DeliveryTime,
			Severity:    domain.SeverityMedium,
			Explanation: fmt.Sprintf("Delivery time mismatch: promised %q but invoice shows %q", promise.DeliveryTime, invoice.DeliveryTime),
		})
	}

	if !PoliciesSimilar(promise.ReturnPolicy, invoice.ReturnPolicy) {
		mismatches = append(mismatches, domain.Mismatch{
			Field:       domain.FieldReturnPolicy,
			Promised:    promise.ReturnPolicy,
			Actual:      invoice.ReturnPolicy,
			Severity:    domain.SeverityHigh,
			Explanation: fmt.Sprintf("Return policy mismatch: promised %q but invoice shows %q", promise.ReturnPolicy, invoice.ReturnPolicy),
		})
	}

	if !DescriptionsSimilar(promise.ProductDescription, invoice.ProductDescription) {
		mismatches = append(mismatches, domain.Mismatch{
			Field:       domain.FieldProductDescription,
			Promised:    promise.ProductDescription,
			Actual:      invoice.ProductDescription,
			Severity:    domain.SeverityLow,
			Explanation: "Product description differs between promise and invoice",
		})
	}

	return mismatches
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// zeroPolicyKeywords signal a "no returns at all" policy.
var zeroPolicyKeywords = []string{
	"no warranty", "no return", "no refund", "0 month", "0 day", "zero", "none",
}

var warrantyKeywords = []string{"warranty", "guarantee", "coverage"}
var returnKeywords = []string{"return", "refund", "exchange"}

// PoliciesSimilar reports whether two return-policy statements describe the
// same policy. The check is symmetric in its arguments.
func PoliciesSimilar(a, b string) bool {
	p1 := strings.ToLower(strings.TrimSpace(a))
	p2 := strings.ToLower(strings.TrimSpace(b))

	if p1 == p2 {
		return true
	}

	nums1 := extractInts(p1)
	nums2 := extractInts(p2)

	// Numeric durations must agree exactly; "7 days" vs "5 days" is a lie,
	// and so is "5" vs "0".
	if len(nums1) > 0 && len(nums2) > 0 && maxInt(nums1) != maxInt(nums2) {
		return false
	}

	if signalsZeroPolicy(p1, nums1) != signalsZeroPolicy(p2, nums2) {
		return false
	}

	// A warranty statement and a return statement cover different things
	// even when their durations line up.
	if categoryConflict(p1, p2) || categoryConflict(p2, p1) {
		return false
	}

	return tokenOverlapSimilar(p1, p2, 0.9, false)
}

func signalsZeroPolicy(policy string, nums []int) bool {
	for _, kw := range zeroPolicyKeywords {
		if strings.Contains(policy, kw) {
			return true
		}
	}
	for _, n := range nums {
		if n == 0 {
			return true
		}
	}
	return false
}

func categoryConflict(a, b string) bool {
	return containsAny(a, warrantyKeywords) && !containsAny(a, returnKeywords) &&
		containsAny(b, returnKeywords) && !containsAny(b, warrantyKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// criticalAntonyms are word pairs whose presence on opposite sides marks the
// descriptions as materially different regardless of overall similarity.
var criticalAntonyms = [][2]string{
	{"replacement", "repair"},
	{"new", "used"},
	{"original", "duplicate"},
	{"warranty", "guarantee"},
	{"free", "paid"},
	{"unlimited", "limited"},
	{"premium", "basic"},
	{"professional", "standard"},
}

// DescriptionsSimilar reports whether two product descriptions plausibly
// describe the same offering. The heuristic is a hand-tuned proxy, not an
// oracle; thresholds match the production tuning.
func DescriptionsSimilar(a, b string) bool {
	d1 := strings.ToLower(strings.TrimSpace(a))
	d2 := strings.ToLower(strings.TrimSpace(b))

	if d1 == d2 {
		return true
	}

	nums1 := extractInts(d1)
	nums2 := extractInts(d2)
	if len(nums1) != len(nums2) {
		return false
	}
	if len(nums1) > 0 && maxInt(nums1) != maxInt(nums2) {
		return false
	}

	for _, pair := range criticalAntonyms {
		has1a := strings.Contains(d1, pair[0])
		has2a := strings.Contains(d1, pair[1])
		has1b := strings.Contains(d2, pair[0])
		has2b := strings.Contains(d2, pair[1])
		if (has1a && has2b) || (has2a && has1b) {
			return false
		}
	}

	return tokenOverlapSimilar(d1, d2, 0.7, true)
}

// tokenOverlapSimilar tokenizes both strings into sets of words longer than
// two characters and requires that at least ratio of the smaller set matches
// the other. With fuzzy set, a token matches on substring inclusion in
// either direction; otherwise only exact word matches count.
func tokenOverlapSimilar(a, b string, ratio float64, fuzzy bool) bool {
	set1 := tokenSet(a)
	set2 := tokenSet(b)

	if len(set1) == 0 || len(set2) == 0 {
		return false
	}

	small, large := set1, set2
	if len(set2) < len(set1) {
		small, large = set2, set1
	}

	matched := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			matched++
			continue
		}
		if !fuzzy {
			continue
		}
		for other := range large {
			if strings.Contains(other, tok) || strings.Contains(tok, other) {
				matched++
				break
			}
		}
	}

	return float64(matched) >= ratio*float64(len(small))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		if len(word) > 2 {
			set[word] = struct{}{}
		}
	}
	return set
}

func extractInts(s string) []int {
	var nums []int
	for _, m := range embeddedIntRe.FindAllString(s, -1) {
		if n, err := strconv.Atoi(m); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}

func maxInt(nums []int) int {
	max := nums[0]
	for _, n := range nums[1:] {
		if n > max {
			max = n
		}
	}
	return max
}
