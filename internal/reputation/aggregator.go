// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reputation folds per-transaction verification scores into each
// seller's running trust score. A first verification sets the trust score
// directly; later ones blend recent performance with the lifetime success
// rate, so a seller can recover from a bad patch while a sustained failure
// pattern still drags the score down.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/audit"
	"github.com/trustcart/trustcart/internal/store"
)

var (
	// ErrSellerNotFound is returned when the seller reference resolves to
	// no known seller. No mutation occurs.
	ErrSellerNotFound = errors.New("seller not found")

	// ErrConflict is returned when concurrent updates to the same seller
	// exhausted the internal retries. The caller may retry; no increment
	// was lost.
	ErrConflict = errors.New("concurrent reputation update conflict")
)

// Tuning values for the trust score blend.
const (
	// successThreshold is the score at or above which a verification
	// counts as successful.
	successThreshold = 70

	// recentWindow is how many recent verification scores feed the
	// recent-performance average.
	recentWindow = 10

	// recentWeight and historyWeight blend recent performance against the
	// lifetime success rate.
	recentWeight  = 0.6
	historyWeight = 0.4

	// casRetries bounds the optimistic-concurrency retry loop.
	casRetries = 3
)

// Aggregator updates seller trust scores from verification outcomes.
// Per-seller updates are serialized through the store's compare-and-swap;
// updates for different sellers are independent.
type Aggregator struct {
	sellers       store.SellerStore
	verifications store.VerificationStore
	auditLogger   *audit.Logger
}

// NewAggregator creates an Aggregator over the given stores. The audit
// logger may be nil.
func NewAggregator(sellers store.SellerStore, verifications store.VerificationStore, auditLogger *audit.Logger) *Aggregator {
	return &Aggregator{
		sellers:       sellers,
		verifications: verifications,
		auditLogger:   auditLogger,
	}
}

// Update applies one verification score to the seller identified by ref
// (internal ID, public "SELLER-" ID, or email) and returns the new trust
// score. The update is all-or-nothing: on any error the seller's counters
// and trust score are unchanged.
func (a *Aggregator) Update(ctx context.Context, ref string, verificationScore int) (float64, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		seller, version, err := a.sellers.GetSeller(ctx, ref)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, ErrSellerNotFound
			}
			return 0, fmt.Errorf("failed to load seller: %w", err)
		}

		rep := seller.Reputation
		rep.TotalVerifications++
		if verificationScore >= successThreshold {
			rep.SuccessfulVerifications++
		}

		var trust float64
		if rep.IsNewSeller || rep.TotalVerifications == 1 {
			// First impression is the literal trust score, no smoothing.
			trust = float64(verificationScore)
			rep.IsNewSeller = false
		} else {
			successRate := float64(rep.SuccessfulVerifications) / float64(rep.TotalVerifications)

			recent, err := a.verifications.RecentScores(ctx, seller.ID, recentWindow)
			if err != nil {
				return 0, fmt.Errorf("failed to load recent scores: %w", err)
			}
			recentAverage := 0.0
			if len(recent) > 0 {
				sum := 0
				for _, s := range recent {
					sum += s
				}
				recentAverage = float64(sum) / float64(len(recent))
			}

			trust = math.Round(recentAverage*recentWeight + successRate*100*historyWeight)
			trust = clamp(trust)
		}
		rep.TrustScore = &trust

		err = a.sellers.UpdateReputation(ctx, seller.ID, rep, version)
		if errors.Is(err, store.ErrVersionConflict) {
			log.Debugf("reputation CAS conflict for seller %s, retrying (attempt %d)", seller.ID, attempt+1)
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrSellerNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("failed to persist reputation: %w", err)
		}

		if a.auditLogger != nil {
			a.auditLogger.LogTrustScoreUpdated(seller.SellerID, trust, rep.TotalVerifications)
		}
		return trust, nil
	}

	return 0, ErrConflict
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
