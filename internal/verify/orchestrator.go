// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/trustcart/trustcart/internal/audit"
	"github.com/trustcart/trustcart/internal/domain"
)

// Result sources.
const (
	SourceRules = "rules"
	SourceAI    = "ai"
)

// neutralScore is returned when the external scorer responds but the
// response carries no parseable JSON object.
const neutralScore = 50

// Scorer is the strategy shared by the two verification paths: the
// deterministic rule engine and the external AI backend. An error from
// Score tells the orchestrator to fall back; the rule engine never fails.
type Scorer interface {
	Score(ctx context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) (domain.VerificationResult, error)
}

// ExternalScorer is the pluggable AI backend transport. Probe is a cheap
// liveness check; Score returns the raw model output, which is expected
// (but not required) to contain a JSON verification object.
type ExternalScorer interface {
	Probe(ctx context.Context) error
	Score(ctx context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) (string, error)
}

// Verifier compares promise/invoice pairs. Per request it selects a Scorer
// strategy via the backend's liveness probe and falls back to the
// deterministic rule engine on any failure, so a verification request
// always completes with a result.
type Verifier struct {
	scorer       ExternalScorer
	probeTimeout time.Duration
	scoreTimeout time.Duration
	auditLogger  *audit.Logger

	mu      sync.RWMutex
	weights Weights
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithExternalScorer enables the AI-backed scoring path.
func WithExternalScorer(s ExternalScorer) Option {
	return func(v *Verifier) { v.scorer = s }
}

// WithWeights overrides the default scoring weights.
func WithWeights(w Weights) Option {
	return func(v *Verifier) { v.weights = w }
}

// WithTimeouts bounds the external liveness probe and analysis call.
func WithTimeouts(probe, score time.Duration) Option {
	return func(v *Verifier) {
		if probe > 0 {
			v.probeTimeout = probe
		}
		if score > 0 {
			v.scoreTimeout = score
		}
	}
}

// WithAuditLogger records verification lifecycle events to the audit trail.
func WithAuditLogger(l *audit.Logger) Option {
	return func(v *Verifier) { v.auditLogger = l }
}

// NewVerifier creates a Verifier. Without WithExternalScorer it always uses
// the deterministic rule engine.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		weights:      DefaultWeights(),
		probeTimeout: 3 * time.Second,
		scoreTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetWeights swaps the scoring weights at runtime, used by config reload.
func (v *Verifier) SetWeights(w Weights) {
	v.mu.Lock()
	v.weights = w
	v.mu.Unlock()
}

// Verify produces a VerificationResult for the pair. It never returns an
// error: external-scorer failures are recovered locally by falling back to
// the rule engine. The returned score is always within [0, 100].
func (v *Verifier) Verify(ctx context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) domain.VerificationResult {
	requestID := uuid.New().String()

	if v.auditLogger != nil {
		v.auditLogger.LogVerificationStarted(requestID, promise, invoice)
	}

	rules := &ruleScorer{verifier: v, requestID: requestID}

	if v.scorer == nil {
		result, _ := rules.Score(ctx, promise, invoice)
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, v.probeTimeout)
	err := v.scorer.Probe(probeCtx)
	cancel()
	if err != nil {
		log.Warnf("external scorer unavailable, falling back to rule-based verification: %v", err)
		if v.auditLogger != nil {
			v.auditLogger.LogFallback(requestID, "probe_failed", err.Error())
		}
		result, _ := rules.Score(ctx, promise, invoice)
		return result
	}

	ai := &aiScorer{verifier: v, backend: v.scorer, requestID: requestID}
	result, err := ai.Score(ctx, promise, invoice)
	if err != nil {
		log.Warnf("external scoring failed, falling back to rule-based verification: %v", err)
		if v.auditLogger != nil {
			v.auditLogger.LogFallback(requestID, "score_failed", err.Error())
		}
		result, _ = rules.Score(ctx, promise, invoice)
	}
	return result
}

// ruleScorer is the deterministic strategy: comparator plus scoring policy.
// It never returns an error.
type ruleScorer struct {
	verifier  *Verifier
	requestID string
}

func (r *ruleScorer) Score(_ context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) (domain.VerificationResult, error) {
	r.verifier.mu.RLock()
	weights := r.verifier.weights
	r.verifier.mu.RUnlock()

	mismatches := CompareFields(promise, invoice)
	score := Score(mismatches, weights)
	result := domain.VerificationResult{
		Mismatches:   mismatches,
		OverallScore: score,
		Analysis:     Analysis(mismatches, score),
		Source:       SourceRules,
	}
	if r.verifier.auditLogger != nil {
		r.verifier.auditLogger.LogRuleScored(r.requestID, result.OverallScore, len(result.Mismatches))
	}
	return result, nil
}

// aiScorer is the external strategy: one bounded backend call, then
// defensive parsing of whatever text came back.
type aiScorer struct {
	verifier  *Verifier
	backend   ExternalScorer
	requestID string
}

func (a *aiScorer) Score(ctx context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) (domain.VerificationResult, error) {
	start := time.Now()

	scoreCtx, cancel := context.WithTimeout(ctx, a.verifier.scoreTimeout)
	defer cancel()

	raw, err := a.backend.Score(scoreCtx, promise, invoice)
	if err != nil {
		return domain.VerificationResult{}, err
	}

	result := ParseExternalResponse(raw)
	if a.verifier.auditLogger != nil {
		a.verifier.auditLogger.LogAIScored(a.requestID, result.OverallScore, len(result.Mismatches), raw, time.Since(start))
	}
	return result, nil
}

var (
	_ Scorer = (*ruleScorer)(nil)
	_ Scorer = (*aiScorer)(nil)
)

// ParseExternalResponse defensively extracts a verification result from raw
// model output. It looks for an embedded JSON object; when none parses, it
// degrades to a neutral uncertain score with the raw text as analysis.
func ParseExternalResponse(raw string) domain.VerificationResult {
	candidate := extractJSONObject(raw)
	if candidate == "" || !gjson.Valid(candidate) {
		return domain.VerificationResult{
			Mismatches:   []domain.Mismatch{},
			OverallScore: neutralScore,
			Analysis:     raw,
			Source:       SourceAI,
		}
	}

	parsed := gjson.Parse(candidate)

	var mismatches []domain.Mismatch
	if arr := parsed.Get("mismatches"); arr.IsArray() {
		// Best effort: a malformed mismatch array is dropped, not fatal.
		if err := json.Unmarshal([]byte(arr.Raw), &mismatches); err != nil {
			log.Debugf("discarding malformed mismatches array from AI response: %v", err)
			mismatches = nil
		}
	}
	if mismatches == nil {
		mismatches = []domain.Mismatch{}
	}

	analysis := parsed.Get("analysis").String()
	if analysis == "" {
		analysis = raw
	}

	return domain.VerificationResult{
		Mismatches:   mismatches,
		OverallScore: ClampScore(int(parsed.Get("overallScore").Float())),
		Analysis:     analysis,
		Source:       SourceAI,
	}
}

// extractJSONObject returns the widest brace-delimited slice of raw, or ""
// when raw contains no object at all.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
