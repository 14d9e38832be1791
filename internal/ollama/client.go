// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ollama provides integration with a locally running Ollama
// instance (default: http://localhost:11434), used as the optional
// AI-backed verification scorer.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/domain"
)

// DefaultModel is the model used for verification analysis.
const DefaultModel = "mistral:latest"

const systemPrompt = `You are TrustCart AI, an expert verification system for e-commerce transactions.
Your job is to compare seller promises with actual invoice data and detect mismatches.

CRITICAL ANALYSIS RULES:
1. Compare each field exactly: price, delivery charges, delivery time, return policy, product description
2. Flag ANY differences, no matter how small
3. Pay special attention to:
   - Numeric differences (even 1 rupee matters)
   - Policy changes (5 days vs 0 days return is CRITICAL)
   - Product description changes (replacement vs repair is MAJOR)
   - Hidden charges or fees
4. Rate severity: HIGH (price, return policy), MEDIUM (delivery), LOW (minor description)
5. Be strict - trust is earned through consistency

Respond in this JSON format:
{
  "mismatches": [
    {
      "field": "fieldName",
      "promised": "value",
      "actual": "value",
      "severity": "high|medium|low",
      "explanation": "detailed explanation"
    }
  ],
  "overallScore": number_0_to_100,
  "analysis": "detailed analysis with recommendations"
}`

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// Config holds Ollama client settings.
type Config struct {
	// BaseURL of the Ollama server. Default http://localhost:11434.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// Model used for analysis. Default mistral:latest.
	Model string `yaml:"model" json:"model"`
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg Config) *Client {
	baseURL := "http://localhost:11434"
	if cfg.BaseURL != "" {
		baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		// Per-call deadlines come from the caller's context; this is a
		// hard upper bound only.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Probe checks that the Ollama server is reachable by listing its models.
// The caller bounds the probe with the context deadline.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama probe returned status %d", resp.StatusCode)
	}
	return nil
}

// Score asks the model to compare the pair and returns its raw text output.
func (c *Client) Score(ctx context.Context, promise domain.PromiseRecord, invoice domain.InvoiceRecord) (string, error) {
	userPrompt := fmt.Sprintf(`SELLER PROMISE:
Price: %v
Delivery Charges: %v
Delivery Time: %s
Return Policy: %s
Product Description: %s

ACTUAL INVOICE:
Price: %v
Delivery Charges: %v
Delivery Time: %s
Return Policy: %s
Product Description: %s

Analyze these for mismatches and provide verification results.`,
		promise.Price, promise.DeliveryCharges, promise.DeliveryTime,
		promise.ReturnPolicy, promise.ProductDescription,
		invoice.Price, invoice.DeliveryCharges, invoice.DeliveryTime,
		invoice.ReturnPolicy, invoice.ProductDescription)

	genReq := map[string]interface{}{
		"model":  c.model,
		"prompt": systemPrompt + "\n\nUSER: " + userPrompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.1,
			"top_p":       0.9,
		},
	}

	reqBody, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("ollama model %q not found, run: ollama pull %s", c.model, c.model)
		}
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp struct {
		Model     string `json:"model"`
		CreatedAt string `json:"created_at"`
		Response  string `json:"response"`
		Done      bool   `json:"done"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to parse ollama response: %w", err)
	}

	log.Debugf("ollama response: model=%s, content_len=%d", genResp.Model, len(genResp.Response))
	return genResp.Response, nil
}
