// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/trustcart/trustcart/internal/reputation"
	"github.com/trustcart/trustcart/internal/store"
	"github.com/trustcart/trustcart/internal/verify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.NewMemoryStore()
	verifier := verify.NewVerifier()
	aggregator := reputation.NewAggregator(st, st, nil)
	return NewServer(st, verifier, aggregator, nil, nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func registerSeller(t *testing.T, srv *Server, email string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/sellers", map[string]string{
		"name":     "Test Seller",
		"email":    email,
		"platform": "whatsapp",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return gjson.Get(w.Body.String(), "sellerId").String()
}

func TestRegisterSeller(t *testing.T) {
	srv := newTestServer(t)

	sellerID := registerSeller(t, srv, "new@example.com")
	assert.Regexp(t, `^SELLER-[A-Z]{3}-\d{3}$`, sellerID)

	w := doJSON(t, srv, http.MethodPost, "/api/sellers", map[string]string{
		"name":     "Other",
		"email":    "new@example.com",
		"platform": "instagram",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterSeller_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "platform": "whatsapp"}},
		{"bad email", map[string]string{"name": "X", "email": "not-an-email", "platform": "whatsapp"}},
		{"bad platform", map[string]string{"name": "X", "email": "a@b.com", "platform": "telegram"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv, http.MethodPost, "/api/sellers", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListSellers(t *testing.T) {
	srv := newTestServer(t)
	registerSeller(t, srv, "one@example.com")
	registerSeller(t, srv, "two@example.com")

	w := doJSON(t, srv, http.MethodGet, "/api/sellers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.Get(w.Body.String(), "sellers").Array(), 2)
}

func TestTrustScore_NewSeller(t *testing.T) {
	srv := newTestServer(t)
	sellerID := registerSeller(t, srv, "fresh@example.com")

	w := doJSON(t, srv, http.MethodGet, "/api/sellers/"+sellerID+"/trust-score", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, gjson.Get(body, "trustScore").Type == gjson.Null)
	assert.True(t, gjson.Get(body, "isNewSeller").Bool())
	assert.Equal(t, "New Seller", gjson.Get(body, "label").String())
	assert.EqualValues(t, 0, gjson.Get(body, "totalVerifications").Int())
}

func TestTrustScore_UnknownSeller(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/sellers/SELLER-ZZZ-000/trust-score", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func verifyBody(sellerID string) map[string]interface{} {
	promise := map[string]interface{}{
		"price":              1500.0,
		"deliveryCharges":    50.0,
		"deliveryTime":       "3-5 days",
		"returnPolicy":       "30 days return",
		"productDescription": "Blue cotton shirt, size L",
	}
	invoice := map[string]interface{}{
		"price":              1500.0,
		"deliveryCharges":    50.0,
		"deliveryTime":       "3-5 days",
		"returnPolicy":       "30 days return",
		"productDescription": "Blue cotton shirt, size L",
	}
	return map[string]interface{}{
		"sellerId":   sellerID,
		"buyerEmail": "buyer@example.com",
		"promise":    promise,
		"invoice":    invoice,
	}
}

func TestVerify_PerfectMatch(t *testing.T) {
	srv := newTestServer(t)
	sellerID := registerSeller(t, srv, "perfect@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/verify", verifyBody(sellerID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.NotEmpty(t, gjson.Get(body, "verificationId").String())
	assert.EqualValues(t, 100, gjson.Get(body, "result.overallScore").Int())
	assert.Equal(t, "rules", gjson.Get(body, "result.source").String())
	assert.EqualValues(t, 100, gjson.Get(body, "trustScore").Float())
	assert.Equal(t, "Excellent", gjson.Get(body, "label").String())

	// The first verification flips the new-seller flag and sets the score.
	w = doJSON(t, srv, http.MethodGet, "/api/sellers/"+sellerID+"/trust-score", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "isNewSeller").Bool())
	assert.EqualValues(t, 100, gjson.Get(w.Body.String(), "trustScore").Float())
}

func TestVerify_MismatchLowersScore(t *testing.T) {
	srv := newTestServer(t)
	sellerID := registerSeller(t, srv, "mismatch@example.com")

	body := verifyBody(sellerID)
	body["invoice"].(map[string]interface{})["returnPolicy"] = "no returns"

	w := doJSON(t, srv, http.MethodPost, "/api/verify", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := w.Body.String()
	mismatches := gjson.Get(resp, "result.mismatches").Array()
	require.Len(t, mismatches, 1)
	assert.Equal(t, "returnPolicy", mismatches[0].Get("field").String())
	assert.Equal(t, "high", mismatches[0].Get("severity").String())
	assert.EqualValues(t, 5, gjson.Get(resp, "result.overallScore").Int())
	assert.Equal(t, "Poor", gjson.Get(resp, "label").String())
}

func TestVerify_UnknownSeller(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/api/verify", verifyBody("SELLER-ZZZ-000"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerify_InvalidPayload(t *testing.T) {
	srv := newTestServer(t)
	sellerID := registerSeller(t, srv, "invalid@example.com")

	body := verifyBody(sellerID)
	body["promise"].(map[string]interface{})["price"] = -10.0

	w := doJSON(t, srv, http.MethodPost, "/api/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "store").Bool())
	assert.False(t, gjson.Get(body, "ai_available").Bool(), "no prober wired")
}

type failingProber struct{}

func (failingProber) Probe(ctx context.Context) error { return errors.New("down") }

func TestHealth_ProberDown(t *testing.T) {
	st := store.NewMemoryStore()
	srv := NewServer(st, verify.NewVerifier(), reputation.NewAggregator(st, st, nil), nil, failingProber{})

	w := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "ai_available").Bool())
}
