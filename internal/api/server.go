// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the verification engine over a minimal HTTP surface.
// Handlers only move engine inputs and outputs; all decision logic lives in
// the verify and reputation packages.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/audit"
	"github.com/trustcart/trustcart/internal/buildinfo"
	"github.com/trustcart/trustcart/internal/reputation"
	"github.com/trustcart/trustcart/internal/store"
	"github.com/trustcart/trustcart/internal/verify"
)

// Prober reports external scorer liveness for the health endpoint.
type Prober interface {
	Probe(ctx context.Context) error
}

// Server wires the engine components behind HTTP handlers.
type Server struct {
	store       store.Store
	verifier    *verify.Verifier
	aggregator  *reputation.Aggregator
	auditLogger *audit.Logger
	prober      Prober
	engine      *gin.Engine
}

// NewServer builds the HTTP server. prober and auditLogger may be nil.
func NewServer(st store.Store, verifier *verify.Verifier, aggregator *reputation.Aggregator, auditLogger *audit.Logger, prober Prober) *Server {
	s := &Server{
		store:       st,
		verifier:    verifier,
		aggregator:  aggregator,
		auditLogger: auditLogger,
		prober:      prober,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	apiGroup := engine.Group("/api")
	apiGroup.GET("/health", s.handleHealth)
	apiGroup.POST("/sellers", s.handleRegisterSeller)
	apiGroup.GET("/sellers", s.handleListSellers)
	apiGroup.GET("/sellers/:id/trust-score", s.handleTrustScore)
	apiGroup.POST("/verify", s.handleVerify)

	s.engine = engine
	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Infof("trustcart API listening on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	aiAvailable := false
	if s.prober != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		aiAvailable = s.prober.Probe(ctx) == nil
		cancel()
	}

	storeOK := true
	if _, err := s.store.ListSellers(c.Request.Context()); err != nil {
		storeOK = false
	}

	status := http.StatusOK
	if !storeOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":       "ok",
		"version":      buildinfo.Version,
		"store":        storeOK,
		"ai_available": aiAvailable,
	})
}
