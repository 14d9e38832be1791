// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the TrustCart verification
// server: it wires the configured store, the optional Ollama scorer, the
// verification orchestrator, and the reputation aggregator behind the HTTP
// API.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/api"
	"github.com/trustcart/trustcart/internal/audit"
	"github.com/trustcart/trustcart/internal/buildinfo"
	"github.com/trustcart/trustcart/internal/config"
	"github.com/trustcart/trustcart/internal/logging"
	"github.com/trustcart/trustcart/internal/ollama"
	"github.com/trustcart/trustcart/internal/reputation"
	"github.com/trustcart/trustcart/internal/store"
	"github.com/trustcart/trustcart/internal/verify"
)

func init() {
	logging.Setup()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log.Infof("trustcart %s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := logging.ConfigureOutput(cfg.LoggingToFile, "logs"); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	auditLogger, err := audit.NewLogger(cfg.Audit)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}
	defer auditLogger.Close()

	opts := []verify.Option{
		verify.WithWeights(cfg.Scoring),
		verify.WithAuditLogger(auditLogger),
		verify.WithTimeouts(
			time.Duration(cfg.Ollama.ProbeTimeoutSeconds)*time.Second,
			time.Duration(cfg.Ollama.ScoreTimeoutSeconds)*time.Second,
		),
	}

	var prober api.Prober
	if cfg.Ollama.Enabled {
		client := ollama.NewClient(cfg.Ollama.Config)
		opts = append(opts, verify.WithExternalScorer(client))
		prober = client
		log.Infof("AI scoring enabled via ollama at %s", cfg.Ollama.BaseURL)
	} else {
		log.Info("AI scoring disabled, using rule-based verification only")
	}

	verifier := verify.NewVerifier(opts...)
	aggregator := reputation.NewAggregator(st, st, auditLogger)

	watcher, err := config.NewWatcher(*configPath, func(next *config.Config) {
		verifier.SetWeights(next.Scoring)
		if next.Debug {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	})
	if err != nil {
		log.Warnf("config hot-reload unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	server := api.NewServer(st, verifier, aggregator, auditLogger, prober)
	if err := server.Run(cfg.Host, cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewPostgresStore(ctx, cfg.Store.DSN)
	default:
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}
