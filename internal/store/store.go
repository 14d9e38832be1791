// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store persists sellers and verification records. Three backends
// share one contract: an in-memory store for tests and demos, SQLite for
// single-node deployments, and Postgres. Seller reputation updates go
// through compare-and-swap on a per-seller version so concurrent
// verifications never lose counter increments.
package store

import (
	"context"
	"errors"

	"github.com/trustcart/trustcart/internal/domain"
)

var (
	// ErrNotFound is returned when a seller reference resolves to nothing.
	ErrNotFound = errors.New("seller not found")

	// ErrVersionConflict is returned by UpdateReputation when the seller row
	// changed since it was read. Callers retry with a fresh read.
	ErrVersionConflict = errors.New("seller reputation version conflict")

	// ErrDuplicateEmail is returned when registering a seller whose email is
	// already taken.
	ErrDuplicateEmail = errors.New("seller email already registered")
)

// SellerStore persists sellers and their reputation aggregates.
//
// GetSeller resolves ref as the internal ID, the public "SELLER-" ID, or
// the seller's email, in that order, mirroring how buyers identify sellers.
// The returned version is the concurrency token for UpdateReputation.
type SellerStore interface {
	CreateSeller(ctx context.Context, seller *domain.Seller) error
	GetSeller(ctx context.Context, ref string) (*domain.Seller, int64, error)
	ListSellers(ctx context.Context) ([]domain.Seller, error)

	// UpdateReputation applies rep to the seller iff the stored version
	// still equals version. On a stale version it returns
	// ErrVersionConflict and changes nothing.
	UpdateReputation(ctx context.Context, sellerID string, rep domain.SellerReputation, version int64) error
}

// VerificationStore persists completed verification results.
type VerificationStore interface {
	SaveVerification(ctx context.Context, v *domain.Verification) error

	// RecentScores returns up to limit overall scores for the seller,
	// most recent first.
	RecentScores(ctx context.Context, sellerID string, limit int) ([]int, error)
}

// Store combines both persistence contracts; every backend implements it.
type Store interface {
	SellerStore
	VerificationStore

	Close() error
}
