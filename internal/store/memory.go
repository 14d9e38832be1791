// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustcart/trustcart/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// demo path; semantics (CAS, lookup order, recency ordering) match the
// database-backed stores.
type MemoryStore struct {
	mu            sync.RWMutex
	sellers       map[string]*memorySeller
	verifications []domain.Verification
}

type memorySeller struct {
	seller  domain.Seller
	version int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sellers: make(map[string]*memorySeller)}
}

func (s *MemoryStore) CreateSeller(_ context.Context, seller *domain.Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sellers {
		if existing.seller.Email == seller.Email {
			return ErrDuplicateEmail
		}
	}

	if seller.ID == "" {
		seller.ID = uuid.New().String()
	}
	if seller.SellerID == "" {
		seller.SellerID = s.uniquePublicIDLocked()
	}
	now := time.Now()
	seller.CreatedAt = now
	seller.UpdatedAt = now

	s.sellers[seller.ID] = &memorySeller{seller: *seller, version: 1}
	return nil
}

func (s *MemoryStore) uniquePublicIDLocked() string {
	for {
		id := domain.NewPublicSellerID()
		taken := false
		for _, existing := range s.sellers {
			if existing.seller.SellerID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func (s *MemoryStore) GetSeller(_ context.Context, ref string) (*domain.Seller, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ms, ok := s.sellers[ref]; ok {
		seller := ms.seller
		return &seller, ms.version, nil
	}
	for _, ms := range s.sellers {
		if ms.seller.SellerID == ref {
			seller := ms.seller
			return &seller, ms.version, nil
		}
	}
	for _, ms := range s.sellers {
		if ms.seller.Email == ref {
			seller := ms.seller
			return &seller, ms.version, nil
		}
	}
	return nil, 0, ErrNotFound
}

func (s *MemoryStore) ListSellers(_ context.Context) ([]domain.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sellers := make([]domain.Seller, 0, len(s.sellers))
	for _, ms := range s.sellers {
		sellers = append(sellers, ms.seller)
	}
	sort.Slice(sellers, func(i, j int) bool {
		return sellers[i].CreatedAt.Before(sellers[j].CreatedAt)
	})
	return sellers, nil
}

func (s *MemoryStore) UpdateReputation(_ context.Context, sellerID string, rep domain.SellerReputation, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms, ok := s.sellers[sellerID]
	if !ok {
		return ErrNotFound
	}
	if ms.version != version {
		return ErrVersionConflict
	}
	ms.seller.Reputation = rep
	ms.seller.UpdatedAt = time.Now()
	ms.version++
	return nil
}

func (s *MemoryStore) SaveVerification(_ context.Context, v *domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	s.verifications = append(s.verifications, *v)
	return nil
}

func (s *MemoryStore) RecentScores(_ context.Context, sellerID string, limit int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scores []int
	// Appended chronologically, so walk backwards for newest first.
	for i := len(s.verifications) - 1; i >= 0 && len(scores) < limit; i-- {
		if s.verifications[i].SellerID == sellerID {
			scores = append(scores, s.verifications[i].Result.OverallScore)
		}
	}
	return scores, nil
}

func (s *MemoryStore) Close() error { return nil }
