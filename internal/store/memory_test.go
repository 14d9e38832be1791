// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustcart/trustcart/internal/domain"
)

func memSeller(email string) *domain.Seller {
	return &domain.Seller{
		Name:       "Memory Seller",
		Email:      email,
		Platform:   domain.PlatformInstagram,
		Reputation: domain.NewSellerReputation(),
	}
}

func TestMemoryStore_CreateAssignsIdentifiers(t *testing.T) {
	st := NewMemoryStore()
	seller := memSeller("a@example.com")

	require.NoError(t, st.CreateSeller(context.Background(), seller))
	assert.NotEmpty(t, seller.ID)
	assert.Regexp(t, `^SELLER-[A-Z]{3}-\d{3}$`, seller.SellerID)
	assert.False(t, seller.CreatedAt.IsZero())
}

func TestMemoryStore_DuplicateEmailRejected(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.CreateSeller(context.Background(), memSeller("dup@example.com")))

	err := st.CreateSeller(context.Background(), memSeller("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryStore_GetSellerResolutionOrder(t *testing.T) {
	st := NewMemoryStore()
	seller := memSeller("lookup@example.com")
	require.NoError(t, st.CreateSeller(context.Background(), seller))

	for _, ref := range []string{seller.ID, seller.SellerID, seller.Email} {
		got, version, err := st.GetSeller(context.Background(), ref)
		require.NoError(t, err, "ref %q", ref)
		assert.Equal(t, seller.ID, got.ID)
		assert.Equal(t, int64(1), version)
	}

	_, _, err := st.GetSeller(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateReputationCAS(t *testing.T) {
	st := NewMemoryStore()
	seller := memSeller("cas@example.com")
	require.NoError(t, st.CreateSeller(context.Background(), seller))

	trust := 88.0
	rep := domain.SellerReputation{TrustScore: &trust, TotalVerifications: 1, SuccessfulVerifications: 1}

	require.NoError(t, st.UpdateReputation(context.Background(), seller.ID, rep, 1))

	// Replaying the same stale version must fail and change nothing.
	err := st.UpdateReputation(context.Background(), seller.ID, rep, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, version, err := st.GetSeller(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 1, got.Reputation.TotalVerifications)

	err = st.UpdateReputation(context.Background(), "missing-id", rep, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RecentScoresNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	seller := memSeller("scores@example.com")
	require.NoError(t, st.CreateSeller(context.Background(), seller))

	for _, score := range []int{60, 70, 80, 90} {
		err := st.SaveVerification(context.Background(), &domain.Verification{
			SellerID: seller.ID,
			Result:   domain.VerificationResult{OverallScore: score},
		})
		require.NoError(t, err)
	}
	// Noise from another seller must not leak in.
	require.NoError(t, st.SaveVerification(context.Background(), &domain.Verification{
		SellerID: "other",
		Result:   domain.VerificationResult{OverallScore: 10},
	}))

	scores, err := st.RecentScores(context.Background(), seller.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{90, 80, 70}, scores)
}

func TestMemoryStore_ListSellersOrderedByCreation(t *testing.T) {
	st := NewMemoryStore()
	first := memSeller("first@example.com")
	second := memSeller("second@example.com")
	require.NoError(t, st.CreateSeller(context.Background(), first))
	require.NoError(t, st.CreateSeller(context.Background(), second))

	sellers, err := st.ListSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "first@example.com", sellers[0].Email)
	assert.Equal(t, "second@example.com", sellers[1].Email)
}
