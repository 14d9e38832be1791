// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/domain"
	"github.com/trustcart/trustcart/internal/reputation"
	"github.com/trustcart/trustcart/internal/store"
)

type registerSellerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Platform string `json:"platform" binding:"required"`
}

func (s *Server) handleRegisterSeller(c *gin.Context) {
	var req registerSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform := domain.Platform(req.Platform)
	if !domain.ValidPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform must be one of whatsapp, instagram, facebook, other"})
		return
	}

	seller := &domain.Seller{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Platform:   platform,
		Reputation: domain.NewSellerReputation(),
	}

	if err := s.store.CreateSeller(c.Request.Context(), seller); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		log.Errorf("failed to register seller: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register seller"})
		return
	}

	if s.auditLogger != nil {
		s.auditLogger.LogSellerRegistered(seller.SellerID, string(seller.Platform))
	}
	c.JSON(http.StatusCreated, seller)
}

func (s *Server) handleListSellers(c *gin.Context) {
	sellers, err := s.store.ListSellers(c.Request.Context())
	if err != nil {
		log.Errorf("failed to list sellers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sellers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": sellers})
}

func (s *Server) handleTrustScore(c *gin.Context) {
	seller, _, err := s.store.GetSeller(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
			return
		}
		log.Errorf("failed to load seller: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seller"})
		return
	}

	rep := seller.Reputation
	successRate := 0.0
	if rep.TotalVerifications > 0 {
		successRate = float64(rep.SuccessfulVerifications) / float64(rep.TotalVerifications) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"sellerId":                seller.SellerID,
		"trustScore":              rep.TrustScore,
		"totalVerifications":      rep.TotalVerifications,
		"successfulVerifications": rep.SuccessfulVerifications,
		"successRate":             successRate,
		"isNewSeller":             rep.IsNewSeller,
		"label":                   reputation.Label(rep.TrustScore),
	})
}

type verifyRequest struct {
	SellerID   string               `json:"sellerId" binding:"required"`
	BuyerEmail string               `json:"buyerEmail" binding:"required,email"`
	Promise    domain.PromiseRecord `json:"promise" binding:"required"`
	Invoice    domain.InvoiceRecord `json:"invoice" binding:"required"`
}

func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := domain.ValidatePromise(req.Promise); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := domain.ValidateInvoice(req.Invoice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	seller, _, err := s.store.GetSeller(ctx, req.SellerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
			return
		}
		log.Errorf("failed to load seller: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seller"})
		return
	}

	result := s.verifier.Verify(ctx, req.Promise, req.Invoice)

	verification := &domain.Verification{
		SellerID:   seller.ID,
		BuyerEmail: req.BuyerEmail,
		Promise:    req.Promise,
		Invoice:    req.Invoice,
		Result:     result,
		Status:     domain.StatusVerified,
	}
	if err := s.store.SaveVerification(ctx, verification); err != nil {
		log.Errorf("failed to persist verification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist verification"})
		return
	}

	trust, err := s.aggregator.Update(ctx, seller.ID, result.OverallScore)
	if err != nil {
		if errors.Is(err, reputation.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent update conflict, retry"})
			return
		}
		log.Errorf("failed to update trust score: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update trust score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verificationId": verification.ID,
		"result":         result,
		"trustScore":     trust,
		"label":          reputation.Label(&trust),
	})
}
