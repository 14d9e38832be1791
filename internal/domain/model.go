// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package domain defines the core records exchanged between the verification
// engine, the reputation aggregator, and the persistence layer: seller
// promises, delivered invoices, field-level mismatches, and per-seller
// reputation state.
package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Field identifies one of the five compared fields of a promise/invoice pair.
type Field string

const (
	FieldPrice              Field = "price"
	FieldDeliveryCharges    Field = "deliveryCharges"
	FieldDeliveryTime       Field = "deliveryTime"
	FieldReturnPolicy       Field = "returnPolicy"
	FieldProductDescription Field = "productDescription"
)

// ComparedFields lists all verified fields in their fixed check order.
// Mismatches are always emitted in this order.
var ComparedFields = []Field{
	FieldPrice,
	FieldDeliveryCharges,
	FieldDeliveryTime,
	FieldReturnPolicy,
	FieldProductDescription,
}

// Severity is the qualitative weight of a mismatch.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// PromiseRecord captures what a seller claimed at time of sale, as submitted
// by the buyer. Immutable once created.
type PromiseRecord struct {
	Price              float64 `json:"price"`
	DeliveryCharges    float64 `json:"deliveryCharges"`
	DeliveryTime       string  `json:"deliveryTime"`
	ReturnPolicy       string  `json:"returnPolicy"`
	ProductDescription string  `json:"productDescription"`
}

// InvoiceRecord captures what was actually delivered, used as ground truth.
type InvoiceRecord struct {
	Price              float64    `json:"price"`
	DeliveryCharges    float64    `json:"deliveryCharges"`
	DeliveryTime       string     `json:"deliveryTime"`
	ReturnPolicy       string     `json:"returnPolicy"`
	ProductDescription string     `json:"productDescription"`
	InvoiceNumber      string     `json:"invoiceNumber,omitempty"`
	InvoiceDate        *time.Time `json:"invoiceDate,omitempty"`
}

// Mismatch records a single field-level disagreement between a promise and
// an invoice. Never mutated after creation.
type Mismatch struct {
	Field       Field       `json:"field"`
	Promised    interface{} `json:"promised"`
	Actual      interface{} `json:"actual"`
	Severity    Severity    `json:"severity"`
	Explanation string      `json:"explanation"`
}

// VerificationResult is the outcome of comparing one promise/invoice pair.
type VerificationResult struct {
	Mismatches   []Mismatch `json:"mismatches"`
	OverallScore int        `json:"overallScore"`
	Analysis     string     `json:"analysis"`

	// Source records which scorer produced the result: "rules" or "ai".
	Source string `json:"source,omitempty"`
}

// VerificationStatus tracks the lifecycle of a persisted verification.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusDisputed VerificationStatus = "disputed"
)

// Verification is the persisted audit record of one completed comparison:
// the inputs, the result, and the parties involved. Immutable once stored.
type Verification struct {
	ID         string             `json:"id"`
	SellerID   string             `json:"sellerId"`
	BuyerEmail string             `json:"buyerEmail"`
	Promise    PromiseRecord      `json:"promise"`
	Invoice    InvoiceRecord      `json:"invoice"`
	Result     VerificationResult `json:"result"`
	Status     VerificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Platform is where the seller operates.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformOther     Platform = "other"
)

// Seller is a registered marketplace seller together with its reputation
// aggregate state.
type Seller struct {
	ID       string   `json:"id"`
	SellerID string   `json:"sellerId"` // public ID, e.g. "SELLER-ABC-123"
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Platform Platform `json:"platform"`

	Reputation SellerReputation `json:"reputation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SellerReputation is the evolving trust aggregate for one seller.
// TrustScore is nil until the first verification completes; counters only
// ever increase.
type SellerReputation struct {
	TrustScore              *float64 `json:"trustScore"`
	TotalVerifications      int      `json:"totalVerifications"`
	SuccessfulVerifications int      `json:"successfulVerifications"`
	IsNewSeller             bool     `json:"isNewSeller"`
}

// NewSellerReputation returns the reputation state of a freshly registered
// seller: no trust score, zero counters.
func NewSellerReputation() SellerReputation {
	return SellerReputation{IsNewSeller: true}
}

const sellerIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewPublicSellerID generates a public seller identifier of the form
// SELLER-ABC-123.
func NewPublicSellerID() string {
	var b strings.Builder
	b.WriteString("SELLER-")
	for i := 0; i < 3; i++ {
		b.WriteByte(sellerIDLetters[rand.Intn(len(sellerIDLetters))])
	}
	fmt.Fprintf(&b, "-%03d", rand.Intn(900)+100)
	return b.String()
}

// ValidPlatform reports whether p is one of the supported platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformWhatsApp, PlatformInstagram, PlatformFacebook, PlatformOther:
		return true
	}
	return false
}
