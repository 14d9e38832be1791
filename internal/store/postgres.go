// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/domain"
)

// PostgresStore persists sellers and verifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sellers (
	id TEXT PRIMARY KEY,
	seller_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	platform TEXT NOT NULL,
	trust_score DOUBLE PRECISION,
	total_verifications INTEGER NOT NULL DEFAULT 0,
	successful_verifications INTEGER NOT NULL DEFAULT 0,
	is_new_seller BOOLEAN NOT NULL DEFAULT TRUE,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS verifications (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	seller_id TEXT NOT NULL,
	buyer_email TEXT NOT NULL,
	promise JSONB NOT NULL,
	invoice JSONB NOT NULL,
	mismatches JSONB NOT NULL,
	overall_score INTEGER NOT NULL,
	analysis TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_seller ON verifications(seller_id, seq DESC);
`

// NewPostgresStore connects to PostgreSQL using the given DSN and ensures
// the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug("postgres store connected")
	return &PostgresStore{db: db}, nil
}

// newPostgresStoreWithDB wires an existing handle; used by tests with a
// mocked database.
func newPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSeller(ctx context.Context, seller *domain.Seller) error {
	if seller.ID == "" {
		seller.ID = uuid.New().String()
	}
	if seller.SellerID == "" {
		seller.SellerID = domain.NewPublicSellerID()
	}
	now := time.Now()
	seller.CreatedAt = now
	seller.UpdatedAt = now

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sellers WHERE email = $1`, seller.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check seller email: %w", err)
	}
	if exists > 0 {
		return ErrDuplicateEmail
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sellers (id, seller_id, name, email, phone, platform,
			trust_score, total_verifications, successful_verifications,
			is_new_seller, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)`,
		seller.ID, seller.SellerID, seller.Name, seller.Email, seller.Phone,
		string(seller.Platform), seller.Reputation.TrustScore,
		seller.Reputation.TotalVerifications, seller.Reputation.SuccessfulVerifications,
		seller.Reputation.IsNewSeller, seller.CreatedAt, seller.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert seller: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSeller(ctx context.Context, ref string) (*domain.Seller, int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sellerColumns+` FROM sellers
		WHERE id = $1 OR seller_id = $1 OR email = $1
		LIMIT 1`, ref)
	return scanSeller(row)
}

func (s *PostgresStore) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sellerColumns+` FROM sellers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		seller, _, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, *seller)
	}
	return sellers, rows.Err()
}

func (s *PostgresStore) UpdateReputation(ctx context.Context, sellerID string, rep domain.SellerReputation, version int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sellers SET trust_score = $1, total_verifications = $2,
			successful_verifications = $3, is_new_seller = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7`,
		rep.TrustScore, rep.TotalVerifications, rep.SuccessfulVerifications,
		rep.IsNewSeller, time.Now(), sellerID, version)
	if err != nil {
		return fmt.Errorf("failed to update seller reputation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sellers WHERE id = $1`, sellerID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check seller existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *PostgresStore) SaveVerification(ctx context.Context, v *domain.Verification) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	if v.Status == "" {
		v.Status = domain.StatusPending
	}

	promiseJSON, err := json.Marshal(v.Promise)
	if err != nil {
		return fmt.Errorf("failed to encode promise: %w", err)
	}
	invoiceJSON, err := json.Marshal(v.Invoice)
	if err != nil {
		return fmt.Errorf("failed to encode invoice: %w", err)
	}
	mismatchJSON, err := json.Marshal(v.Result.Mismatches)
	if err != nil {
		return fmt.Errorf("failed to encode mismatches: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, seller_id, buyer_email, promise, invoice,
			mismatches, overall_score, analysis, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		v.ID, v.SellerID, v.BuyerEmail, string(promiseJSON), string(invoiceJSON),
		string(mismatchJSON), v.Result.OverallScore, v.Result.Analysis,
		v.Result.Source, string(v.Status), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentScores(ctx context.Context, sellerID string, limit int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT overall_score FROM verifications
		WHERE seller_id = $1
		ORDER BY seq DESC
		LIMIT $2`, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
