// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"

	"github.com/trustcart/trustcart/internal/domain"
)

// SQLiteStore persists sellers and verifications in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sellers (
	id TEXT PRIMARY KEY,
	seller_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	platform TEXT NOT NULL,
	trust_score REAL,
	total_verifications INTEGER NOT NULL DEFAULT 0,
	successful_verifications INTEGER NOT NULL DEFAULT 0,
	is_new_seller INTEGER NOT NULL DEFAULT 1,
	version INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS verifications (
	id TEXT PRIMARY KEY,
	seller_id TEXT NOT NULL,
	buyer_email TEXT NOT NULL,
	promise TEXT NOT NULL,
	invoice TEXT NOT NULL,
	mismatches TEXT NOT NULL,
	overall_score INTEGER NOT NULL,
	analysis TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_seller ON verifications(seller_id, created_at DESC);
`

// NewSQLiteStore opens (creating if needed) the SQLite database at dbPath
// and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debugf("sqlite store opened at %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSeller(ctx context.Context, seller *domain.Seller) error {
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
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sellers WHERE email = ?`, seller.Email).Scan(&exists)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		seller.ID, seller.SellerID, seller.Name, seller.Email, seller.Phone,
		string(seller.Platform), seller.Reputation.TrustScore,
		seller.Reputation.TotalVerifications, seller.Reputation.SuccessfulVerifications,
		seller.Reputation.IsNewSeller, seller.CreatedAt, seller.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert seller: %w", err)
	}
	return nil
}

const sellerColumns = `id, seller_id, name, email, phone, platform,
	trust_score, total_verifications, successful_verifications,
	is_new_seller, version, created_at, updated_at`

func (s *SQLiteStore) GetSeller(ctx context.Context, ref string) (*domain.Seller, int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sellerColumns+` FROM sellers
		WHERE id = ? OR seller_id = ? OR email = ?
		LIMIT 1`, ref, ref, ref)
	return scanSeller(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSeller(row rowScanner) (*domain.Seller, int64, error) {
	var (
		seller   domain.Seller
		platform string
		version  int64
		score    sql.NullFloat64
	)
	err := row.Scan(&seller.ID, &seller.SellerID, &seller.Name, &seller.Email,
		&seller.Phone, &platform, &score,
		&seller.Reputation.TotalVerifications, &seller.Reputation.SuccessfulVerifications,
		&seller.Reputation.IsNewSeller, &version, &seller.CreatedAt, &seller.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan seller: %w", err)
	}
	seller.Platform = domain.Platform(platform)
	if score.Valid {
		v := score.Float64
		seller.Reputation.TrustScore = &v
	}
	return &seller, version, nil
}

func (s *SQLiteStore) ListSellers(ctx context.Context) ([]domain.Seller, error) {
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

func (s *SQLiteStore) UpdateReputation(ctx context.Context, sellerID string, rep domain.SellerReputation, version int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sellers SET trust_score = ?, total_verifications = ?,
			successful_verifications = ?, is_new_seller = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
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
		// Distinguish a vanished seller from a stale version.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sellers WHERE id = ?`, sellerID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check seller existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLiteStore) SaveVerification(ctx context.Context, v *domain.Verification) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.SellerID, v.BuyerEmail, string(promiseJSON), string(invoiceJSON),
		string(mismatchJSON), v.Result.OverallScore, v.Result.Analysis,
		v.Result.Source, string(v.Status), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentScores(ctx context.Context, sellerID string, limit int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT overall_score FROM verifications
		WHERE seller_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, sellerID, limit)
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

func (s *SQLiteStore) Close() error { return s.db.Close() }
