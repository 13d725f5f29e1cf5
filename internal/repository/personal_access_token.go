package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type PersonalAccessTokenRepository struct {
	db *sql.DB
}

func NewPersonalAccessTokenRepository(db *sql.DB) *PersonalAccessTokenRepository {
	return &PersonalAccessTokenRepository{db: db}
}

// FindTokenByPlainToken resolves a plain API token to its stored record.
// Tokens may carry an "id|secret" prefix; only the sha256 of the secret is
// compared against the database.
func (r *PersonalAccessTokenRepository) FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	var (
		tokenID   *int64
		tokenPart string
	)

	if idx := strings.Index(plainToken, "|"); idx > 0 {
		idStr := plainToken[:idx]
		tokenPart = plainToken[idx+1:]

		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			tokenID = &id
		}
	} else {
		tokenPart = plainToken
	}

	sum := sha256.Sum256([]byte(tokenPart))
	hashStr := fmt.Sprintf("%x", sum)

	var pat domain.PersonalAccessToken

	if tokenID != nil {
		err := r.db.QueryRowContext(ctx, `
			SELECT id, token_hash, operator_id, abilities, expires_at
			FROM personal_access_tokens
			WHERE id = $1
			  AND (expires_at IS NULL OR expires_at > $2)
		`, *tokenID, time.Now()).Scan(
			&pat.ID,
			&pat.TokenHash,
			&pat.OperatorID,
			&pat.Abilities,
			&pat.ExpiresAt,
		)
		if err != nil {
			log.Printf("[TOKEN] lookup by id=%d failed: %v", *tokenID, err)
		} else if pat.TokenHash == hashStr {
			return &pat, nil
		}
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, token_hash, operator_id, abilities, expires_at
		FROM personal_access_tokens
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, hashStr, time.Now()).Scan(
		&pat.ID,
		&pat.TokenHash,
		&pat.OperatorID,
		&pat.Abilities,
		&pat.ExpiresAt,
	)
	if err != nil {
		return nil, errors.New("token not found")
	}

	return &pat, nil
}
