package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

// PasswordResetToken is a single-use, short-lived token permitting a
// password change without the current password. Only the hash is
// persisted; the raw token exists solely in the email sent to the user.
type PasswordResetToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// PasswordResetRepository persists password-reset tokens.
type PasswordResetRepository struct {
	db *database.DB
}

// NewPasswordResetRepository creates a PasswordResetRepository.
func NewPasswordResetRepository(db *database.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// GenerateToken mints a random token, stores its hash with a 1-hour expiry,
// and returns the raw token for emailing to the user.
func (r *PasswordResetRepository) GenerateToken(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID, hashToken(token), time.Now().Add(time.Hour))
	if err != nil {
		return "", err
	}
	return token, nil
}

// Consume looks up an unused, unexpired token and marks it used in the same
// call, so a token can never be redeemed twice even under concurrent
// requests (the UPDATE's WHERE clause re-checks used_at).
func (r *PasswordResetRepository) Consume(ctx context.Context, token string) (*PasswordResetToken, error) {
	hash := hashToken(token)

	var rec PasswordResetToken
	query := `
		UPDATE password_reset_tokens
		SET used_at = NOW()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id, user_id, token_hash, expires_at, used_at, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, hash).StructScan(&rec)
	if err == sql.ErrNoRows {
		return nil, errors.BadRequest("reset token is invalid or has expired")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
