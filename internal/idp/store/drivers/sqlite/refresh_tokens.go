package sqlite

import (
	"context"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
)

type refreshTokensRepo struct {
	q dbtx
}

func (r *refreshTokensRepo) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, client_id, token_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, client_id) DO UPDATE SET
		     token_hash = excluded.token_hash,
		     created_at = excluded.created_at,
		     expires_at = excluded.expires_at`,
		t.ID, t.UserID, t.ClientID, t.TokenHash, toUnix(t.CreatedAt), toUnix(t.ExpiresAt),
	)
	return err
}

func (r *refreshTokensRepo) GetRefreshToken(
	ctx context.Context,
	userID int64,
	clientID string,
) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		createdAt, expiresAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, token_hash, created_at, expires_at
		 FROM refresh_tokens WHERE user_id = ? AND client_id = ?`,
		userID, clientID,
	).Scan(&t.ID, &t.UserID, &t.ClientID, &t.TokenHash, &createdAt, &expiresAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.CreatedAt = fromUnix(createdAt)
	t.ExpiresAt = fromUnix(expiresAt)
	return t, nil
}

func (r *refreshTokensRepo) DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	return affected(r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID))
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, toUnix(now)))
}
