package sqlite

import (
	"context"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
)

type authorizationCodesRepo struct {
	q dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO authorization_codes (id, user_id, client_id, code_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		code.ID, code.UserID, code.ClientID, code.CodeHash, toUnix(code.CreatedAt), toUnix(code.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var (
		c                    domain.AuthorizationCode
		createdAt, expiresAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, code_hash, created_at, expires_at
		 FROM authorization_codes WHERE code_hash = ?`,
		hash,
	).Scan(&c.ID, &c.UserID, &c.ClientID, &c.CodeHash, &createdAt, &expiresAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	c.CreatedAt = fromUnix(createdAt)
	c.ExpiresAt = fromUnix(expiresAt)
	return c, nil
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, id string) error {
	return requireRow(r.q.ExecContext(ctx, `DELETE FROM authorization_codes WHERE id = ?`, id))
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at < ?`, toUnix(now)))
}
