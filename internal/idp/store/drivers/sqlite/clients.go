package sqlite

import (
	"context"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
)

type clientsRepo struct {
	q dbtx
}

const clientColumns = `id, site_name, site_domain, redirect_uri, secret_hash, logo_url,
	description, category, internal, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c                    domain.Client
		internal, active     int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&c.ID, &c.SiteName, &c.SiteDomain, &c.RedirectURI, &c.SecretHash, &c.LogoURL,
		&c.Description, &c.Category, &internal, &active, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.Internal = internal == 1
	c.Active = active == 1
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	return scanClient(r.q.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := c.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SiteName, c.SiteDomain, c.RedirectURI, c.SecretHash, c.LogoURL,
		c.Description, c.Category, boolToInt(c.Internal), boolToInt(c.Active),
		toUnix(now), toUnix(now),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE clients SET secret_hash = ?, updated_at = ? WHERE id = ?`,
		secretHash, toUnix(time.Now()), clientID,
	))
}
