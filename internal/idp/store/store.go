package store

import (
	"context"
	"errors"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories so a transaction-scoped Store carries the same
// surface, and nested transactions are refused instead of silently joined.
type Store interface {
	Users() Users
	Clients() Clients
	RefreshTokens() RefreshTokens
	AuthorizationCodes() AuthorizationCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername and GetUserByEmail match case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u and returns the assigned id. A duplicate username
	// or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by id.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts c; an existing id yields ErrAlreadyExists.
	CreateClient(ctx context.Context, c domain.Client) error

	UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error
}

type RefreshTokens interface {
	// UpsertRefreshToken writes the record for (t.UserID, t.ClientID),
	// replacing hash and timestamps when one already exists.
	UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error

	GetRefreshToken(ctx context.Context, userID int64, clientID string) (domain.RefreshToken, error)

	// DeleteUserRefreshTokens removes every record for the user and reports how many.
	DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error)

	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type AuthorizationCodes interface {
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// ConsumeAuthorizationCode deletes the code. It returns ErrNotFound when
	// the code was already consumed, so only one caller can succeed.
	ConsumeAuthorizationCode(ctx context.Context, id string) error

	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}
