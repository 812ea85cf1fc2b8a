package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

// PgUserDirectory resolves profile names from the auth-owned users table.
// Read-only from this domain's point of view.
type PgUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPgUserDirectory(pool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{pool: pool}
}

var _ repository.UserDirectory = (*PgUserDirectory)(nil)

func (d *PgUserDirectory) GetProfileName(ctx context.Context, userID string) (string, error) {
	var name string
	err := d.pool.QueryRow(ctx,
		"SELECT name FROM users WHERE id = $1::uuid", userID,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return name, err
}
