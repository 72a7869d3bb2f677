package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SessionsRepo resolves bearer tokens against the backing service's
// sessions table. It implements session.Resolver.
type SessionsRepo struct {
	pg    *Postgres
	table string
}

func NewSessionsRepo(pg *Postgres, table string) *SessionsRepo {
	return &SessionsRepo{pg: pg, table: table}
}

func (r *SessionsRepo) ResolveToken(ctx context.Context, token string) (string, error) {
	query := fmt.Sprintf(`
		SELECT owner_id
		FROM %s
		WHERE token = $1 AND (expires_at IS NULL OR expires_at > now())`, r.table)

	var owner string
	err := r.pg.Pool.QueryRow(ctx, query, token).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("unknown or expired token")
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return owner, nil
}
