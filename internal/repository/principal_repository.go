package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/hospital-records/internal/domain"
)

// PrincipalRepository persists credential records. Identifiers are
// normalized on both write and lookup. Save reports an existing identifier
// as domain.ErrDuplicatePrincipal; uniqueness is enforced by the backing
// store, not by callers.
type PrincipalRepository interface {
	Save(ctx context.Context, principal *domain.Principal) (*domain.Principal, error)
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error)
}

// rowQuerier is the subset of *pgxpool.Pool used by the Postgres repository.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type principalRepository struct {
	db rowQuerier
}

// NewPrincipalRepository returns a Postgres-backed implementation.
func NewPrincipalRepository(db rowQuerier) PrincipalRepository {
	return &principalRepository{db: db}
}

func (r *principalRepository) Save(ctx context.Context, principal *domain.Principal) (*domain.Principal, error) {
	const query = `
        INSERT INTO principals (identifier, password_hash, role)
        VALUES ($1, $2, $3)
        RETURNING identifier, password_hash, role, created_at`

	var saved domain.Principal
	err := r.db.QueryRow(ctx, query,
		domain.NormalizeIdentifier(principal.Identifier),
		principal.PasswordHash,
		principal.Role,
	).Scan(&saved.Identifier, &saved.PasswordHash, &saved.Role, &saved.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrDuplicatePrincipal
		}
		return nil, fmt.Errorf("save principal: %w", err)
	}
	return &saved, nil
}

func (r *principalRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error) {
	const query = `
        SELECT identifier, password_hash, role, created_at
        FROM principals WHERE identifier=$1`

	var principal domain.Principal
	if err := r.db.QueryRow(ctx, query, domain.NormalizeIdentifier(identifier)).Scan(
		&principal.Identifier,
		&principal.PasswordHash,
		&principal.Role,
		&principal.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return &principal, nil
}
