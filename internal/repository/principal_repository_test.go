package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hospital-records/internal/domain"
)

type fakeRow struct {
	principal domain.Principal
	err       error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.principal.Identifier
	*dest[1].(*string) = r.principal.PasswordHash
	*dest[2].(*domain.Role) = r.principal.Role
	*dest[3].(*time.Time) = r.principal.CreatedAt
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	gotSQL   string
	gotArgs  []any
	rowCalls int
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.rowCalls++
	q.gotSQL = sql
	q.gotArgs = args
	return q.row
}

func TestPostgresSave_NormalizesIdentifier(t *testing.T) {
	now := time.Now().UTC()
	q := &fakeQuerier{row: fakeRow{principal: domain.Principal{
		Identifier: "a@b.com", PasswordHash: "hash", Role: domain.RoleDoctor, CreatedAt: now,
	}}}
	repo := NewPrincipalRepository(q)

	saved, err := repo.Save(context.Background(), &domain.Principal{
		Identifier: "  A@B.com ", PasswordHash: "hash", Role: domain.RoleDoctor,
	})
	require.NoError(t, err)

	assert.Contains(t, q.gotSQL, "INSERT INTO principals")
	assert.Equal(t, []any{"a@b.com", "hash", domain.RoleDoctor}, q.gotArgs)
	assert.Equal(t, "a@b.com", saved.Identifier)
	assert.Equal(t, now, saved.CreatedAt)
}

func TestPostgresSave_UniqueViolation(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}}}
	repo := NewPrincipalRepository(q)

	_, err := repo.Save(context.Background(), &domain.Principal{Identifier: "a@b.com", Role: domain.RoleNurse})
	assert.ErrorIs(t, err, domain.ErrDuplicatePrincipal)
}

func TestPostgresSave_OtherErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"check violation", &pgconn.PgError{Code: pgerrcode.CheckViolation}},
		{"connection", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewPrincipalRepository(&fakeQuerier{row: fakeRow{err: tt.err}})

			_, err := repo.Save(context.Background(), &domain.Principal{Identifier: "a@b.com"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, domain.ErrDuplicatePrincipal)
		})
	}
}

func TestPostgresFind(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{principal: domain.Principal{Identifier: "a@b.com", Role: domain.RoleAdmin}}}
	repo := NewPrincipalRepository(q)

	found, err := repo.FindByIdentifier(context.Background(), "A@B.COM")
	require.NoError(t, err)
	assert.Equal(t, []any{"a@b.com"}, q.gotArgs)
	assert.Equal(t, domain.RoleAdmin, found.Role)
}

func TestPostgresFind_NotFound(t *testing.T) {
	repo := NewPrincipalRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.FindByIdentifier(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, domain.ErrPrincipalNotFound)
}

func TestPostgresFind_StorageError(t *testing.T) {
	storeErr := errors.New("timeout")
	repo := NewPrincipalRepository(&fakeQuerier{row: fakeRow{err: storeErr}})

	_, err := repo.FindByIdentifier(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrPrincipalNotFound)
}
