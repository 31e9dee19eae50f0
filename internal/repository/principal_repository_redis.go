package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/hospital-records/internal/domain"
)

const redisPrincipalPrefix = "principal:"

type redisPrincipal struct {
	Identifier   string      `json:"identifier"`
	PasswordHash string      `json:"password_hash"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

type redisPrincipalRepository struct {
	client redis.Cmdable
}

// NewRedisPrincipalRepository stores principals as JSON under
// "principal:<identifier>". SETNX provides the uniqueness guarantee.
func NewRedisPrincipalRepository(client redis.Cmdable) PrincipalRepository {
	return &redisPrincipalRepository{client: client}
}

func (r *redisPrincipalRepository) Save(ctx context.Context, principal *domain.Principal) (*domain.Principal, error) {
	record := redisPrincipal{
		Identifier:   domain.NormalizeIdentifier(principal.Identifier),
		PasswordHash: principal.PasswordHash,
		Role:         principal.Role,
		CreatedAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode principal: %w", err)
	}

	created, err := r.client.SetNX(ctx, redisPrincipalPrefix+record.Identifier, payload, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("save principal: %w", err)
	}
	if !created {
		return nil, domain.ErrDuplicatePrincipal
	}
	return record.toDomain(), nil
}

func (r *redisPrincipalRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error) {
	payload, err := r.client.Get(ctx, redisPrincipalPrefix+domain.NormalizeIdentifier(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	var record redisPrincipal
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode principal: %w", err)
	}
	return record.toDomain(), nil
}

func (p redisPrincipal) toDomain() *domain.Principal {
	return &domain.Principal{
		Identifier:   p.Identifier,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		CreatedAt:    p.CreatedAt,
	}
}
