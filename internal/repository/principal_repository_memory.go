package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/hospital-records/internal/domain"
)

type memoryPrincipalRepository struct {
	mu         sync.RWMutex
	principals map[string]domain.Principal
}

// NewMemoryPrincipalRepository returns a process-local store for development
// and tests. Records are lost on restart.
func NewMemoryPrincipalRepository() PrincipalRepository {
	return &memoryPrincipalRepository{principals: make(map[string]domain.Principal)}
}

func (r *memoryPrincipalRepository) Save(_ context.Context, principal *domain.Principal) (*domain.Principal, error) {
	record := *principal
	record.Identifier = domain.NormalizeIdentifier(principal.Identifier)
	record.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.principals[record.Identifier]; exists {
		return nil, domain.ErrDuplicatePrincipal
	}
	r.principals[record.Identifier] = record
	return &record, nil
}

func (r *memoryPrincipalRepository) FindByIdentifier(_ context.Context, identifier string) (*domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.principals[domain.NormalizeIdentifier(identifier)]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return &record, nil
}
