package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicatePrincipal = errors.New("principal already exists")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = errors.New("invalid token")

	// ErrExpiredToken matches ErrInvalidToken under errors.Is so callers that
	// only care about acceptance treat both the same.
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
)
