// Package identity resolves an authenticated account to its
// role-specific profile. The role is an explicit tag carried with the
// principal; callers dispatch on it, never on the concrete shape of a
// lookup result.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("account not found")

// Role is a closed set. Anything else coming out of the store is a data
// error and surfaces as ErrNotFound.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return true
	}

	return false
}

// Principal is an authenticated account resolved to its profile.
// ProfileID is the member or staff row the role tag points at.
type Principal struct {
	AccountID uuid.UUID
	ProfileID uuid.UUID
	Role      Role
	Name      string
}

//go:generate mockgen -source=identity.go -destination=identity_mock.go -package=identity
type Repository interface {
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*Principal, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ByAccount(ctx context.Context, accountID uuid.UUID) (*Principal, error) {
	p, err := s.repo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !p.Role.Valid() {
		return nil, ErrNotFound
	}

	return p, nil
}
