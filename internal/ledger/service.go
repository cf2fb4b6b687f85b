package ledger

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Entry, error)
	ListByCopy(ctx context.Context, copyID uuid.UUID) ([]*Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// History returns a member's loans, newest first.
func (s *Service) History(ctx context.Context, memberID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// CopyHistory returns every loan a copy has been through.
func (s *Service) CopyHistory(ctx context.Context, copyID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByCopy(ctx, copyID)
}
