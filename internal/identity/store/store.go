package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/identity"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByAccount(ctx context.Context, accountID uuid.UUID) (*identity.Principal, error) {
	// Admin accounts have no profile row; the account id doubles as the
	// profile id.
	query := `
		SELECT a.id, a.role, a.name, COALESCE(m.id, st.id, a.id) AS profile_id
		FROM accounts a
		LEFT JOIN members m ON m.account_id = a.id
		LEFT JOIN staff st ON st.account_id = a.id
		WHERE a.id = $1
	`

	var p identity.Principal

	var roleStr string

	err := s.db.QueryRowContext(ctx, query, accountID).
		Scan(&p.AccountID, &roleStr, &p.Name, &p.ProfileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, identity.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	p.Role = identity.Role(roleStr)

	return &p, nil
}
