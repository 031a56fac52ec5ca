package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/store"
)

// UserStore implements store.UserStore.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a user store on db.
func NewUserStore(db store.DBTX) *UserStore {
	return &UserStore{db: db}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx}
}

// Create inserts a user with an already hashed password.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return store.NewStoreError("user", "create", "hashed password is required", store.ErrInvalidEntity)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.HashedPassword,
		formatTimestamp(user.CreatedAt), formatTimestamp(user.UpdatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID returns store.ErrUserNotFound when no user has id.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users WHERE id = ?`, id.String()))
}

// GetByEmail looks a user up case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user             domain.User
		created, updated string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}

	var err error
	if user.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, store.NewStoreError("user", "get", "decode failed", err)
	}
	if user.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, store.NewStoreError("user", "get", "decode failed", err)
	}
	return &user, nil
}
