package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

const (
	usersTable = "users"

	pgUniqueViolation = "23505"
)

var userColumns = []string{
	"id", "open_id", "name", "email", "password_hash", "login_method",
	"role", "created_at", "updated_at", "last_signed_in",
}

// UserRepository stores user accounts.
type UserRepository struct {
	db  DBTX
	now func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Create inserts u. A duplicate email or open id is USER_ALREADY_EXISTS.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	stored := *u
	now := r.now().UTC()
	stored.CreatedAt, stored.UpdatedAt, stored.LastSignedIn = now, now, now
	if stored.Role == "" {
		stored.Role = domain.RoleUser
	}

	q, args := postgres().Insert(usersTable).
		Columns(userColumns[1:]...).
		Values(
			stored.OpenID, stored.Name, stored.Email, stored.PasswordHash, stored.LoginMethod,
			string(stored.Role), stored.CreatedAt, stored.UpdatedAt, stored.LastSignedIn,
		).
		Returning("id").
		Query()

	if err := r.db.QueryRow(ctx, q, args...).Scan(&stored.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperrors.Conflict(apperrors.CodeUserExists, "user already exists")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &stored, nil
}

// GetByID returns the user with id or USER_NOT_FOUND.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail returns the user with email or USER_NOT_FOUND.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// TouchLastSignedIn records a successful sign-in.
func (r *UserRepository) TouchLastSignedIn(ctx context.Context, id int64) error {
	now := r.now().UTC()
	q, args := postgres().Update(usersTable).
		Set("last_signed_in", now).
		Set("updated_at", now).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("touch user %d: %w", id, err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	s := postgres().Select(userColumns...).From(entsql.Table(usersTable))
	s.Where(entsql.EQ(s.C(column), value))
	q, args := s.Query()

	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, q, args...).Scan(
		&u.ID, &u.OpenID, &u.Name, &u.Email, &u.PasswordHash, &u.LoginMethod,
		&role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}
