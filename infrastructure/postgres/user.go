package postgres

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var _ repositories.IUserRepository = (*UserRepository)(nil)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

const userColumns = `id, email, nickname, profile_image, password_hash, roles, created_at`

func (u *UserRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if len(user.Roles) == 0 {
		user.Roles = []string{"user"}
	}
	err := u.store.pool.QueryRow(ctx, `
		INSERT INTO users (email, nickname, profile_image, password_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.Email, user.Nickname, user.ProfileImage, user.PasswordHash, user.Roles, u.store.now()).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, errors.ErrUserAlreadyExists
	}
	if err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (u *UserRepository) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	row := u.store.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (u *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := u.store.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// SearchUsers matches the term anywhere in the nickname or the email,
// ignoring case.
func (u *UserRepository) SearchUsers(ctx context.Context, term string, exclude domain.UserID, limit int) ([]domain.User, error) {
	var fetch *int
	if limit > 0 {
		fetch = &limit
	}
	rows, err := u.store.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id <> $2 AND (strpos(lower(nickname), $1) > 0 OR strpos(email, $1) > 0)
		ORDER BY nickname, id
		LIMIT $3
	`, strings.ToLower(strings.TrimSpace(term)), exclude, fetch)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		return scanUser(row)
	})
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.ProfileImage,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
