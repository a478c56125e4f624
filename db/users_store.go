package db

import (
	"context"
	"database/sql"

	"blog-api/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type UserStore struct {
	DB *sql.DB
}

func NewUserStore(conn *sql.DB) *UserStore {
	return &UserStore{DB: conn}
}

// Create inserts user, whose Password must already be hashed.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, query, user.Username, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.ErrUserExists
		}
		return errors.Wrap(err, "failed to insert user into database")
	}
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, email, password, created_at FROM users WHERE username = $1`
	return s.one(s.DB.QueryRowContext(ctx, query, username))
}

func (s *UserStore) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT id, username, email, password, created_at FROM users WHERE id = $1`
	return s.one(s.DB.QueryRowContext(ctx, query, userID))
}

func (s *UserStore) one(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return &user, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password = $1 WHERE id = $2`, hashedPassword, userID)
	if err != nil {
		return errors.Wrap(err, "failed to update user password")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
