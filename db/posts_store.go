package db

import (
	"context"
	"database/sql"

	"blog-api/models"

	"github.com/pkg/errors"
)

// PostStore persists posts in Postgres.
type PostStore struct {
	DB *sql.DB
}

func NewPostStore(conn *sql.DB) *PostStore {
	return &PostStore{DB: conn}
}

const postColumns = "id, author_id, title, body, created_on"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner, post *models.Post) error {
	return row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.CreatedOn)
}

// Create inserts post and fills in the id and creation time assigned by the store.
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, title, body) VALUES ($1, $2, $3) RETURNING id, created_on`,
		post.AuthorID, post.Title, post.Body,
	).Scan(&post.ID, &post.CreatedOn)
	if err != nil {
		return errors.Wrap(err, "failed to insert post")
	}
	return nil
}

func (s *PostStore) List(ctx context.Context) (posts []models.Post, err error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "error querying posts")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "error closing rows")
		}
	}()

	posts = []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, errors.Wrap(err, "error scanning post row")
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating over post rows")
	}
	return posts, nil
}

func (s *PostStore) Get(ctx context.Context, id int64) (*models.Post, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	return s.one(row, id)
}

// GetOwned looks id up within the posts written by authorID only.
func (s *PostStore) GetOwned(ctx context.Context, id, authorID int64) (*models.Post, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = $1 AND author_id = $2", id, authorID)
	return s.one(row, id)
}

func (s *PostStore) one(row *sql.Row, id int64) (*models.Post, error) {
	var post models.Post
	if err := scanPost(row, &post); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		return nil, errors.Wrapf(err, "error querying post %d", id)
	}
	return &post, nil
}

// Save writes the updatable fields of post back to the store.
func (s *PostStore) Save(ctx context.Context, post *models.Post) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE posts SET title = $1, body = $2 WHERE id = $3`,
		post.Title, post.Body, post.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update post %d", post.ID)
	}
	return expectOneRow(res)
}

func (s *PostStore) Delete(ctx context.Context, post *models.Post) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, post.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete post %d", post.ID)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return models.ErrPostNotFound
	}
	return nil
}
