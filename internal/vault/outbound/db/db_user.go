package db

import (
	"context"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const userColumns = `id, username, credential_secret, created_at`

func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO vault_users (id, username, credential_secret, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.CredentialSecret, user.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM vault_users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.CredentialSecret, &u.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// GetUserByUsername expects a normalized username.
func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM vault_users WHERE LOWER(username) = $1`, username).
		Scan(&u.ID, &u.Username, &u.CredentialSecret, &u.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// DeleteUser removes the user; accounts go with it through ON DELETE CASCADE.
func (s *DB) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM vault_users WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
