package snapshot

import (
	"context"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

func (r *Repo) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := r.startSpan(ctx, "CreateUser")
	defer func() { r.endSpan(span, err) }()

	return r.update(ctx, func(users []entity.User) ([]entity.User, error) {
		key := entity.NormalizeUsername(user.Username)
		for _, u := range users {
			if u.ID == user.ID || entity.NormalizeUsername(u.Username) == key {
				return nil, goerror.ErrConflict
			}
		}
		user.Accounts = nil
		return append(users, user), nil
	})
}

func (r *Repo) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := r.startSpan(ctx, "GetUserByID")
	defer func() { r.endSpan(span, err) }()

	var out *entity.User
	err = r.view(ctx, func(users []entity.User) error {
		i := findUser(users, id)
		if i < 0 {
			return goerror.ErrNotFound
		}
		u := users[i]
		u.Accounts = nil
		out = &u
		return nil
	})
	return out, err
}

// GetUserByUsername expects a normalized username.
func (r *Repo) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := r.startSpan(ctx, "GetUserByUsername")
	defer func() { r.endSpan(span, err) }()

	var out *entity.User
	err = r.view(ctx, func(users []entity.User) error {
		for _, u := range users {
			if entity.NormalizeUsername(u.Username) == username {
				u.Accounts = nil
				out = &u
				return nil
			}
		}
		return goerror.ErrNotFound
	})
	return out, err
}

func (r *Repo) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, span := r.startSpan(ctx, "DeleteUser")
	defer func() { r.endSpan(span, err) }()

	return r.update(ctx, func(users []entity.User) ([]entity.User, error) {
		i := findUser(users, id)
		if i < 0 {
			return nil, goerror.ErrNotFound
		}
		return append(users[:i], users[i+1:]...), nil
	})
}
