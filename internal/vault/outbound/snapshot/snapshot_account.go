package snapshot

import (
	"context"

	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

// accountsOf returns copies of the user's accounts, oldest first. A missing
// user owns nothing.
func accountsOf(users []entity.User, userID int64) []entity.Account {
	i := findUser(users, userID)
	if i < 0 {
		return []entity.Account{}
	}
	out := lo.Map(users[i].Accounts, func(a entity.Account, _ int) entity.Account { return a.Clone() })
	sortByCreated(out)
	return out
}

func (r *Repo) CountAccounts(ctx context.Context, userID int64) (_ int, err error) {
	ctx, span := r.startSpan(ctx, "CountAccounts")
	defer func() { r.endSpan(span, err) }()

	var n int
	err = r.view(ctx, func(users []entity.User) error {
		n = len(accountsOf(users, userID))
		return nil
	})
	return n, err
}

func (r *Repo) ListAccountSummaries(ctx context.Context, userID int64) (_ []entity.AccountSummary, err error) {
	ctx, span := r.startSpan(ctx, "ListAccountSummaries")
	defer func() { r.endSpan(span, err) }()

	var out []entity.AccountSummary
	err = r.view(ctx, func(users []entity.User) error {
		out = lo.Map(accountsOf(users, userID), func(a entity.Account, _ int) entity.AccountSummary { return a.Summary() })
		return nil
	})
	return out, err
}

func (r *Repo) ListAccounts(ctx context.Context, userID int64) (_ []entity.Account, err error) {
	ctx, span := r.startSpan(ctx, "ListAccounts")
	defer func() { r.endSpan(span, err) }()

	var out []entity.Account
	err = r.view(ctx, func(users []entity.User) error {
		out = accountsOf(users, userID)
		return nil
	})
	return out, err
}

func (r *Repo) GetAccount(ctx context.Context, userID int64, accountID string) (_ *entity.Account, err error) {
	ctx, span := r.startSpan(ctx, "GetAccount")
	defer func() { r.endSpan(span, err) }()

	var out *entity.Account
	err = r.view(ctx, func(users []entity.User) error {
		i := findUser(users, userID)
		if i < 0 {
			return goerror.ErrNotFound
		}
		j := findAccount(users[i], accountID)
		if j < 0 {
			return goerror.ErrNotFound
		}
		out = lo.ToPtr(users[i].Accounts[j].Clone())
		return nil
	})
	return out, err
}

func (r *Repo) CreateAccount(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := r.startSpan(ctx, "CreateAccount")
	defer func() { r.endSpan(span, err) }()

	return r.update(ctx, func(users []entity.User) ([]entity.User, error) {
		i := findUser(users, acc.UserID)
		if i < 0 {
			return nil, goerror.ErrNotFound
		}
		for _, u := range users {
			if findAccount(u, acc.ID) >= 0 {
				return nil, goerror.ErrConflict
			}
		}
		users[i].Accounts = append(users[i].Accounts, acc.Clone())
		return users, nil
	})
}

func (r *Repo) UpdateAccount(
	ctx context.Context,
	userID int64,
	accountID string,
	mutate func(entity.Account) (entity.Account, error),
) (_ *entity.Account, err error) {
	ctx, span := r.startSpan(ctx, "UpdateAccount")
	defer func() { r.endSpan(span, err) }()

	var out *entity.Account
	err = r.update(ctx, func(users []entity.User) ([]entity.User, error) {
		i := findUser(users, userID)
		if i < 0 {
			return nil, goerror.ErrNotFound
		}
		j := findAccount(users[i], accountID)
		if j < 0 {
			return nil, goerror.ErrNotFound
		}

		next, err := mutate(users[i].Accounts[j].Clone())
		if err != nil {
			return nil, err
		}
		next.ID, next.UserID = accountID, userID

		users[i].Accounts[j] = next.Clone()
		out = &next
		return users, nil
	})
	return out, err
}

func (r *Repo) DeleteAccount(ctx context.Context, userID int64, accountID string) (err error) {
	ctx, span := r.startSpan(ctx, "DeleteAccount")
	defer func() { r.endSpan(span, err) }()

	return r.update(ctx, func(users []entity.User) ([]entity.User, error) {
		i := findUser(users, userID)
		if i < 0 {
			return nil, goerror.ErrNotFound
		}
		before := len(users[i].Accounts)
		users[i].Accounts = lo.Reject(users[i].Accounts, func(a entity.Account, _ int) bool { return a.ID == accountID })
		if len(users[i].Accounts) == before {
			return nil, goerror.ErrNotFound
		}
		return users, nil
	})
}
