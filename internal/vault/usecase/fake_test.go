package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/bankvault/internal/pkg/challenge"
	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/hash"
	"github.com/shandysiswandi/bankvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/ratelimit"
	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const devConfig = `
app:
  env: development
modules:
  vault:
    session_unlock_enabled: false
`

type fakeRepo struct {
	mu       sync.Mutex
	users    map[int64]entity.User
	accounts map[string]entity.Account
	order    []string
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[int64]entity.User{}, accounts: map[string]entity.Account{}}
}

func (r *fakeRepo) CreateUser(_ context.Context, user entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for _, u := range r.users {
		if entity.NormalizeUsername(u.Username) == entity.NormalizeUsername(user.Username) {
			return goerror.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (r *fakeRepo) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if entity.NormalizeUsername(u.Username) == username {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) DeleteUser(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(r.users, id)
	for accID, acc := range r.accounts {
		if acc.UserID == id {
			delete(r.accounts, accID)
		}
	}
	return nil
}

func (r *fakeRepo) owned(userID int64) []entity.Account {
	out := []entity.Account{}
	for _, id := range r.order {
		if acc, ok := r.accounts[id]; ok && acc.UserID == userID {
			out = append(out, acc.Clone())
		}
	}
	return out
}

func (r *fakeRepo) CountAccounts(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return len(r.owned(userID)), nil
}

func (r *fakeRepo) ListAccountSummaries(_ context.Context, userID int64) ([]entity.AccountSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := []entity.AccountSummary{}
	for _, acc := range r.owned(userID) {
		out = append(out, acc.Summary())
	}
	return out, nil
}

func (r *fakeRepo) ListAccounts(_ context.Context, userID int64) ([]entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.owned(userID), nil
}

func (r *fakeRepo) GetAccount(_ context.Context, userID int64, accountID string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	acc, ok := r.accounts[accountID]
	if !ok || acc.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	c := acc.Clone()
	return &c, nil
}

func (r *fakeRepo) CreateAccount(_ context.Context, acc entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[acc.UserID]; !ok {
		return goerror.ErrNotFound
	}
	r.accounts[acc.ID] = acc.Clone()
	r.order = append(r.order, acc.ID)
	return nil
}

func (r *fakeRepo) UpdateAccount(
	_ context.Context,
	userID int64,
	accountID string,
	mutate func(entity.Account) (entity.Account, error),
) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	acc, ok := r.accounts[accountID]
	if !ok || acc.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	next, err := mutate(acc.Clone())
	if err != nil {
		return nil, err
	}
	r.accounts[accountID] = next.Clone()
	return &next, nil
}

func (r *fakeRepo) DeleteAccount(_ context.Context, userID int64, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	acc, ok := r.accounts[accountID]
	if !ok || acc.UserID != userID {
		return goerror.ErrNotFound
	}
	delete(r.accounts, accountID)
	return nil
}

func (r *fakeRepo) stored(t *testing.T, accountID string) entity.Account {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	require.True(t, ok, "account %s not stored", accountID)
	return acc.Clone()
}

type fakeDeliverer struct {
	mu   sync.Mutex
	sent []DisclosureCode
	err  error
}

func (d *fakeDeliverer) DeliverDisclosureCode(_ context.Context, msg DisclosureCode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *fakeDeliverer) last(t *testing.T) DisclosureCode {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent)
	return d.sent[len(d.sent)-1]
}

type fakeIdempotency struct {
	mu      sync.Mutex
	results map[string]string
	busy    map[string]bool
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{results: map[string]string{}, busy: map[string]bool{}}
}

func (f *fakeIdempotency) Do(
	ctx context.Context,
	key string,
	fn func(context.Context) (string, error),
	_ ...idempotency.Option,
) (string, bool, error) {
	f.mu.Lock()
	if res, ok := f.results[key]; ok {
		f.mu.Unlock()
		return res, true, nil
	}
	if f.busy[key] {
		f.mu.Unlock()
		return "", false, idempotency.ErrAlreadyInProgress
	}
	f.busy[key] = true
	f.mu.Unlock()

	res, err := fn(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.busy, key)
	if err != nil {
		return "", false, err
	}
	f.results[key] = res
	return res, false, nil
}

type fixture struct {
	uc       *Usecase
	repo     *fakeRepo
	delivery *fakeDeliverer
	clock    *clock.Frozen
	cipher   *cipher.AESGCM
	idemp    *fakeIdempotency
	backup   *storage.Memory
	limiter  *ratelimit.Keyed
}

func newFixture(t *testing.T, cfgYAML string, challengeOpts ...challenge.Option) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	c, err := cipher.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	hmac, err := hash.NewHMACSHA256([]byte("hmac-secret"))
	require.NoError(t, err)

	snow, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewFrozen(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	token, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("s"), 64),
		Issuer: "bankvault",
		TTL:    time.Hour,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		repo:     newFakeRepo(),
		delivery: &fakeDeliverer{},
		clock:    clk,
		cipher:   c,
		idemp:    newFakeIdempotency(),
		backup:   storage.NewMemory(clk),
		limiter:  ratelimit.NewKeyed(time.Minute, 5, clk),
	}
	f.uc = New(Dependency{
		RepoDB:      f.repo,
		Deliverer:   f.delivery,
		Challenge:   challenge.NewMemory(clk, challengeOpts...),
		Limiter:     f.limiter,
		Cipher:      c,
		Idempotency: f.idemp,
		Backup:      f.backup,
		Validator:   v,
		Config:      cfg,
		HMAC:        hmac,
		UID:         snow,
		UUID:        uid.NewUUID(),
		Clock:       clk,
		JWT:         token,
		Instrument:  instrument.NewNoop(),
	})
	return f
}

func (f *fixture) registerUser(t *testing.T, username string) int64 {
	t.Helper()
	out, err := f.uc.RegisterUser(context.Background(), RegisterUserInput{
		Username:         username,
		CredentialSecret: "verifier-" + strings.ToLower(username),
	})
	require.NoError(t, err)
	return out.ID
}

func globalBankInput(userID int64) CreateAccountInput {
	return CreateAccountInput{
		UserID:                userID,
		BankName:              "Global Bank",
		ContactChannel:        "+14155550123",
		AccountNumber:         "1234567890",
		NetBankingUsername:    "alice.net",
		NetBankingPassword:    "Secret1",
		MobileBankingUsername: "alice.mobile",
	}
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	require.Error(t, err)
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "expected *goerror.Error, got %T: %v", err, err)
	require.Equal(t, code, gerr.Code(), "error: %v", err)
}
