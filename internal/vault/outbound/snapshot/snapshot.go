// Package snapshot persists the whole user collection as a single JSON
// document. Every operation loads the collection, changes it and saves it
// back while holding the collection lock.
package snapshot

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const documentVersion = 1

type document struct {
	Version int          `json:"version"`
	Users   []userRecord `json:"users"`
}

type userRecord struct {
	ID               int64           `json:"id,string"`
	Username         string          `json:"username"`
	CredentialSecret string          `json:"credential_secret"`
	CreatedAt        time.Time       `json:"created_at"`
	Accounts         []accountRecord `json:"accounts"`
}

type accountRecord struct {
	ID                    string               `json:"id"`
	BankName              string               `json:"bank_name"`
	ContactChannel        string               `json:"contact_channel"`
	AccountNumber         string               `json:"account_number"`
	NetBankingUsername    string               `json:"net_banking_username"`
	NetBankingSecret      *string              `json:"net_banking_secret,omitempty"`
	MobileBankingUsername string               `json:"mobile_banking_username"`
	MobileBankingSecret   *string              `json:"mobile_banking_secret,omitempty"`
	PinSecret             *string              `json:"pin_secret,omitempty"`
	CustomSecrets         []customSecretRecord `json:"custom_secrets,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type customSecretRecord struct {
	Label      string `json:"label"`
	ValueToken string `json:"value_token"`
}

type Repo struct {
	coll Collection
	ins  instrument.Instrumentation
}

func NewRepo(coll Collection, ins instrument.Instrumentation) *Repo {
	return &Repo{coll: coll, ins: ins}
}

func (r *Repo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("vault.outbound.snapshot").Start(ctx, name)
}

func (r *Repo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *Repo) loadUsers(ctx context.Context) ([]entity.User, error) {
	data, err := r.coll.Load(ctx)
	if err != nil || len(data) == 0 {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return lo.Map(doc.Users, func(u userRecord, _ int) entity.User { return u.toEntity() }), nil
}

func (r *Repo) saveUsers(ctx context.Context, users []entity.User) error {
	data, err := json.MarshalIndent(document{
		Version: documentVersion,
		Users:   lo.Map(users, func(u entity.User, _ int) userRecord { return toUserRecord(u) }),
	}, "", "  ")
	if err != nil {
		return err
	}
	return r.coll.Save(ctx, data)
}

// view runs fn on a loaded collection under the lock.
func (r *Repo) view(ctx context.Context, fn func([]entity.User) error) error {
	unlock, err := r.coll.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	users, err := r.loadUsers(ctx)
	if err != nil {
		return err
	}
	return fn(users)
}

// update runs fn on a loaded collection under the lock and saves what fn
// returns. Nothing is saved when fn fails.
func (r *Repo) update(ctx context.Context, fn func([]entity.User) ([]entity.User, error)) error {
	unlock, err := r.coll.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	users, err := r.loadUsers(ctx)
	if err != nil {
		return err
	}
	next, err := fn(users)
	if err != nil {
		return err
	}
	return r.saveUsers(ctx, next)
}

func findUser(users []entity.User, id int64) int {
	return slices.IndexFunc(users, func(u entity.User) bool { return u.ID == id })
}

func findAccount(u entity.User, accountID string) int {
	return slices.IndexFunc(u.Accounts, func(a entity.Account) bool { return a.ID == accountID })
}

func toUserRecord(u entity.User) userRecord {
	return userRecord{
		ID:               u.ID,
		Username:         u.Username,
		CredentialSecret: u.CredentialSecret,
		CreatedAt:        u.CreatedAt,
		Accounts:         lo.Map(u.Accounts, func(a entity.Account, _ int) accountRecord { return toAccountRecord(a) }),
	}
}

func (u userRecord) toEntity() entity.User {
	return entity.User{
		ID:               u.ID,
		Username:         u.Username,
		CredentialSecret: u.CredentialSecret,
		CreatedAt:        u.CreatedAt,
		Accounts:         lo.Map(u.Accounts, func(a accountRecord, _ int) entity.Account { return a.toEntity(u.ID) }),
	}
}

func toAccountRecord(a entity.Account) accountRecord {
	return accountRecord{
		ID:                    a.ID,
		BankName:              a.BankName,
		ContactChannel:        a.ContactChannel,
		AccountNumber:         a.AccountNumber,
		NetBankingUsername:    a.NetBankingUsername,
		NetBankingSecret:      a.NetBankingSecret,
		MobileBankingUsername: a.MobileBankingUsername,
		MobileBankingSecret:   a.MobileBankingSecret,
		PinSecret:             a.PinSecret,
		CustomSecrets: lo.Map(a.CustomSecrets, func(cs entity.CustomSecret, _ int) customSecretRecord {
			return customSecretRecord(cs)
		}),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (a accountRecord) toEntity(userID int64) entity.Account {
	return entity.Account{
		ID:                    a.ID,
		UserID:                userID,
		BankName:              a.BankName,
		ContactChannel:        a.ContactChannel,
		AccountNumber:         a.AccountNumber,
		NetBankingUsername:    a.NetBankingUsername,
		NetBankingSecret:      a.NetBankingSecret,
		MobileBankingUsername: a.MobileBankingUsername,
		MobileBankingSecret:   a.MobileBankingSecret,
		PinSecret:             a.PinSecret,
		CustomSecrets: lo.Map(a.CustomSecrets, func(cs customSecretRecord, _ int) entity.CustomSecret {
			return entity.CustomSecret(cs)
		}),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func sortByCreated(accounts []entity.Account) {
	slices.SortStableFunc(accounts, func(a, b entity.Account) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
}
