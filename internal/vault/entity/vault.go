package entity

import (
	"strings"
	"time"
)

// NotAvailable is disclosed in place of a secret that was never set.
const NotAvailable = "N/A"

type User struct {
	ID int64
	// Username keeps the casing chosen at sign-up; uniqueness uses NormalizeUsername.
	Username         string
	CredentialSecret string // HMAC digest of the externally produced verifier
	Accounts         []Account
	CreatedAt        time.Time
}

// Account is one stored set of banking credentials. Fields named *Secret and
// CustomSecret.ValueToken only ever hold cipher tokens; nil means absent.
type Account struct {
	ID                    string
	UserID                int64
	BankName              string
	ContactChannel        string
	AccountNumber         string
	NetBankingUsername    string
	NetBankingSecret      *string
	MobileBankingUsername string
	MobileBankingSecret   *string
	PinSecret             *string
	CustomSecrets         []CustomSecret
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type CustomSecret struct {
	Label      string
	ValueToken string
}

// AccountSummary is the only shape exposed by listings.
type AccountSummary struct {
	ID            string
	BankName      string
	AccountNumber string
}

// DisclosedAccount is an account with every secret in plaintext, built for a
// single response.
type DisclosedAccount struct {
	ID                    string
	BankName              string
	ContactChannel        string
	AccountNumber         string
	NetBankingUsername    string
	NetBankingSecret      string
	MobileBankingUsername string
	MobileBankingSecret   string
	Pin                   string
	CustomSecrets         []DisclosedSecret
}

type DisclosedSecret struct {
	Label string
	Value string
}

type Profile struct {
	ID           int64
	Username     string
	AccountCount int
	CreatedAt    time.Time
}

func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, BankName: a.BankName, AccountNumber: a.AccountNumber}
}

// Clone returns a deep copy so callers can mutate it without aliasing tokens.
func (a Account) Clone() Account {
	c := a
	c.NetBankingSecret = cloneToken(a.NetBankingSecret)
	c.MobileBankingSecret = cloneToken(a.MobileBankingSecret)
	c.PinSecret = cloneToken(a.PinSecret)
	if a.CustomSecrets != nil {
		c.CustomSecrets = append([]CustomSecret(nil), a.CustomSecrets...)
	}
	return c
}

// NormalizeUsername is the key usernames are compared by.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func cloneToken(t *string) *string {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
