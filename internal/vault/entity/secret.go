package entity

import (
	"strings"
	"time"

	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
)

// SecretOp says what an update does to one stored secret.
type SecretOp uint8

const (
	SecretUnchanged SecretOp = iota
	SecretClear
	SecretSet
)

func (o SecretOp) String() string {
	switch o {
	case SecretClear:
		return "clear"
	case SecretSet:
		return "set"
	default:
		return "unchanged"
	}
}

type SecretInput struct {
	Op    SecretOp
	Value string
}

// SecretFromPlain maps form input to an operation. Blank input leaves the
// stored secret untouched.
func SecretFromPlain(plain string) SecretInput {
	if strings.TrimSpace(plain) == "" {
		return SecretInput{Op: SecretUnchanged}
	}
	return SecretInput{Op: SecretSet, Value: plain}
}

// SecretFromUpdate is SecretFromPlain with an explicit clear flag. A
// non-blank value wins over clear.
func SecretFromUpdate(plain string, clear bool) SecretInput {
	in := SecretFromPlain(plain)
	if in.Op == SecretUnchanged && clear {
		return SecretInput{Op: SecretClear}
	}
	return in
}

type CustomSecretInput struct {
	Label string
	Value string
}

// AccountFields is the plaintext shape of an account write.
type AccountFields struct {
	BankName              string
	ContactChannel        string
	AccountNumber         string
	NetBankingUsername    string
	MobileBankingUsername string
	NetBankingSecret      SecretInput
	MobileBankingSecret   SecretInput
	PinSecret             SecretInput
	CustomSecrets         []CustomSecretInput
}

// NewAccount applies the create merge: set secrets are encrypted, everything
// else is stored absent.
func NewAccount(id string, userID int64, f AccountFields, c cipher.Cipher, now time.Time) (Account, error) {
	acc := Account{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
	}
	return acc.Merge(f, c, now)
}

// Merge applies the update merge and returns the new record; a is not
// modified. Non-secret fields are overwritten verbatim, unchanged secrets keep
// their token byte for byte, and custom secrets are replaced wholesale.
func (a Account) Merge(f AccountFields, c cipher.Cipher, now time.Time) (Account, error) {
	out := a.Clone()
	out.BankName = f.BankName
	out.ContactChannel = f.ContactChannel
	out.AccountNumber = f.AccountNumber
	out.NetBankingUsername = f.NetBankingUsername
	out.MobileBankingUsername = f.MobileBankingUsername
	out.UpdatedAt = now

	var err error
	if out.NetBankingSecret, err = applySecret(out.NetBankingSecret, f.NetBankingSecret, c); err != nil {
		return Account{}, err
	}
	if out.MobileBankingSecret, err = applySecret(out.MobileBankingSecret, f.MobileBankingSecret, c); err != nil {
		return Account{}, err
	}
	if out.PinSecret, err = applySecret(out.PinSecret, f.PinSecret, c); err != nil {
		return Account{}, err
	}

	out.CustomSecrets = make([]CustomSecret, 0, len(f.CustomSecrets))
	for _, cs := range f.CustomSecrets {
		token, err := c.Encrypt(cs.Value)
		if err != nil {
			return Account{}, err
		}
		out.CustomSecrets = append(out.CustomSecrets, CustomSecret{Label: cs.Label, ValueToken: token})
	}

	return out, nil
}

// Disclose decrypts every secret. Absent secrets read NotAvailable and a token
// that cannot be opened reads cipher.Placeholder.
func (a Account) Disclose(c cipher.Cipher) DisclosedAccount {
	out := DisclosedAccount{
		ID:                    a.ID,
		BankName:              a.BankName,
		ContactChannel:        a.ContactChannel,
		AccountNumber:         a.AccountNumber,
		NetBankingUsername:    a.NetBankingUsername,
		NetBankingSecret:      discloseToken(a.NetBankingSecret, c),
		MobileBankingUsername: a.MobileBankingUsername,
		MobileBankingSecret:   discloseToken(a.MobileBankingSecret, c),
		Pin:                   discloseToken(a.PinSecret, c),
		CustomSecrets:         make([]DisclosedSecret, 0, len(a.CustomSecrets)),
	}
	for _, cs := range a.CustomSecrets {
		out.CustomSecrets = append(out.CustomSecrets, DisclosedSecret{
			Label: cs.Label,
			Value: cipher.DecryptOrPlaceholder(c, cs.ValueToken),
		})
	}
	return out
}

func applySecret(current *string, in SecretInput, c cipher.Cipher) (*string, error) {
	switch in.Op {
	case SecretSet:
		token, err := c.Encrypt(in.Value)
		if err != nil {
			return nil, err
		}
		return &token, nil
	case SecretClear:
		return nil, nil
	default:
		return current, nil
	}
}

func discloseToken(token *string, c cipher.Cipher) string {
	if token == nil {
		return NotAvailable
	}
	return cipher.DecryptOrPlaceholder(c, *token)
}
