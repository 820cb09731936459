package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const backupFormatVersion = 1

var errBackupDisabled = errors.New("backup storage is not configured")

type ExportBackupInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type ExportBackupOutput struct {
	Key          string
	AccountCount int
	ExportedAt   time.Time
}

type backupDocument struct {
	Version    int             `json:"version"`
	UserID     int64           `json:"user_id,string"`
	ExportedAt time.Time       `json:"exported_at"`
	Accounts   []backupAccount `json:"accounts"`
}

// backupAccount holds cipher tokens only; a backup never contains plaintext.
type backupAccount struct {
	ID                    string               `json:"id"`
	BankName              string               `json:"bank_name"`
	ContactChannel        string               `json:"contact_channel"`
	AccountNumber         string               `json:"account_number"`
	NetBankingUsername    string               `json:"net_banking_username"`
	NetBankingSecret      *string              `json:"net_banking_secret,omitempty"`
	MobileBankingUsername string               `json:"mobile_banking_username"`
	MobileBankingSecret   *string              `json:"mobile_banking_secret,omitempty"`
	PinSecret             *string              `json:"pin_secret,omitempty"`
	CustomSecrets         []backupCustomSecret `json:"custom_secrets"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type backupCustomSecret struct {
	Label      string `json:"label"`
	ValueToken string `json:"value_token"`
}

// ExportBackup writes the user's encrypted accounts to object storage.
func (s *Usecase) ExportBackup(ctx context.Context, in ExportBackupInput) (*ExportBackupOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportBackup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if s.backup == nil {
		slog.WarnContext(ctx, "backup export requested without storage", "user_id", in.UserID)
		return nil, goerror.NewUnavailable(errBackupDisabled)
	}

	accounts, err := s.repoDB.ListAccounts(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list accounts", "user_id", in.UserID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	now := s.clock.Now()
	body, err := json.Marshal(backupDocument{
		Version:    backupFormatVersion,
		UserID:     in.UserID,
		ExportedAt: now,
		Accounts:   lo.Map(accounts, func(a entity.Account, _ int) backupAccount { return toBackupAccount(a) }),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal backup", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := fmt.Sprintf("backups/%d/%d.json", in.UserID, now.UnixNano())
	if _, err := s.backup.Put(ctx, key, body, "application/json"); err != nil {
		slog.ErrorContext(ctx, "failed to store backup", "user_id", in.UserID, "key", key, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &ExportBackupOutput{Key: key, AccountCount: len(accounts), ExportedAt: now}, nil
}

func toBackupAccount(a entity.Account) backupAccount {
	return backupAccount{
		ID:                    a.ID,
		BankName:              a.BankName,
		ContactChannel:        a.ContactChannel,
		AccountNumber:         a.AccountNumber,
		NetBankingUsername:    a.NetBankingUsername,
		NetBankingSecret:      a.NetBankingSecret,
		MobileBankingUsername: a.MobileBankingUsername,
		MobileBankingSecret:   a.MobileBankingSecret,
		PinSecret:             a.PinSecret,
		CustomSecrets: lo.Map(a.CustomSecrets, func(cs entity.CustomSecret, _ int) backupCustomSecret {
			return backupCustomSecret{Label: cs.Label, ValueToken: cs.ValueToken}
		}),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
