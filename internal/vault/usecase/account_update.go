package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

// UpdateAccountInput replaces the account's plain fields. A blank password or
// pin keeps the stored secret; the Clear flags remove it instead.
type UpdateAccountInput struct {
	UserID                     int64  `validate:"required,gt=0"`
	AccountID                  string `validate:"required"`
	BankName                   string `validate:"required,min=2,max=100"`
	ContactChannel             string `validate:"required,phone"`
	AccountNumber              string `validate:"required,min=5,max=20"`
	NetBankingUsername         string `validate:"required,max=100"`
	NetBankingPassword         string `validate:"max=256"`
	ClearNetBankingPassword    bool
	MobileBankingUsername      string `validate:"required,max=100"`
	MobileBankingPassword      string `validate:"max=256"`
	ClearMobileBankingPassword bool
	Pin                        string `validate:"pin"`
	ClearPin                   bool
	CustomSecrets              []CustomSecretInput `validate:"max=50,dive"`
}

func (s *Usecase) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*entity.AccountSummary, error) {
	ctx, span := s.startSpan(ctx, "UpdateAccount")
	defer span.End()

	in.AccountID = strings.TrimSpace(in.AccountID)
	in.BankName = strings.TrimSpace(in.BankName)
	in.ContactChannel = strings.TrimSpace(in.ContactChannel)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.NetBankingUsername = strings.TrimSpace(in.NetBankingUsername)
	in.MobileBankingUsername = strings.TrimSpace(in.MobileBankingUsername)
	in.Pin = strings.TrimSpace(in.Pin)
	in.CustomSecrets = trimLabels(in.CustomSecrets)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !uid.IsUUID(in.AccountID) {
		slog.WarnContext(ctx, "account id is malformed", "user_id", in.UserID, "account_id", in.AccountID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}

	fields := entity.AccountFields{
		BankName:              in.BankName,
		ContactChannel:        in.ContactChannel,
		AccountNumber:         in.AccountNumber,
		NetBankingUsername:    in.NetBankingUsername,
		MobileBankingUsername: in.MobileBankingUsername,
		NetBankingSecret:      entity.SecretFromUpdate(in.NetBankingPassword, in.ClearNetBankingPassword),
		MobileBankingSecret:   entity.SecretFromUpdate(in.MobileBankingPassword, in.ClearMobileBankingPassword),
		PinSecret:             entity.SecretFromUpdate(in.Pin, in.ClearPin),
		CustomSecrets:         toCustomSecretFields(in.CustomSecrets),
	}

	var mergeErr error
	acc, err := s.repoDB.UpdateAccount(ctx, in.UserID, in.AccountID, func(current entity.Account) (entity.Account, error) {
		merged, err := current.Merge(fields, s.cipher, s.clock.Now())
		mergeErr = err
		return merged, err
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "user_id", in.UserID, "account_id", in.AccountID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if mergeErr != nil {
		slog.ErrorContext(ctx, "failed to encrypt account secrets", "account_id", in.AccountID, "error", mergeErr)
		return nil, goerror.NewServer(mergeErr)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update account", "user_id", in.UserID, "account_id", in.AccountID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return lo.ToPtr(acc.Summary()), nil
}
