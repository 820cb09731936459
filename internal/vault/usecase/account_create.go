package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type (
	CustomSecretInput struct {
		Label string `validate:"required,max=100"`
		Value string `validate:"required"`
	}

	CreateAccountInput struct {
		UserID int64 `validate:"required,gt=0"`
		// IdempotencyKey makes retries of the same create return the first result.
		IdempotencyKey        string              `validate:"omitempty,max=128"`
		BankName              string              `validate:"required,min=2,max=100"`
		ContactChannel        string              `validate:"required,phone"`
		AccountNumber         string              `validate:"required,min=5,max=20"`
		NetBankingUsername    string              `validate:"required,max=100"`
		NetBankingPassword    string              `validate:"max=256"`
		MobileBankingUsername string              `validate:"required,max=100"`
		MobileBankingPassword string              `validate:"max=256"`
		Pin                   string              `validate:"pin"`
		CustomSecrets         []CustomSecretInput `validate:"max=50,dive"`
	}
)

func (s *Usecase) CreateAccount(ctx context.Context, in CreateAccountInput) (*entity.AccountSummary, error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer span.End()

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

	fields := entity.AccountFields{
		BankName:              in.BankName,
		ContactChannel:        in.ContactChannel,
		AccountNumber:         in.AccountNumber,
		NetBankingUsername:    in.NetBankingUsername,
		MobileBankingUsername: in.MobileBankingUsername,
		NetBankingSecret:      entity.SecretFromPlain(in.NetBankingPassword),
		MobileBankingSecret:   entity.SecretFromPlain(in.MobileBankingPassword),
		PinSecret:             entity.SecretFromPlain(in.Pin),
		CustomSecrets:         toCustomSecretFields(in.CustomSecrets),
	}

	if in.IdempotencyKey == "" || s.idemp == nil {
		acc, err := s.createAccount(ctx, in.UserID, fields)
		if err != nil {
			return nil, err
		}
		return lo.ToPtr(acc.Summary()), nil
	}

	key := fmt.Sprintf("vault:create_account:%d:%s", in.UserID, in.IdempotencyKey)
	accountID, replayed, err := s.idemp.Do(ctx, key, func(ctx context.Context) (string, error) {
		acc, err := s.createAccount(ctx, in.UserID, fields)
		if err != nil {
			return "", err
		}
		return acc.ID, nil
	})
	if errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.WarnContext(ctx, "create account already in progress", "user_id", in.UserID)
		return nil, goerror.NewBusiness("Request is already being processed", goerror.CodeConflict)
	}
	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return nil, err
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to run idempotent create account", "user_id", in.UserID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	if !replayed {
		return &entity.AccountSummary{ID: accountID, BankName: fields.BankName, AccountNumber: fields.AccountNumber}, nil
	}

	acc, err := s.ownedAccount(ctx, in.UserID, accountID)
	if err != nil {
		return nil, err
	}
	return lo.ToPtr(acc.Summary()), nil
}

func (s *Usecase) createAccount(ctx context.Context, userID int64, fields entity.AccountFields) (*entity.Account, error) {
	acc, err := entity.NewAccount(s.uuid.Generate(), userID, fields, s.cipher, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt account secrets", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.CreateAccount(ctx, acc)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "owner of new account not found", "user_id", userID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "user_id", userID, "account_id", acc.ID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &acc, nil
}

func trimLabels(in []CustomSecretInput) []CustomSecretInput {
	return lo.Map(in, func(cs CustomSecretInput, _ int) CustomSecretInput {
		cs.Label = strings.TrimSpace(cs.Label)
		return cs
	})
}

func toCustomSecretFields(in []CustomSecretInput) []entity.CustomSecretInput {
	return lo.Map(in, func(cs CustomSecretInput, _ int) entity.CustomSecretInput {
		return entity.CustomSecretInput{Label: cs.Label, Value: cs.Value}
	})
}
