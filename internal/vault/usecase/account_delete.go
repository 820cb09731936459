package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
)

type DeleteAccountInput struct {
	UserID    int64  `validate:"required,gt=0"`
	AccountID string `validate:"required"`
}

func (s *Usecase) DeleteAccount(ctx context.Context, in DeleteAccountInput) error {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer span.End()

	in.AccountID = strings.TrimSpace(in.AccountID)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !uid.IsUUID(in.AccountID) {
		return goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}

	err := s.repoDB.DeleteAccount(ctx, in.UserID, in.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "user_id", in.UserID, "account_id", in.AccountID)
		return goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete account", "user_id", in.UserID, "account_id", in.AccountID, "error", err)
		return goerror.NewUnavailable(err)
	}

	return nil
}
