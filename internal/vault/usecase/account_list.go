package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type ListAccountsInput struct {
	UserID int64 `validate:"required,gt=0"`
}

func (s *Usecase) ListAccounts(ctx context.Context, in ListAccountsInput) ([]entity.AccountSummary, error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	summaries, err := s.repoDB.ListAccountSummaries(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list accounts", "user_id", in.UserID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	if summaries == nil {
		summaries = []entity.AccountSummary{}
	}
	return summaries, nil
}
