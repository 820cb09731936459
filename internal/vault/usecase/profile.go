package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type ProfileInput struct {
	UserID int64 `validate:"required,gt=0"`
}

func (s *Usecase) Profile(ctx context.Context, in ProfileInput) (*entity.Profile, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", in.UserID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	count, err := s.repoDB.CountAccounts(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count accounts", "user_id", in.UserID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &entity.Profile{
		ID:           user.ID,
		Username:     user.Username,
		AccountCount: count,
		CreatedAt:    user.CreatedAt,
	}, nil
}
