package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
)

type DeleteUserInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// DeleteUser removes the user together with every account it owns.
func (s *Usecase) DeleteUser(ctx context.Context, in DeleteUserInput) error {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.repoDB.DeleteUser(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", in.UserID)
		return goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user", "user_id", in.UserID, "error", err)
		return goerror.NewUnavailable(err)
	}

	return nil
}
