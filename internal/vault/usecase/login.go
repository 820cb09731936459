package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const msgInvalidLogin = "Invalid username or credential"

type LoginInput struct {
	Username         string `validate:"required"`
	CredentialSecret string `validate:"required"`
}

type LoginOutput struct {
	AccessToken string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	username := entity.NormalizeUsername(in.Username)
	user, err := s.repoDB.GetUserByUsername(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "username", username)
		return nil, goerror.NewBusiness(msgInvalidLogin, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", username, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	if !s.hmac.Verify(user.CredentialSecret, in.CredentialSecret) {
		slog.WarnContext(ctx, "credential secret not match", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgInvalidLogin, goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{AccessToken: token}, nil
}
