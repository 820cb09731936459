package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type RegisterUserInput struct {
	Username string `validate:"required,min=3,max=64"`
	// CredentialSecret is the verifier produced by the login collaborator.
	CredentialSecret string `validate:"required,min=8,max=512"`
}

type RegisterUserOutput struct {
	ID       int64
	Username string
}

func (s *Usecase) RegisterUser(ctx context.Context, in RegisterUserInput) (*RegisterUserOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterUser")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	digest, err := s.hmac.Hash(in.CredentialSecret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash credential secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.User{
		ID:               s.uid.Generate(),
		Username:         in.Username,
		CredentialSecret: digest,
		CreatedAt:        s.clock.Now(),
	}

	err = s.repoDB.CreateUser(ctx, user)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "username already taken", "username", in.Username)
		return nil, goerror.NewBusiness("Username is already taken", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "username", in.Username, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &RegisterUserOutput{ID: user.ID, Username: user.Username}, nil
}
