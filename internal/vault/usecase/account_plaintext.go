package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type GetAccountPlaintextInput struct {
	UserID       int64  `validate:"required,gt=0"`
	AccountID    string `validate:"required"`
	SessionToken string
}

// GetAccountPlaintext discloses an account without a new challenge. The
// caller proves an earlier verification with the session token it returned.
// The server keeps no unlock state of its own.
func (s *Usecase) GetAccountPlaintext(ctx context.Context, in GetAccountPlaintextInput) (*entity.DisclosedAccount, error) {
	ctx, span := s.startSpan(ctx, "GetAccountPlaintext")
	defer span.End()

	in.AccountID = strings.TrimSpace(in.AccountID)
	in.SessionToken = strings.TrimSpace(in.SessionToken)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !s.cfg.GetBool("modules.vault.session_unlock_enabled") {
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}

	clm, err := s.jwt.VerifyScoped(in.SessionToken, DisclosureAudience(in.AccountID))
	if err != nil || clm.UserID != in.UserID {
		slog.WarnContext(ctx, "disclosure session rejected", "user_id", in.UserID, "account_id", in.AccountID, "error", err)
		return nil, goerror.NewBusiness("Disclosure session is invalid or expired", goerror.CodeUnauthorized)
	}

	acc, err := s.ownedAccount(ctx, in.UserID, in.AccountID)
	if err != nil {
		return nil, err
	}

	return lo.ToPtr(acc.Disclose(s.cipher)), nil
}
