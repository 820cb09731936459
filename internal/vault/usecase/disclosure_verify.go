package usecase

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

type VerifyDisclosureInput struct {
	UserID    int64  `validate:"required,gt=0"`
	AccountID string `validate:"required"`
	Code      string
}

type VerifyDisclosureOutput struct {
	Account entity.DisclosedAccount
	// SessionToken unlocks GetAccountPlaintext for this account; empty unless
	// session unlock is enabled.
	SessionToken string
}

func (s *Usecase) VerifyDisclosure(ctx context.Context, in VerifyDisclosureInput) (*VerifyDisclosureOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyDisclosure")
	defer span.End()

	in.AccountID = strings.TrimSpace(in.AccountID)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.ownedAccount(ctx, in.UserID, in.AccountID)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, acc.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to check disclosure attempt budget", "account_id", acc.ID, "error", err)
			return nil, goerror.NewUnavailable(err)
		}
		if !allowed {
			slog.WarnContext(ctx, "too many disclosure attempts", "account_id", acc.ID)
			s.recordVerify(ctx, "throttled")
			return nil, goerror.NewBusiness("Too many attempts, try again later", goerror.CodeTooManyRequest)
		}
	}

	ok, err := s.challenge.Verify(ctx, acc.ID, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify disclosure challenge", "account_id", acc.ID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}
	if !ok {
		slog.WarnContext(ctx, "disclosure code rejected", "account_id", acc.ID)
		s.recordVerify(ctx, "invalid")
		return nil, goerror.NewBusiness(msgInvalidCode, goerror.CodeInvalidCode)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, acc.ID); err != nil {
			slog.WarnContext(ctx, "failed to reset disclosure attempt budget", "account_id", acc.ID, "error", err)
		}
	}
	s.recordVerify(ctx, "ok")

	out := &VerifyDisclosureOutput{Account: acc.Disclose(s.cipher)}

	if s.cfg.GetBool("modules.vault.session_unlock_enabled") {
		token, err := s.jwt.GenerateScoped(in.UserID, DisclosureAudience(acc.ID), s.cfg.GetMinute("modules.vault.session_unlock_ttl_minutes"))
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate disclosure session token", "account_id", acc.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		out.SessionToken = token
	}

	return out, nil
}

func (s *Usecase) recordVerify(ctx context.Context, result string) {
	s.disclosureVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
