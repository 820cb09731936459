package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
)

type RequestDisclosureInput struct {
	UserID    int64  `validate:"required,gt=0"`
	AccountID string `validate:"required"`
}

type RequestDisclosureOutput struct {
	ExpiresAt time.Time
	// DevCode is only set outside production.
	DevCode string
}

// RequestDisclosure issues a one-time code for the account and hands it to
// the delivery channel. Any earlier outstanding code becomes invalid.
func (s *Usecase) RequestDisclosure(ctx context.Context, in RequestDisclosureInput) (*RequestDisclosureOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestDisclosure")
	defer span.End()

	in.AccountID = strings.TrimSpace(in.AccountID)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.ownedAccount(ctx, in.UserID, in.AccountID)
	if err != nil {
		return nil, err
	}

	code, expiresAt, err := s.challenge.Issue(ctx, acc.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue disclosure challenge", "account_id", acc.ID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	production := s.cfg.IsProduction()
	if err := s.deliverer.DeliverDisclosureCode(ctx, DisclosureCode{
		AccountID:      acc.ID,
		UserID:         acc.UserID,
		ContactChannel: acc.ContactChannel,
		Code:           code,
		ExpiresAt:      expiresAt,
	}); err != nil {
		if production {
			slog.ErrorContext(ctx, "failed to deliver disclosure code", "account_id", acc.ID, "error", err)
			return nil, goerror.NewUnavailable(err)
		}
		slog.WarnContext(ctx, "disclosure code not delivered, returning it to the caller", "account_id", acc.ID, "error", err)
	}

	s.disclosureRequested.Add(ctx, 1)

	out := &RequestDisclosureOutput{ExpiresAt: expiresAt}
	if !production {
		out.DevCode = code
	}
	return out, nil
}
