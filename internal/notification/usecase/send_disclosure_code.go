package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/bankvault/internal/notification/outbound/sms"
)

type SendDisclosureCodeInput struct {
	AccountID      string `validate:"required"`
	ContactChannel string `validate:"required,phone"`
	Code           string `validate:"required,numeric,len=6"`
	ExpiresAt      time.Time
}

// SendDisclosureCode texts the code to the account's contact channel. Invalid
// and already expired messages are dropped; a provider failure is returned so
// the consumer logs it.
func (s *Usecase) SendDisclosureCode(ctx context.Context, in SendDisclosureCodeInput) error {
	ctx, span := s.startSpan(ctx, "SendDisclosureCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "account_id", in.AccountID, "error", err)
		return nil
	}

	if !in.ExpiresAt.IsZero() && s.clock.Now().After(in.ExpiresAt) {
		slog.WarnContext(ctx, "disclosure code expired before delivery", "account_id", in.AccountID)
		return nil
	}

	if err := s.repoSMS.Send(ctx, sms.Message{
		To:   in.ContactChannel,
		Body: "Your verification code is " + in.Code,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send disclosure code sms", "account_id", in.AccountID, "error", err)
		return err
	}

	return nil
}
