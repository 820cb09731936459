package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/bankvault/internal/notification/usecase"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := instrument.SanitizeCorrelationID(msg.Header(keyOfCorrelationID)); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// DisclosureCodeRequested never logs the body: it carries the code.
func (h *MQHandler) DisclosureCodeRequested(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "DisclosureCodeRequested")
	defer span.End()

	var payload event.DisclosureCodeRequestedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of disclosure code requested", "key", string(msg.Key()), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: disclosure code requested", "account_id", payload.AccountID, "user_id", payload.UserID)

	if err := h.uc.SendDisclosureCode(ctx, usecase.SendDisclosureCodeInput{
		AccountID:      payload.AccountID,
		ContactChannel: payload.ContactChannel,
		Code:           payload.Code,
		ExpiresAt:      payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume disclosure code requested", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}
