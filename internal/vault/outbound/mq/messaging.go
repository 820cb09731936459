package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/shared/event"
	"github.com/shandysiswandi/bankvault/internal/vault/usecase"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// DeliverDisclosureCode publishes the code for the notification module. The
// account id is the message key so codes of one account stay ordered.
func (m *Messaging) DeliverDisclosureCode(ctx context.Context, msg usecase.DisclosureCode) error {
	ctx, span := m.ins.Tracer("vault.outbound.mq").Start(ctx, "DeliverDisclosureCode")
	defer span.End()

	body, err := json.Marshal(event.DisclosureCodeRequestedMessage{
		AccountID:      msg.AccountID,
		UserID:         msg.UserID,
		ContactChannel: msg.ContactChannel,
		Code:           msg.Code,
		ExpiresAt:      msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := map[string]string{"user_id": strconv.FormatInt(msg.UserID, 10)}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers[keyOfCorrelationID] = cID
	}

	if err := m.client.Publish(ctx, event.DisclosureCodeRequestedDestination, messaging.OutgoingMessage{
		Key:     []byte(msg.AccountID),
		Body:    body,
		Headers: headers,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
