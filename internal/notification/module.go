package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/bankvault/internal/notification/inbound"
	"github.com/shandysiswandi/bankvault/internal/notification/outbound/sms"
	"github.com/shandysiswandi/bankvault/internal/notification/usecase"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
)

type Dependency struct {
	Messaging  messaging.Consumer         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New starts the disclosure-code consumer. Missing SMS credentials are an
// error in production and fall back to logging elsewhere.
func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoSMS, err := newSender(ctx, dep.Config, dep.Instrument)
	if err != nil {
		return err
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoSMS:    repoSMS,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterMQConsumer(ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}

type sender interface {
	Send(ctx context.Context, msg sms.Message) error
}

func newSender(ctx context.Context, cfg config.Config, ins instrument.Instrumentation) (sender, error) {
	client, err := sms.New(sms.Config{
		BaseURL:    cfg.GetString("notification.sms.base_url"),
		AccountSID: cfg.GetString("notification.sms.account_sid"),
		AuthToken:  cfg.GetString("notification.sms.auth_token"),
		From:       cfg.GetString("notification.sms.from"),
		MaxRetries: uint64(max(cfg.GetInt("notification.sms.max_retries"), 0)),
		RetryBase:  time.Duration(cfg.GetInt("notification.sms.retry_base_ms")) * time.Millisecond,
	}, ins)
	if err == nil {
		return client, nil
	}

	if cfg.IsProduction() {
		return nil, err
	}

	slog.WarnContext(ctx, "sms credentials not configured, disclosure codes will be logged", "error", err)
	return sms.NewLog(), nil
}
