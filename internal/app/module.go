package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/bankvault/internal/notification"
	"github.com/shandysiswandi/bankvault/internal/vault"
)

func (a *App) initModules() {
	if err := vault.New(a.ctx, vault.Dependency{
		DBConn:      a.dbConn,
		Storage:     a.storage,
		Idempotency: a.idemp,
		Redis:       a.cacheConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Messaging:   a.messaging,
		Challenge:   a.challenge,
		Cipher:      a.cipher,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		UUID:        a.uuid,
		HMAC:        a.hmac,
		Clock:       a.clock,
		Validator:   a.validator,
		JWT:         a.jwt,
	}); err != nil {
		slog.Error("failed to init module vault", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(a.ctx, notification.Dependency{
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
