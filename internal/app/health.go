package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/router"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct{ c *redis.Client }

func (r redisPinger) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

type health struct {
	deps map[string]pinger
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (healthResponse) Message() string { return "ok" }

// newHealth checks only the resources that were configured.
func newHealth(db *pgxpool.Pool, cache *redis.Client) *health {
	h := &health{deps: map[string]pinger{}}
	if db != nil {
		h.deps["database"] = db
	}
	if cache != nil {
		h.deps["redis"] = redisPinger{c: cache}
	}
	return h
}

func (h *health) Check(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", name, "error", err)
			return nil, goerror.NewUnavailable(err)
		}
		checks[name] = "up"
	}

	return healthResponse{Status: "up", Checks: checks}, nil
}
