package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/bankvault/internal/pkg/challenge"
	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/bankvault/internal/pkg/hash"
	"github.com/shandysiswandi/bankvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/ratelimit"
	"github.com/shandysiswandi/bankvault/internal/pkg/router"
	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
	"github.com/shandysiswandi/bankvault/internal/vault/inbound"
	"github.com/shandysiswandi/bankvault/internal/vault/outbound/db"
	"github.com/shandysiswandi/bankvault/internal/vault/outbound/mq"
	"github.com/shandysiswandi/bankvault/internal/vault/outbound/snapshot"
	"github.com/shandysiswandi/bankvault/internal/vault/usecase"
)

const (
	RepositoryPostgres = "postgres"
	RepositorySnapshot = "snapshot"
)

var (
	ErrUnknownRepository = errors.New("vault: unknown repository driver")
	ErrMissingDatabase   = errors.New("vault: postgres repository requires a database connection")
	ErrMissingBucket     = errors.New("vault: object snapshot requires a storage bucket")
	ErrMissingPath       = errors.New("vault: file snapshot requires a path")
	ErrMissingRedis      = errors.New("vault: redis challenge driver requires a redis connection")
)

type Dependency struct {
	// DBConn is required by the postgres repository only.
	DBConn *pgxpool.Pool
	// Storage backs backup export and the object snapshot; nil disables both.
	Storage storage.Bucket
	// Idempotency is nil when redis is not configured.
	Idempotency idempotency.Idempotency
	// Redis backs the verify-attempt limiter when challenge.driver is redis.
	Redis *redis.Client

	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Challenge  challenge.Store            `validate:"required"`
	Cipher     cipher.Cipher              `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repo, err := newRepository(dep)
	if err != nil {
		return err
	}

	cfg := dep.Config
	limiter, err := newLimiter(ctx, dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      repo,
		Deliverer:   mq.NewMessaging(dep.Messaging, dep.Instrument),
		Challenge:   dep.Challenge,
		Limiter:     limiter,
		Cipher:      dep.Cipher,
		Idempotency: dep.Idempotency,
		Backup:      backupBucket(cfg, dep.Storage),
		Validator:   dep.Validator,
		Config:      cfg,
		HMAC:        dep.HMAC,
		UID:         dep.UID,
		UUID:        dep.UUID,
		Clock:       dep.Clock,
		JWT:         dep.JWT,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, cfg.GetBool("modules.vault.session_unlock_enabled"))

	return nil
}

func newRepository(dep Dependency) (usecase.Repository, error) {
	cfg := dep.Config

	switch driver := cfg.GetString("modules.vault.repository"); driver {
	case "", RepositoryPostgres:
		if dep.DBConn == nil {
			return nil, ErrMissingDatabase
		}
		return db.NewDB(dep.DBConn, dep.Instrument), nil

	case RepositorySnapshot:
		if key := cfg.GetString("modules.vault.snapshot.object_key"); key != "" {
			if dep.Storage == nil {
				return nil, ErrMissingBucket
			}
			return snapshot.NewRepo(snapshot.NewObject(dep.Storage, key), dep.Instrument), nil
		}

		path := cfg.GetString("modules.vault.snapshot.path")
		if path == "" {
			return nil, ErrMissingPath
		}
		file, err := snapshot.NewFile(path)
		if err != nil {
			return nil, err
		}
		return snapshot.NewRepo(file, dep.Instrument), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRepository, driver)
	}
}

// newLimiter shares the verify-attempt budget through redis whenever the
// challenges themselves are shared, so replicas cannot multiply it.
func newLimiter(ctx context.Context, dep Dependency) (ratelimit.Limiter, error) {
	cfg := dep.Config
	interval := cfg.GetSecond("modules.vault.verify_refill_seconds")
	burst := cfg.GetInt("modules.vault.verify_burst")

	if cfg.GetString("challenge.driver") == challenge.DriverRedis {
		if dep.Redis == nil {
			return nil, ErrMissingRedis
		}
		return ratelimit.NewRedis(dep.Redis, interval, burst, dep.Clock, "bankvault:verify-limit:"), nil
	}

	limiter := ratelimit.NewKeyed(interval, burst, dep.Clock)
	dep.Goroutine.Go(ctx, "vault.verify-limiter-sweeper", func(ctx context.Context) error {
		return limiter.RunSweeper(ctx, time.Minute, 10*time.Minute)
	})
	return limiter, nil
}

func backupBucket(cfg config.Config, bucket storage.Bucket) storage.Bucket {
	if bucket == nil || !cfg.GetBool("modules.vault.backup_enabled") {
		return nil
	}
	return bucket
}
