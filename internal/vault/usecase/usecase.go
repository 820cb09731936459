package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/bankvault/internal/pkg/challenge"
	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/hash"
	"github.com/shandysiswandi/bankvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
)

const (
	msgNotFound    = "Not found"
	msgInvalidCode = "Invalid or expired code"
)

// DisclosureCode is handed to the delivery channel after a code is issued.
type DisclosureCode struct {
	AccountID      string
	UserID         int64
	ContactChannel string
	Code           string
	ExpiresAt      time.Time
}

type deliverer interface {
	DeliverDisclosureCode(ctx context.Context, msg DisclosureCode) error
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Repository is implemented by the postgres and snapshot adapters.
type Repository interface {
	CreateUser(ctx context.Context, user entity.User) error
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CountAccounts(ctx context.Context, userID int64) (int, error)
	ListAccountSummaries(ctx context.Context, userID int64) ([]entity.AccountSummary, error)
	ListAccounts(ctx context.Context, userID int64) ([]entity.Account, error)
	GetAccount(ctx context.Context, userID int64, accountID string) (*entity.Account, error)
	CreateAccount(ctx context.Context, acc entity.Account) error
	// UpdateAccount runs mutate on the stored account and persists its result
	// atomically with respect to other writers of the same account.
	UpdateAccount(
		ctx context.Context,
		userID int64,
		accountID string,
		mutate func(entity.Account) (entity.Account, error),
	) (*entity.Account, error)
	DeleteAccount(ctx context.Context, userID int64, accountID string) error
}

type Usecase struct {
	repoDB    Repository
	deliverer deliverer
	challenge challenge.Store
	limiter   limiter
	cipher    cipher.Cipher
	idemp     idempotency.Idempotency
	backup    storage.Bucket
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	clock     clock.Clocker
	jwt       jwt.JWT
	ins       instrument.Instrumentation

	disclosureRequested metric.Int64Counter
	disclosureVerified  metric.Int64Counter
}

type Dependency struct {
	RepoDB    Repository
	Deliverer deliverer
	Challenge challenge.Store
	Limiter   limiter
	Cipher    cipher.Cipher
	// Idempotency and Backup are optional.
	Idempotency idempotency.Idempotency
	Backup      storage.Bucket
	Validator   validator.Validator
	Config      config.Config
	HMAC        hash.Hash
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	JWT         jwt.JWT
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:    dep.RepoDB,
		deliverer: dep.Deliverer,
		challenge: dep.Challenge,
		limiter:   dep.Limiter,
		cipher:    dep.Cipher,
		idemp:     dep.Idempotency,
		backup:    dep.Backup,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		uid:       dep.UID,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		jwt:       dep.JWT,
		ins:       dep.Instrument,
	}

	meter := s.ins.Meter("vault.usecase")
	s.disclosureRequested = newCounter(meter, "vault.disclosure.requested", "Number of disclosure codes issued")
	s.disclosureVerified = newCounter(meter, "vault.disclosure.verified", "Number of disclosure verification attempts")

	return s
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("vault.usecase").Start(ctx, name)
}

// ownedAccount loads an account of userID. Foreign and missing accounts are
// both reported as not found.
func (s *Usecase) ownedAccount(ctx context.Context, userID int64, accountID string) (*entity.Account, error) {
	if !uid.IsUUID(accountID) {
		slog.WarnContext(ctx, "account id is malformed", "user_id", userID, "account_id", accountID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}

	acc, err := s.repoDB.GetAccount(ctx, userID, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "user_id", userID, "account_id", accountID)
		return nil, goerror.NewBusiness(msgNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "user_id", userID, "account_id", accountID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return acc, nil
}

// DisclosureAudience is the audience of a session token unlocking accountID.
func DisclosureAudience(accountID string) string {
	return "disclosure:" + accountID
}
