package app

import (
	"context"
	"net/http"

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
	"github.com/shandysiswandi/bankvault/internal/pkg/router"
	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT
	cipher    cipher.Cipher

	// resources; dbConn, cacheConn, idemp and storage stay nil when not configured
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	challenge challenge.Store
	messaging messaging.Messaging
	storage   storage.Bucket

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCipher()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initChallenge()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
