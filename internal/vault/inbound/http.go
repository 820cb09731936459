package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/bankvault/internal/pkg/router"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
	"github.com/shandysiswandi/bankvault/internal/vault/usecase"
)

// DisclosureSessionHeader carries the token returned by a successful verify
// when session unlock is enabled.
const DisclosureSessionHeader = "X-Disclosure-Session"

// PublicRoutes are reachable without a session token.
var PublicRoutes = map[string][]string{
	http.MethodPost: {"/api/v1/vault/register", "/api/v1/vault/login"},
}

type uc interface {
	RegisterUser(ctx context.Context, in usecase.RegisterUserInput) (*usecase.RegisterUserOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Profile(ctx context.Context, in usecase.ProfileInput) (*entity.Profile, error)
	DeleteUser(ctx context.Context, in usecase.DeleteUserInput) error

	ListAccounts(ctx context.Context, in usecase.ListAccountsInput) ([]entity.AccountSummary, error)
	CreateAccount(ctx context.Context, in usecase.CreateAccountInput) (*entity.AccountSummary, error)
	UpdateAccount(ctx context.Context, in usecase.UpdateAccountInput) (*entity.AccountSummary, error)
	DeleteAccount(ctx context.Context, in usecase.DeleteAccountInput) error

	RequestDisclosure(ctx context.Context, in usecase.RequestDisclosureInput) (*usecase.RequestDisclosureOutput, error)
	VerifyDisclosure(ctx context.Context, in usecase.VerifyDisclosureInput) (*usecase.VerifyDisclosureOutput, error)
	GetAccountPlaintext(ctx context.Context, in usecase.GetAccountPlaintextInput) (*entity.DisclosedAccount, error)

	ExportBackup(ctx context.Context, in usecase.ExportBackupInput) (*usecase.ExportBackupOutput, error)
}

// RegisterHTTPEndpoint mounts the vault routes. The plaintext route exists
// only when sessionUnlock is set.
func RegisterHTTPEndpoint(r *router.Router, uc uc, sessionUnlock bool) {
	end := &HTTPEndpoint{uc: uc}

	// Users
	r.POST("/api/v1/vault/register", end.Register)
	r.POST("/api/v1/vault/login", end.Login)
	r.GET("/api/v1/vault/profile", end.Profile)
	r.DELETE("/api/v1/vault/profile", end.DeleteProfile)

	// Accounts
	r.GET("/api/v1/vault/accounts", end.ListAccounts)
	r.POST("/api/v1/vault/accounts", end.CreateAccount)
	r.PUT("/api/v1/vault/accounts/:id", end.UpdateAccount)
	r.DELETE("/api/v1/vault/accounts/:id", end.DeleteAccount)

	// Disclosure
	r.POST("/api/v1/vault/accounts/:id/disclosure", end.RequestDisclosure)
	r.POST("/api/v1/vault/accounts/:id/disclosure/verify", end.VerifyDisclosure)
	if sessionUnlock {
		r.GET("/api/v1/vault/accounts/:id/plaintext", end.GetAccountPlaintext)
	}

	// Backups
	r.POST("/api/v1/vault/backups", end.ExportBackup)
}
