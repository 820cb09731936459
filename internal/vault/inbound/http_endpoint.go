package inbound

import (
	"github.com/samber/lo"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/router"
	"github.com/shandysiswandi/bankvault/internal/vault/entity"
	"github.com/shandysiswandi/bankvault/internal/vault/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the vault.
type HTTPEndpoint struct {
	uc uc
}

func authUserID(r *router.Request) (int64, error) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil || clm.UserID <= 0 {
		return 0, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm.UserID, nil
}

// Register creates a vault user.
// @Summary Register user
// @Tags Vault, Users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered user"
// @Failure 409 {object} router.errorResponse "Username is already taken"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/vault/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterUser(r.Context(), usecase.RegisterUserInput{
		Username:         req.Username,
		CredentialSecret: req.CredentialSecret,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{ID: resp.ID, Username: resp.Username}, nil
}

// Login exchanges a username and credential verifier for a session token.
// @Summary Login
// @Tags Vault, Users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Session token"
// @Failure 401 {object} router.errorResponse "Invalid username or credential"
// @Router /api/v1/vault/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Username:         req.Username,
		CredentialSecret: req.CredentialSecret,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{AccessToken: resp.AccessToken}, nil
}

// @Summary Get profile
// @Tags Vault, Users
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/vault/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Profile(r.Context(), usecase.ProfileInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:           resp.ID,
		Username:     resp.Username,
		AccountCount: resp.AccountCount,
		CreatedAt:    resp.CreatedAt,
	}, nil
}

// DeleteProfile removes the user and every account it owns.
// @Summary Delete profile
// @Tags Vault, Users
// @Security BearerAuth
// @Success 204 "Deleted"
// @Router /api/v1/vault/profile [delete]
func (h *HTTPEndpoint) DeleteProfile(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteUser(r.Context(), usecase.DeleteUserInput{UserID: userID}); err != nil {
		return nil, err
	}

	return nil, nil
}

// ListAccounts returns the caller's accounts without any secret.
// @Summary List accounts
// @Tags Vault, Accounts
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ListAccountsResponse} "Accounts"
// @Router /api/v1/vault/accounts [get]
func (h *HTTPEndpoint) ListAccounts(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListAccounts(r.Context(), usecase.ListAccountsInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return ListAccountsResponse(lo.Map(resp, func(s entity.AccountSummary, _ int) AccountSummaryResponse {
		return toSummaryResponse(s)
	})), nil
}

// CreateAccount stores a new account. Retries carrying the same
// Idempotency-Key return the first result.
// @Summary Create account
// @Tags Vault, Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body AccountRequest true "Account payload"
// @Success 201 {object} router.successResponse{data=CreateAccountResponse} "Created account"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/vault/accounts [post]
func (h *HTTPEndpoint) CreateAccount(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	var req AccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CreateAccount(r.Context(), usecase.CreateAccountInput{
		UserID:                userID,
		IdempotencyKey:        r.GetHeader("Idempotency-Key"),
		BankName:              req.BankName,
		ContactChannel:        req.ContactChannel,
		AccountNumber:         req.AccountNumber,
		NetBankingUsername:    req.NetBankingUsername,
		NetBankingPassword:    req.NetBankingPassword,
		MobileBankingUsername: req.MobileBankingUsername,
		MobileBankingPassword: req.MobileBankingPassword,
		Pin:                   req.Pin,
		CustomSecrets:         toCustomSecretInputs(req.CustomSecrets),
	})
	if err != nil {
		return nil, err
	}

	return CreateAccountResponse{AccountSummaryResponse: toSummaryResponse(*resp)}, nil
}

// @Summary Update account
// @Tags Vault, Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body UpdateAccountRequest true "Account payload"
// @Success 200 {object} router.successResponse{data=AccountSummaryResponse} "Updated account"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/vault/accounts/{id} [put]
func (h *HTTPEndpoint) UpdateAccount(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	var req UpdateAccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UpdateAccount(r.Context(), usecase.UpdateAccountInput{
		UserID:                     userID,
		AccountID:                  r.GetParam("id"),
		BankName:                   req.BankName,
		ContactChannel:             req.ContactChannel,
		AccountNumber:              req.AccountNumber,
		NetBankingUsername:         req.NetBankingUsername,
		NetBankingPassword:         req.NetBankingPassword,
		ClearNetBankingPassword:    req.ClearNetBankingPassword,
		MobileBankingUsername:      req.MobileBankingUsername,
		MobileBankingPassword:      req.MobileBankingPassword,
		ClearMobileBankingPassword: req.ClearMobileBankingPassword,
		Pin:                        req.Pin,
		ClearPin:                   req.ClearPin,
		CustomSecrets:              toCustomSecretInputs(req.CustomSecrets),
	})
	if err != nil {
		return nil, err
	}

	return toSummaryResponse(*resp), nil
}

// @Summary Delete account
// @Tags Vault, Accounts
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 204 "Deleted"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/vault/accounts/{id} [delete]
func (h *HTTPEndpoint) DeleteAccount(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteAccount(r.Context(), usecase.DeleteAccountInput{
		UserID:    userID,
		AccountID: r.GetParam("id"),
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// RequestDisclosure sends a one-time code to the account's contact channel.
// @Summary Request disclosure code
// @Tags Vault, Disclosure
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} router.successResponse{data=RequestDisclosureResponse} "Code issued"
// @Failure 404 {object} router.errorResponse "Not found"
// @Failure 503 {object} router.errorResponse "Delivery unavailable"
// @Router /api/v1/vault/accounts/{id}/disclosure [post]
func (h *HTTPEndpoint) RequestDisclosure(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestDisclosure(r.Context(), usecase.RequestDisclosureInput{
		UserID:    userID,
		AccountID: r.GetParam("id"),
	})
	if err != nil {
		return nil, err
	}

	return RequestDisclosureResponse{ExpiresAt: resp.ExpiresAt, DevCode: resp.DevCode}, nil
}

// VerifyDisclosure checks the code and returns the decrypted account.
// @Summary Verify disclosure code
// @Tags Vault, Disclosure
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body VerifyDisclosureRequest true "Code"
// @Success 200 {object} router.successResponse{data=VerifyDisclosureResponse} "Decrypted account"
// @Failure 400 {object} router.errorResponse "Invalid or expired code"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/vault/accounts/{id}/disclosure/verify [post]
func (h *HTTPEndpoint) VerifyDisclosure(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	var req VerifyDisclosureRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyDisclosure(r.Context(), usecase.VerifyDisclosureInput{
		UserID:    userID,
		AccountID: r.GetParam("id"),
		Code:      req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyDisclosureResponse{
		Account:           toDisclosedResponse(resp.Account),
		DisclosureSession: resp.SessionToken,
	}, nil
}

// @Summary Get account plaintext within a disclosure session
// @Tags Vault, Disclosure
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param X-Disclosure-Session header string true "Disclosure session token"
// @Success 200 {object} router.successResponse{data=DisclosedAccountResponse} "Decrypted account"
// @Failure 401 {object} router.errorResponse "Disclosure session is invalid or expired"
// @Router /api/v1/vault/accounts/{id}/plaintext [get]
func (h *HTTPEndpoint) GetAccountPlaintext(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.GetAccountPlaintext(r.Context(), usecase.GetAccountPlaintextInput{
		UserID:       userID,
		AccountID:    r.GetParam("id"),
		SessionToken: r.GetHeader(DisclosureSessionHeader),
	})
	if err != nil {
		return nil, err
	}

	return toDisclosedResponse(*resp), nil
}

// @Summary Export encrypted backup
// @Tags Vault, Backups
// @Security BearerAuth
// @Success 201 {object} router.successResponse{data=ExportBackupResponse} "Backup stored"
// @Failure 503 {object} router.errorResponse "Backup storage unavailable"
// @Router /api/v1/vault/backups [post]
func (h *HTTPEndpoint) ExportBackup(r *router.Request) (any, error) {
	userID, err := authUserID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ExportBackup(r.Context(), usecase.ExportBackupInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return ExportBackupResponse{Key: resp.Key, AccountCount: resp.AccountCount, ExportedAt: resp.ExportedAt}, nil
}

func toSummaryResponse(s entity.AccountSummary) AccountSummaryResponse {
	return AccountSummaryResponse{ID: s.ID, BankName: s.BankName, AccountNumber: s.AccountNumber}
}

func toCustomSecretInputs(in []CustomSecretRequest) []usecase.CustomSecretInput {
	return lo.Map(in, func(cs CustomSecretRequest, _ int) usecase.CustomSecretInput {
		return usecase.CustomSecretInput{Label: cs.Label, Value: cs.Value}
	})
}

func toDisclosedResponse(a entity.DisclosedAccount) DisclosedAccountResponse {
	return DisclosedAccountResponse{
		ID:                    a.ID,
		BankName:              a.BankName,
		ContactChannel:        a.ContactChannel,
		AccountNumber:         a.AccountNumber,
		NetBankingUsername:    a.NetBankingUsername,
		NetBankingPassword:    a.NetBankingSecret,
		MobileBankingUsername: a.MobileBankingUsername,
		MobileBankingPassword: a.MobileBankingSecret,
		Pin:                   a.Pin,
		CustomSecrets: lo.Map(a.CustomSecrets, func(s entity.DisclosedSecret, _ int) DisclosedSecretResponse {
			return DisclosedSecretResponse{Label: s.Label, Value: s.Value}
		}),
	}
}
