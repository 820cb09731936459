package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	Username         string `json:"username"`
	CredentialSecret string `json:"credential_secret"`
}

type RegisterResponse struct {
	ID       int64  `json:"id,string"`
	Username string `json:"username"`
}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }
func (RegisterResponse) Message() string { return "User registered" }

type LoginRequest struct {
	Username         string `json:"username"`
	CredentialSecret string `json:"credential_secret"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type ProfileResponse struct {
	ID           int64     `json:"id,string"`
	Username     string    `json:"username"`
	AccountCount int       `json:"account_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type CustomSecretRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type AccountRequest struct {
	BankName              string                `json:"bank_name"`
	ContactChannel        string                `json:"contact_channel"`
	AccountNumber         string                `json:"account_number"`
	NetBankingUsername    string                `json:"net_banking_username"`
	NetBankingPassword    string                `json:"net_banking_password"`
	MobileBankingUsername string                `json:"mobile_banking_username"`
	MobileBankingPassword string                `json:"mobile_banking_password"`
	Pin                   string                `json:"pin"`
	CustomSecrets         []CustomSecretRequest `json:"custom_secrets"`
}

// UpdateAccountRequest treats a blank secret as "keep"; the clear flags
// remove a stored secret.
type UpdateAccountRequest struct {
	AccountRequest
	ClearNetBankingPassword    bool `json:"clear_net_banking_password"`
	ClearMobileBankingPassword bool `json:"clear_mobile_banking_password"`
	ClearPin                   bool `json:"clear_pin"`
}

type AccountSummaryResponse struct {
	ID            string `json:"id"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

type CreateAccountResponse struct {
	AccountSummaryResponse
}

func (CreateAccountResponse) StatusCode() int { return http.StatusCreated }
func (CreateAccountResponse) Message() string { return "Account created" }

type ListAccountsResponse []AccountSummaryResponse

func (l ListAccountsResponse) Meta() map[string]any {
	return map[string]any{"total": len(l)}
}

type RequestDisclosureResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	DevCode   string    `json:"dev_code,omitempty"`
}

func (RequestDisclosureResponse) Message() string {
	return "Verification code sent to the account's contact channel"
}

type VerifyDisclosureRequest struct {
	Code string `json:"code"`
}

type DisclosedSecretResponse struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type DisclosedAccountResponse struct {
	ID                    string                    `json:"id"`
	BankName              string                    `json:"bank_name"`
	ContactChannel        string                    `json:"contact_channel"`
	AccountNumber         string                    `json:"account_number"`
	NetBankingUsername    string                    `json:"net_banking_username"`
	NetBankingPassword    string                    `json:"net_banking_password"`
	MobileBankingUsername string                    `json:"mobile_banking_username"`
	MobileBankingPassword string                    `json:"mobile_banking_password"`
	Pin                   string                    `json:"pin"`
	CustomSecrets         []DisclosedSecretResponse `json:"custom_secrets"`
}

type VerifyDisclosureResponse struct {
	Account           DisclosedAccountResponse `json:"account"`
	DisclosureSession string                   `json:"disclosure_session,omitempty"`
}

type ExportBackupResponse struct {
	Key          string    `json:"key"`
	AccountCount int       `json:"account_count"`
	ExportedAt   time.Time `json:"exported_at"`
}

func (ExportBackupResponse) StatusCode() int { return http.StatusCreated }
