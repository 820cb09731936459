package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"BankName":         "bank_name",
		"userID":           "user_id",
		"HTTPServer":       "http_server",
		"PIN":              "pin",
		"NetBankingSecret": "net_banking_secret",
		"already_snake":    "already_snake",
		"AccountNumber2FA": "account_number2_fa",
	}
	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Errorf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
