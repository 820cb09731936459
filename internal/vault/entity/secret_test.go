package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
)

func newCipher(t *testing.T) *cipher.AESGCM {
	t.Helper()
	c, err := cipher.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return c
}

func baseFields() AccountFields {
	return AccountFields{
		BankName:              "Global Bank",
		ContactChannel:        "+14155550123",
		AccountNumber:         "1234567890",
		NetBankingUsername:    "alice.net",
		MobileBankingUsername: "alice.mobile",
	}
}

func TestSecretFromUpdate(t *testing.T) {
	tests := []struct {
		name  string
		plain string
		clear bool
		want  SecretInput
	}{
		{name: "Blank", plain: "", want: SecretInput{Op: SecretUnchanged}},
		{name: "Whitespace", plain: "   ", want: SecretInput{Op: SecretUnchanged}},
		{name: "Value", plain: "p1", want: SecretInput{Op: SecretSet, Value: "p1"}},
		{name: "ClearFlag", plain: "", clear: true, want: SecretInput{Op: SecretClear}},
		{name: "ValueWinsOverClear", plain: "p2", clear: true, want: SecretInput{Op: SecretSet, Value: "p2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecretFromUpdate(tt.plain, tt.clear))
		})
	}
}

func TestNewAccount(t *testing.T) {
	// Arrange
	c := newCipher(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	f := baseFields()
	f.NetBankingSecret = SecretFromPlain("Secret1")
	f.PinSecret = SecretFromPlain("")
	f.CustomSecrets = []CustomSecretInput{{Label: "memorable word", Value: "otter"}}

	// Act
	acc, err := NewAccount("acc-1", 7, f, c, now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "acc-1", acc.ID)
	assert.Equal(t, int64(7), acc.UserID)
	assert.Equal(t, now, acc.CreatedAt)
	require.NotNil(t, acc.NetBankingSecret)
	assert.NotEqual(t, "Secret1", *acc.NetBankingSecret)
	assert.Nil(t, acc.MobileBankingSecret)
	assert.Nil(t, acc.PinSecret)
	require.Len(t, acc.CustomSecrets, 1)
	assert.NotEqual(t, "otter", acc.CustomSecrets[0].ValueToken)

	plain, err := c.Decrypt(*acc.NetBankingSecret)
	require.NoError(t, err)
	assert.Equal(t, "Secret1", plain)
}

func TestAccount_Merge(t *testing.T) {
	c := newCipher(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	create := baseFields()
	create.NetBankingSecret = SecretFromPlain("p1")
	create.PinSecret = SecretFromPlain("1234")
	create.CustomSecrets = []CustomSecretInput{{Label: "a", Value: "1"}, {Label: "b", Value: "2"}}
	original, err := NewAccount("acc-1", 7, create, c, now)
	require.NoError(t, err)

	t.Run("BlankKeepsTokenByteForByte", func(t *testing.T) {
		// Arrange
		update := baseFields()
		update.BankName = "Renamed Bank"

		// Act
		merged, err := original.Merge(update, c, now.Add(time.Hour))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, *original.NetBankingSecret, *merged.NetBankingSecret)
		assert.Equal(t, *original.PinSecret, *merged.PinSecret)
		assert.Equal(t, "Renamed Bank", merged.BankName)
		assert.Equal(t, now.Add(time.Hour), merged.UpdatedAt)
		assert.Equal(t, now, merged.CreatedAt)
		assert.Empty(t, merged.CustomSecrets, "custom secrets are replaced by the supplied list")

		plain, err := c.Decrypt(*merged.NetBankingSecret)
		require.NoError(t, err)
		assert.Equal(t, "p1", plain)
	})

	t.Run("SetReplaces", func(t *testing.T) {
		// Arrange
		update := baseFields()
		update.NetBankingSecret = SecretFromPlain("p2")

		// Act
		merged, err := original.Merge(update, c, now)

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, *original.NetBankingSecret, *merged.NetBankingSecret)
		plain, err := c.Decrypt(*merged.NetBankingSecret)
		require.NoError(t, err)
		assert.Equal(t, "p2", plain)
	})

	t.Run("SetSameValueStillReencrypts", func(t *testing.T) {
		update := baseFields()
		update.NetBankingSecret = SecretFromPlain("p1")

		merged, err := original.Merge(update, c, now)

		require.NoError(t, err)
		assert.NotEqual(t, *original.NetBankingSecret, *merged.NetBankingSecret)
	})

	t.Run("Clear", func(t *testing.T) {
		update := baseFields()
		update.PinSecret = SecretFromUpdate("", true)

		merged, err := original.Merge(update, c, now)

		require.NoError(t, err)
		assert.Nil(t, merged.PinSecret)
		assert.NotNil(t, merged.NetBankingSecret)
	})

	t.Run("CustomSecretsReplaced", func(t *testing.T) {
		update := baseFields()
		update.CustomSecrets = []CustomSecretInput{{Label: "c", Value: "3"}}

		merged, err := original.Merge(update, c, now)

		require.NoError(t, err)
		require.Len(t, merged.CustomSecrets, 1)
		assert.Equal(t, "c", merged.CustomSecrets[0].Label)
		assert.Len(t, original.CustomSecrets, 2, "original is not modified")
	})
}

func TestAccount_Disclose(t *testing.T) {
	// Arrange
	c := newCipher(t)
	f := baseFields()
	f.NetBankingSecret = SecretFromPlain("Secret1")
	f.CustomSecrets = []CustomSecretInput{{Label: "ok", Value: "v"}, {Label: "bad", Value: "w"}}
	acc, err := NewAccount("acc-1", 7, f, c, time.Now())
	require.NoError(t, err)
	corrupted := "v1:zz:zz"
	acc.MobileBankingSecret = &corrupted
	acc.CustomSecrets[1].ValueToken = "garbage"

	// Act
	got := acc.Disclose(c)

	// Assert
	assert.Equal(t, "Secret1", got.NetBankingSecret)
	assert.Equal(t, cipher.Placeholder, got.MobileBankingSecret)
	assert.Equal(t, NotAvailable, got.Pin)
	assert.Equal(t, []DisclosedSecret{{Label: "ok", Value: "v"}, {Label: "bad", Value: cipher.Placeholder}}, got.CustomSecrets)
	assert.Equal(t, "Global Bank", got.BankName)
	assert.Equal(t, "+14155550123", got.ContactChannel)
}

func TestAccount_Summary(t *testing.T) {
	acc := Account{ID: "x", BankName: "Global Bank", AccountNumber: "1234567890", NetBankingUsername: "u"}
	assert.Equal(t, AccountSummary{ID: "x", BankName: "Global Bank", AccountNumber: "1234567890"}, acc.Summary())
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
}
