package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/bankvault/internal/pkg/challenge"
	"github.com/shandysiswandi/bankvault/internal/pkg/cipher"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/bankvault/internal/pkg/hash"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/ratelimit"
	"github.com/shandysiswandi/bankvault/internal/pkg/router"
	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
	"github.com/shandysiswandi/bankvault/internal/vault/inbound"
)

func newDependency(t *testing.T, cfgYAML string) Dependency {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	c, err := cipher.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	hmac, err := hash.NewHMACSHA256([]byte("hmac-secret"))
	require.NoError(t, err)

	snow, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.New()
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		Issuer: "bankvault",
		TTL:    time.Hour,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	return Dependency{
		Goroutine: goroutine.NewManager(4),
		Router: router.NewRouter(router.Config{
			UUID:       uid.NewUUID(),
			JWT:        tokens,
			Instrument: instrument.NewNoop(),
			Public:     inbound.PublicRoutes,
		}),
		Messaging:  messaging.NewMemory(),
		Challenge:  challenge.NewMemory(clk),
		Cipher:     c,
		Config:     cfg,
		Instrument: instrument.NewNoop(),
		UID:        snow,
		UUID:       uid.NewUUID(),
		HMAC:       hmac,
		Clock:      clk,
		Validator:  v,
		JWT:        tokens,
	}
}

func TestNew_Validation(t *testing.T) {
	dep := newDependency(t, "app:\n  env: test\n")
	dep.Router = nil

	err := New(context.Background(), dep)

	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	t.Run("MemoryChallengeKeepsProcessBuckets", func(t *testing.T) {
		dep := newDependency(t, "challenge:\n  driver: memory\n")
		ctx, cancel := context.WithCancel(context.Background())

		limiter, err := newLimiter(ctx, dep)
		cancel()

		require.NoError(t, err)
		assert.IsType(t, &ratelimit.Keyed{}, limiter)
		assert.NoError(t, dep.Goroutine.Wait())
	})

	t.Run("RedisChallengeSharesBudget", func(t *testing.T) {
		dep := newDependency(t, "challenge:\n  driver: redis\n")
		dep.Redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		t.Cleanup(func() { _ = dep.Redis.Close() })

		limiter, err := newLimiter(context.Background(), dep)

		require.NoError(t, err)
		assert.IsType(t, &ratelimit.Redis{}, limiter)
	})

	t.Run("RedisChallengeWithoutConnection", func(t *testing.T) {
		dep := newDependency(t, "challenge:\n  driver: redis\n")

		_, err := newLimiter(context.Background(), dep)

		assert.ErrorIs(t, err, ErrMissingRedis)
	})
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		storage bool
		wantErr error
	}{
		{name: "PostgresWithoutPool", cfg: "modules:\n  vault:\n    repository: postgres\n", wantErr: ErrMissingDatabase},
		{name: "DefaultIsPostgres", cfg: "app:\n  env: test\n", wantErr: ErrMissingDatabase},
		{name: "Unknown", cfg: "modules:\n  vault:\n    repository: sqlite\n", wantErr: ErrUnknownRepository},
		{name: "SnapshotWithoutPath", cfg: "modules:\n  vault:\n    repository: snapshot\n", wantErr: ErrMissingPath},
		{name: "ObjectWithoutBucket", cfg: "modules:\n  vault:\n    repository: snapshot\n    snapshot:\n      object_key: vault.json\n", wantErr: ErrMissingBucket},
		{name: "ObjectSnapshot", cfg: "modules:\n  vault:\n    repository: snapshot\n    snapshot:\n      object_key: vault.json\n", storage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			dep := newDependency(t, tt.cfg)
			if tt.storage {
				dep.Storage = storage.NewMemory(clock.New())
			}

			// Act
			repo, err := newRepository(dep)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, repo)
		})
	}
}

func TestNewRepository_FileSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "vault.json")
	dep := newDependency(t, "modules:\n  vault:\n    repository: snapshot\n    snapshot:\n      path: "+path+"\n")

	repo, err := newRepository(dep)

	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestBackupBucket(t *testing.T) {
	bucket := storage.NewMemory(clock.New())

	enabled, err := config.NewViperFromBytes("yaml", []byte("modules:\n  vault:\n    backup_enabled: true\n"))
	require.NoError(t, err)
	disabled, err := config.NewViperFromBytes("yaml", []byte("modules:\n  vault:\n    backup_enabled: false\n"))
	require.NoError(t, err)

	assert.Equal(t, storage.Bucket(bucket), backupBucket(enabled, bucket))
	assert.Nil(t, backupBucket(disabled, bucket))
	assert.Nil(t, backupBucket(enabled, nil))
}

// TestModule_DisclosureRoundTrip drives the mounted routes over a file
// snapshot: sign up, store an account, then disclose it with the dev code.
func TestModule_DisclosureRoundTrip(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "vault.json")
	dep := newDependency(t, `
app:
  env: development
challenge:
  ttl_seconds: 300
modules:
  vault:
    repository: snapshot
    verify_refill_seconds: 60
    verify_burst: 5
    snapshot:
      path: `+path+`
`)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = dep.Goroutine.Wait()
	})
	require.NoError(t, New(ctx, dep))

	call := func(method, target, token, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body == "" {
			req.Body = http.NoBody
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		dep.Router.ServeHTTP(rec, req)

		var out map[string]any
		if rec.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		}
		return rec.Code, out
	}
	data := func(body map[string]any) map[string]any {
		return body["data"].(map[string]any)
	}

	// Act
	code, _ := call(http.MethodPost, "/api/v1/vault/register", "", `{"username":"alice","credential_secret":"verifier-123"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := call(http.MethodPost, "/api/v1/vault/login", "", `{"username":"ALICE","credential_secret":"verifier-123"}`)
	require.Equal(t, http.StatusOK, code)
	token := data(body)["access_token"].(string)

	code, body = call(http.MethodPost, "/api/v1/vault/accounts", token, `{
		"bank_name": "Global Bank",
		"contact_channel": "+14155550123",
		"account_number": "1234567890",
		"net_banking_username": "alice.net",
		"net_banking_password": "Secret1",
		"mobile_banking_username": "alice.mobile"
	}`)
	require.Equal(t, http.StatusCreated, code)
	accountID := data(body)["id"].(string)

	code, body = call(http.MethodPost, "/api/v1/vault/accounts/"+accountID+"/disclosure", token, "")
	require.Equal(t, http.StatusOK, code)
	devCode := data(body)["dev_code"].(string)

	code, body = call(http.MethodPost, "/api/v1/vault/accounts/"+accountID+"/disclosure/verify", token, `{"code":"`+devCode+`"}`)

	// Assert
	require.Equal(t, http.StatusOK, code)
	account := data(body)["account"].(map[string]any)
	assert.Equal(t, "Secret1", account["net_banking_password"])
	assert.Equal(t, "N/A", account["mobile_banking_password"])
	assert.Equal(t, "N/A", account["pin"])

	code, _ = call(http.MethodPost, "/api/v1/vault/accounts/"+accountID+"/disclosure/verify", token, `{"code":"`+devCode+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(http.MethodGet, "/api/v1/vault/accounts/"+accountID+"/plaintext", token, "")
	assert.Equal(t, http.StatusNotFound, code)
}
