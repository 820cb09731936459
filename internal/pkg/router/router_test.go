package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/bankvault/internal/pkg/goerror"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/jwt"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWT struct {
	claims jwt.Claims
	err    error
}

func (s *stubJWT) Generate(int64, string) (string, error) { return "", nil }
func (s *stubJWT) Verify(string) (jwt.Claims, error)      { return s.claims, s.err }
func (s *stubJWT) GenerateScoped(int64, string, time.Duration) (string, error) {
	return "", nil
}
func (s *stubJWT) VerifyScoped(string, string) (jwt.Claims, error) { return s.claims, s.err }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "created" }

func newTestRouter(v *stubJWT) *Router {
	return NewRouter(Config{
		UUID:       fixedID("cid-1"),
		JWT:        v,
		Instrument: instrument.NewNoop(),
		Public:     map[string][]string{http.MethodPost: {"/open"}},
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_PublicEndpoint(t *testing.T) {
	// Arrange
	r := newTestRouter(&stubJWT{err: errors.New("no")})
	r.POST("/open", func(*Request) (any, error) { return created{ID: "x"}, nil })

	// Act
	rec, body := do(t, r, http.MethodPost, "/open", "", nil)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, "cid-1", rec.Header().Get(instrument.CorrelationHeader))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		r := newTestRouter(&stubJWT{})
		r.GET("/private", func(*Request) (any, error) { return map[string]string{}, nil })

		rec, _ := do(t, r, http.MethodGet, "/private", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		r := newTestRouter(&stubJWT{err: jwt.ErrInvalidToken})
		r.GET("/private", func(*Request) (any, error) { return map[string]string{}, nil })

		rec, body := do(t, r, http.MethodGet, "/private", "", map[string]string{"Authorization": "Bearer abc"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid or expired token", body["message"])
	})

	t.Run("ClaimsInContext", func(t *testing.T) {
		r := newTestRouter(&stubJWT{claims: jwt.Claims{UserID: 9}})
		var seen int64
		r.GET("/private", func(req *Request) (any, error) {
			seen = jwt.GetAuth(req.Context()).UserID
			return map[string]string{"ok": "yes"}, nil
		})

		rec, _ := do(t, r, http.MethodGet, "/private", "", map[string]string{"Authorization": "Bearer abc"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(9), seen)
	})
}

func TestRouter_ErrorCodec(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantFields bool
	}{
		{name: "NotFound", err: goerror.NewBusiness("Not found", goerror.CodeNotFound), wantStatus: 404, wantMsg: "Not found"},
		{name: "InvalidCode", err: goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidCode), wantStatus: 400, wantMsg: "Invalid or expired code"},
		{name: "Unavailable", err: goerror.NewUnavailable(errors.New("db down")), wantStatus: 503, wantMsg: "Service temporarily unavailable"},
		{
			name:       "Validation",
			err:        goerror.NewInvalidInput(validator.V10ValidationError{"bank_name": "bank_name is required"}),
			wantStatus: 422, wantMsg: "Validation error", wantFields: true,
		},
		{name: "Raw", err: errors.New("leaky detail"), wantStatus: 500, wantMsg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubJWT{})
			r.POST("/open", func(*Request) (any, error) { return nil, tt.err })

			rec, body := do(t, r, http.MethodPost, "/open", "", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, rec.Body.String(), "db down")
			assert.NotContains(t, rec.Body.String(), "leaky detail")
			if tt.wantFields {
				assert.Contains(t, body["error"], "bank_name")
			}
		})
	}
}

func TestRouter_Recover(t *testing.T) {
	r := newTestRouter(&stubJWT{})
	r.POST("/open", func(*Request) (any, error) { panic("boom") })

	rec, body := do(t, r, http.MethodPost, "/open", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["message"])
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(&stubJWT{})

	rec, _ := do(t, r, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type in struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "Valid", body: `{"name":"a"}`},
		{name: "UnknownField", body: `{"name":"a","x":1}`, wantErr: true},
		{name: "TrailingDocument", body: `{"name":"a"}{}`, wantErr: true},
		{name: "Malformed", body: `{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}

			var dst in
			err := req.DecodeBody(&dst)

			if tt.wantErr {
				var gerr *goerror.Error
				require.ErrorAs(t, err, &gerr)
				assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", dst.Name)
		})
	}
}

func TestMaskData(t *testing.T) {
	keys := maskKeysFrom(nil)

	got := maskData(map[string]any{
		"bank_name":      "Acme",
		"pin":            "1234",
		"custom_secrets": []any{map[string]any{"label": "q", "value": "a"}},
	}, keys).(map[string]any)

	assert.Equal(t, "Acme", got["bank_name"])
	assert.Equal(t, "***", got["pin"])
	assert.Equal(t, "***", got["custom_secrets"].([]any)[0].(map[string]any)["value"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
