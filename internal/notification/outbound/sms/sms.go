// Package sms sends text messages through a Twilio-compatible REST API.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
)

// DefaultBaseURL is the public Twilio API.
const DefaultBaseURL = "https://api.twilio.com"

var (
	ErrMissingCredentials = errors.New("sms: account sid, auth token and sender are required")
	ErrRejected           = errors.New("sms: provider rejected message")
)

type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	// MaxRetries bounds retries of transient failures (network, 429, 5xx).
	MaxRetries uint64
	// RetryBase is the first Fibonacci backoff step.
	RetryBase  time.Duration
	HTTPClient *http.Client
}

// Message is one outgoing text.
type Message struct {
	To   string
	Body string
}

type SMS struct {
	cfg    Config
	client *http.Client
	ins    instrument.Instrumentation
}

func New(cfg Config, ins instrument.Instrumentation) (*SMS, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &SMS{cfg: cfg, client: client, ins: ins}, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *SMS) Send(ctx context.Context, msg Message) error {
	ctx, span := s.ins.Tracer("notification.outbound.sms").Start(ctx, "Send")
	defer span.End()

	b := retry.NewFibonacci(s.cfg.RetryBase)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(s.cfg.MaxRetries, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := s.post(ctx, msg)
		var transient *transientError
		if errors.As(err, &transient) {
			slog.WarnContext(ctx, "sms send attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (s *SMS) post(ctx context.Context, msg Message) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.AccountSID))

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", s.cfg.From)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &transientError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var ae apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&ae)
	err = fmt.Errorf("%w: status %d code %d: %s", ErrRejected, resp.StatusCode, ae.Code, ae.Message)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &transientError{err: err}
	}
	return err
}
