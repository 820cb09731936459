package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/bankvault/internal/notification/outbound/sms"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/pkg/validator"
)

func TestNewSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		wantErr error
		wantLog bool
	}{
		{name: "DevFallback", cfg: "app:\n  env: development\n", wantLog: true},
		{name: "ProductionRequiresCredentials", cfg: "app:\n  env: production\n", wantErr: sms.ErrMissingCredentials},
		{
			name: "Configured",
			cfg:  "app:\n  env: production\nnotification:\n  sms:\n    account_sid: AC1\n    auth_token: tok\n    from: \"+15005550006\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg, err := config.NewViperFromBytes("yaml", []byte(tt.cfg))
			require.NoError(t, err)

			// Act
			s, err := newSender(context.Background(), cfg, instrument.NewNoop())

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, isLog := s.(*sms.Log)
			assert.Equal(t, tt.wantLog, isLog)
		})
	}
}

func TestNew(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  env: test\n"))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	routine := goroutine.NewManager(2)

	ctx, cancel := context.WithCancel(context.Background())
	err = New(ctx, Dependency{
		Messaging:  messaging.NewMemory(),
		Config:     cfg,
		Instrument: instrument.NewNoop(),
		UUID:       uid.NewUUID(),
		Clock:      clock.New(),
		Goroutine:  routine,
		Validator:  v,
	})
	cancel()

	require.NoError(t, err)
	assert.NoError(t, routine.Wait())
}

func TestNew_MissingDependency(t *testing.T) {
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	err = New(context.Background(), Dependency{Validator: v})

	assert.Error(t, err)
}
