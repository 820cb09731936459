package inbound

import (
	"context"

	"github.com/shandysiswandi/bankvault/internal/notification/usecase"
)

type uc interface {
	SendDisclosureCode(ctx context.Context, in usecase.SendDisclosureCodeInput) error
}
