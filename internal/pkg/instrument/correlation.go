package instrument

import (
	"context"
	"strings"
)

type correlationKey struct{}

// CorrelationHeader carries the correlation ID across HTTP hops.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationLen = 128

// SetCorrelationID returns a copy of ctx carrying id.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation ID in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// SanitizeCorrelationID accepts a client supplied ID only when it is short and
// made of [A-Za-z0-9._-]. Anything else yields "".
func SanitizeCorrelationID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxCorrelationLen {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return ""
		}
	}
	return id
}
