package config

import (
	"io"
	"time"
)

// EnvPrefix namespaces environment overrides, e.g. BANKVAULT_APP_ENV for app.env.
const EnvPrefix = "BANKVAULT"

// Config reads typed values by dotted key.
//
// Missing keys yield the zero value of the requested type. Any key may be
// overridden by an environment variable named EnvPrefix + "_" + the key
// upper-cased with dots replaced by underscores.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond and GetMinute read an integer and scale it.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a base64 value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, dropping blanks.
	GetArray(key string) []string

	// IsProduction reports whether app.env is "production".
	IsProduction() bool
}
