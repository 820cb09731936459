// Package uid generates identifiers: UUIDv7 strings for records that are
// exposed by id, snowflake numbers for internally ordered keys.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
