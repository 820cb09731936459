// Package validator validates input structs with go-playground/validator tags.
//
// Failures come back as a V10ValidationError keyed by the snake_case path of
// the offending field, e.g. "bank_name" or "custom_secrets[1].label", so the
// message always names the field.
package validator
