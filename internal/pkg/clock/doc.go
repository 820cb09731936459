// Package clock wraps time.Now behind a small interface.
//
// Code that stamps records or checks expiry takes a Clocker, so tests can
// drive time with Frozen instead of sleeping.
package clock
