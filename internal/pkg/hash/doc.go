// Package hash derives keyed digests of login credentials.
//
// Only the digest is stored. Verification recomputes it and compares in
// constant time.
package hash
