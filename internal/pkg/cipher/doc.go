// Package cipher encrypts single secret values into self-describing text tokens.
//
// A token carries its own version and nonce, so decryption only needs the
// process-wide key that was loaded at startup.
package cipher
