// Package jwt issues and verifies HS512 JSON Web Tokens.
//
// Two kinds of token exist: session tokens carrying the authenticated user,
// and scoped tokens whose audience pins them to one resource (for example a
// single disclosed account). Scoped tokens are never accepted as sessions and
// vice versa because their audiences never overlap.
package jwt
