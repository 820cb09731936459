package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Generate creates a signed session JWT for the user.
func (s *Symmetric) Generate(uid int64, username string) (string, error) {
	return s.sign(uid, username, false, s.audiences, s.ttl)
}

// GenerateScoped creates a signed JWT whose only audience is audience.
func (s *Symmetric) GenerateScoped(uid int64, audience string, ttl time.Duration) (string, error) {
	if audience == "" {
		return "", ErrInvalidToken
	}
	return s.sign(uid, "", true, []string{audience}, ttl)
}

// Verify parses and validates a session JWT.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	clm, err := s.parse(tokenStr, s.audiences...)
	if err != nil {
		return Claims{}, err
	}
	if clm.Scoped {
		return Claims{}, ErrInvalidToken
	}
	return clm, nil
}

// VerifyScoped parses and validates a scoped JWT for audience.
func (s *Symmetric) VerifyScoped(tokenStr, audience string) (Claims, error) {
	if audience == "" {
		return Claims{}, ErrInvalidToken
	}
	clm, err := s.parse(tokenStr, audience)
	if err != nil {
		return Claims{}, err
	}
	if !clm.Scoped {
		return Claims{}, ErrInvalidToken
	}
	return clm, nil
}

func (s *Symmetric) sign(uid int64, username string, scoped bool, aud []string, ttl time.Duration) (string, error) {
	now := s.clock.Now()

	return libJWT.
		NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				ID:        s.uuid.Generate(),
				Subject:   strconv.FormatInt(uid, 10),
				Issuer:    s.issuer,
				Audience:  aud,
				IssuedAt:  libJWT.NewNumericDate(now),
				NotBefore: libJWT.NewNumericDate(now),
				ExpiresAt: libJWT.NewNumericDate(now.Add(ttl)),
			},
			UserID:   uid,
			Username: username,
			Scoped:   scoped,
		}).
		SignedString(s.secret)
}

func (s *Symmetric) parse(tokenStr string, audiences ...string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(s.issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	}
	if len(audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(audiences...))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
