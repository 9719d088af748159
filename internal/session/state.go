package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	stateSubject = "oauth_state"
	// StateTTL bounds how long a sign-in round trip may take.
	StateTTL = 10 * time.Minute
)

var ErrInvalidState = errors.New("session: invalid oauth state")

// IssueState returns a short-lived signed value for the OAuth state parameter.
func (s *Signer) IssueState(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   stateSubject,
		ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyState checks a state value produced by IssueState.
func (s *Signer) VerifyState(state string, now time.Time) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(stateSubject),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return ErrInvalidState
	}
	return nil
}
