package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity carried by an access token.
type User struct {
	Email     string
	FirstName string
	LastName  string
	Exp       time.Time
}

type claims struct {
	Username  *string  `json:"username"`
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Exp       *float64 `json:"exp"`
}

var toURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// DecodeUser reads the payload of an access token without verifying its
// signature. exp must be a number; the name fields must be strings when
// present. Anything else is ErrMalformedToken.
func DecodeUser(token string) (User, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return User{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	seg := toURLAlphabet.Replace(strings.TrimRight(parts[1], "="))

	raw, err := jwt.NewParser().DecodeSegment(seg)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	var c claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	if c.Exp == nil {
		return User{}, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}

	return User{
		Email:     deref(c.Username),
		FirstName: deref(c.FirstName),
		LastName:  deref(c.LastName),
		Exp:       time.Unix(int64(*c.Exp), 0),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
