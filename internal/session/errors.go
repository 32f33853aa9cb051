package session

import "errors"

var (
	ErrLoginFailed    = errors.New("login failed")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrMalformedToken = errors.New("malformed access token")
	ErrUnauthorized   = errors.New("unauthorized")
)
