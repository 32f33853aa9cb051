package session

import (
	"fmt"
	"log/slog"
	"net/http"
)

type transport struct {
	m    *Manager
	base http.RoundTripper
}

// Transport wraps base so every request carries the current access token.
// An expiring token is refreshed before the header is attached, and a 401
// response logs the session out. A refresh that ends the session fails the
// request with ErrUnauthorized. Transport errors pass through untouched.
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return &transport{m: m, base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.m.IsAuthenticated() {
		if t.m.IsTokenExpired() {
			if err := t.m.refreshIfExpiring(ctx); err != nil && ctx.Err() != nil {
				closeBody(req)
				return nil, ctx.Err()
			}
		}

		// The session ended while this request waited for the refresh.
		token := t.m.accessToken()
		if token == "" {
			closeBody(req)
			return nil, fmt.Errorf("%w: session ended during refresh", ErrUnauthorized)
		}

		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		slog.WarnContext(ctx, "request unauthorized, logging out", "method", req.Method, "url", req.URL.String())
		t.m.Logout()
	}

	return resp, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
