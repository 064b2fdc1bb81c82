package appMiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
)

// ErrorWriter renders a rejection in the response shape of the routes it guards.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// KeyByCaller keys authenticated requests by user ID and anonymous ones by client IP.
func KeyByCaller(r *http.Request) (string, error) {
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok && userID != "" {
		return "user:" + userID, nil
	}
	ip, err := httprate.KeyByRealIP(r)
	return "ip:" + ip, err
}

// RateLimitPerMinute allows perMinute requests per caller in a sliding window.
// A zero or negative limit disables the check. Mount it after authentication
// so callers are keyed by user.
func RateLimitPerMinute(perMinute int, onLimit ErrorWriter) func(next http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(KeyByCaller),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			onLimit(w, r, &api.RateLimitError{Message: "Too many requests, please try again later"})
		}),
	)
}
