package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
	UserRoleKey  contextKey = "userRole"
)

// ErrorWriter renders an authentication failure in the response shape of the routes it guards.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

var errMissingToken = errors.New("missing bearer token")

// Authenticate is middleware to validate JWT access tokens. Requests without a valid token are rejected.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig, onError ErrorWriter) func(next http.Handler) http.Handler {
	secretKey := mustSecret(logger, jwtCfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			claims, err := claimsFromRequest(r, secretKey, jwtCfg)
			if err != nil {
				l.WarnContext(ctx, "Authentication failed", slog.Any("error", err))
				onError(w, r, &api.AuthenticationError{Message: authMessage(err)})
				return
			}

			ctx = WithClaims(ctx, claims)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the caller identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuthenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	secretKey := mustSecret(logger, jwtCfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(r, secretKey, jwtCfg)
			if err != nil {
				if !errors.Is(err, errMissingToken) {
					logger.DebugContext(r.Context(), "Ignoring invalid token on optional route", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin admits only authenticated users whose email is on the allowlist.
// Runs AFTER the Authenticate middleware.
func RequireAdmin(logger *slog.Logger, adminEmails []string, onError ErrorWriter) func(next http.Handler) http.Handler {
	allowed := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		allowed = append(allowed, strings.ToLower(strings.TrimSpace(e)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := GetUserIDFromContext(ctx); !ok {
				onError(w, r, &api.AuthenticationError{Message: "User must be authenticated"})
				return
			}
			email, _ := GetUserEmailFromContext(ctx)
			if email == "" || !slices.Contains(allowed, strings.ToLower(email)) {
				logger.WarnContext(ctx, "Admin access denied", slog.String("email", email))
				onError(w, r, &api.PermissionError{Message: "Admin access required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func mustSecret(logger *slog.Logger, jwtCfg config.JWTConfig) []byte {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}
	return secretKey
}

func claimsFromRequest(r *http.Request, secretKey []byte, jwtCfg config.JWTConfig) (*types.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return nil, errors.New("authorization header format must be Bearer {token}")
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(headerParts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	if claims.Issuer != jwtCfg.Issuer {
		return nil, fmt.Errorf("issuer mismatch: %q", claims.Issuer)
	}
	if !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
		return nil, fmt.Errorf("audience mismatch: %v", claims.Audience)
	}
	return claims, nil
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "User must be authenticated"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Malformed token"
	case errors.Is(err, jwt.ErrSignatureInvalid), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	default:
		return "Invalid or expired token"
	}
}

// WithClaims stores the caller identity on ctx.
func WithClaims(ctx context.Context, claims *types.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	return context.WithValue(ctx, UserRoleKey, claims.Role)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
