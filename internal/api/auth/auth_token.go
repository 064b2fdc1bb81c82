package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// SignToken issues an HS256 access token accepted by Authenticate.
func SignToken(jwtCfg config.JWTConfig, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtCfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if jwtCfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{jwtCfg.Audience}
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
