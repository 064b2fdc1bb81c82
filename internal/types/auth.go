package types

import "github.com/golang-jwt/jwt/v5"

// Claims are the custom claims carried by the bearer tokens issued to the mobile app.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"eml,omitempty"`
	Role   string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}
