package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role accepted on the admin routes.
const AdminRole = "admin"

// AdminClaims is the JWT payload for operator tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is returned when an admin token is minted.
type IssuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}
