package service

import "github.com/golang-jwt/jwt/v4"

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
