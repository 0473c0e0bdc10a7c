package jwttoken

import (
	authmw "drivelog/internal/platform/middleware"
)

// JWTServiceAdapter bridges the token service to the middleware's validator
// interface, flattening parsed claims to the caller identity the middleware
// injects into request contexts.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		Caller: caller,
		JTI:    claims.ID,
	}, nil
}
