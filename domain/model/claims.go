package model

import "github.com/golang-jwt/jwt"

// APIClaims are carried by the bearer token of the local API.
type APIClaims struct {
	Scope string `json:"scope"`
	jwt.StandardClaims
}
