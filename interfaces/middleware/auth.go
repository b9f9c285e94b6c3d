package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"omnipost/domain/dto"
	"omnipost/domain/model"
	"omnipost/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Auth checks the HS256 bearer token. With an empty secret every request passes.
func Auth(secretKey string) gin.HandlerFunc {
	if secretKey == "" {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		authorization := ctx.Request.Header.Get("Authorization")
		// EventSource cannot set headers, so the stream accepts the token as a query parameter.
		if authorization == "" {
			if t := ctx.Query("access_token"); t != "" {
				authorization = "Bearer " + t
			}
		}
		auth := strings.SplitN(authorization, "Bearer ", 2)
		if authorization == "" || len(auth) != 2 || auth[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		claims, token, err := getClaim(auth[1], secretKey)
		if err != nil || token == nil || !token.Valid {
			res.ResponseMessage = rejection(err)
			logger.GetLogger().WithField("reason", res.ResponseMessage).Warn("API token rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		ctx.Set("subject", claims.Subject)
		ctx.Next()
	}
}

func rejection(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			// Token is either expired or not active yet
			return "Timing is everything"
		default:
			return fmt.Sprintf("Couldn't handle this token:%v", err)
		}
	}
	return "Unauthorized"
}

func getClaim(raw, secretKey string) (*model.APIClaims, *jwt.Token, error) {
	claims := &model.APIClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	return claims, token, err
}
