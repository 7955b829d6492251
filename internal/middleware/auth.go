package middleware

import (
	"net/http"
	"strings"

	"notekeeper/internal/service"

	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// JWTAuth verifies the bearer token and stores its claims in the context.
func JWTAuth(tokens *service.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization header"})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid authorization format"})
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Claims returns the claims stored by JWTAuth, or nil on public routes.
func Claims(c echo.Context) *service.Claims {
	claims, _ := c.Get(claimsKey).(*service.Claims)
	return claims
}
