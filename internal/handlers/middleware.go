package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.gatehouse/internal/model"
)

const authenticatedUserKey = "authenticatedUser"

type TokenVerifier interface {
	Verify(token string) (model.UserID, error)
}

// TokenAuth resolves a bearer token to an identity and attaches it to the
// request context. It never rejects the request, each handler decides for
// itself whether a missing identity is fatal.
func TokenAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := bearerToken(c); token != "" {
				if userID, err := tokens.Verify(token); err == nil {
					c.Set(authenticatedUserKey, userID)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	authorization := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authorization, "Bearer ")
}

// authenticatedUser returns the identity resolved by TokenAuth, or the
// empty id when the request carried no valid token.
func authenticatedUser(c echo.Context) model.UserID {
	if id, ok := c.Get(authenticatedUserKey).(model.UserID); ok {
		return id
	}
	return ""
}
