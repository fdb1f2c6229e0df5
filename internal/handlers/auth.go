package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
)

type AuthService interface {
	Authenticate(creds *model.Credentials) (*model.AuthenticatedUser, error)
	Logout(token string) error
}

func Login(auth AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		creds := &model.Credentials{}
		if err := c.Bind(creds); err != nil {
			return err
		}

		authenticated, err := auth.Authenticate(creds)
		if err != nil {
			// a forbidden login means right credentials, inactive account
			if errors.Is(err, model.ErrorForbidden) {
				return &apiError{http.StatusForbidden, i18n.InactiveAuthenticationFailure, nil}
			}
			return err
		}
		return c.JSON(http.StatusOK, authenticated)
	}
}

// Logout succeeds whether or not a token was presented.
func Logout(auth AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := auth.Logout(bearerToken(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}
}
