package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
)

// apiError pairs an HTTP status with a message key. The central error
// handler translates the key, services only ever emit keys.
type apiError struct {
	Status           int
	Key              string
	ValidationErrors map[string]string
}

func (e *apiError) Error() string {
	return e.Key
}

type errorBody struct {
	Path             string            `json:"path"`
	Timestamp        int64             `json:"timestamp"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return &apiError{http.StatusBadRequest, i18n.ValidationFailure, validationErr.Errors}
	case errors.Is(err, model.ErrorEmailDelivery):
		return &apiError{http.StatusBadGateway, i18n.EmailFailure, nil}
	case errors.Is(err, model.ErrorInvalidToken):
		return &apiError{http.StatusBadRequest, i18n.AccountActivationFailure, nil}
	case errors.Is(err, model.ErrorUserNotFound):
		return &apiError{http.StatusNotFound, i18n.UserNotFound, nil}
	case errors.Is(err, model.ErrorAuthenticationFailure):
		return &apiError{http.StatusUnauthorized, i18n.IncorrectCredentials, nil}
	case errors.Is(err, model.ErrorForbidden):
		return &apiError{http.StatusForbidden, i18n.UnauthorizedUserUpdate, nil}
	}

	return &apiError{http.StatusInternalServerError, i18n.UnexpectedError, nil}
}

// ErrorHandler renders every failure as the uniform error body, resolving
// message keys against the caller's language.
func ErrorHandler(bundle *i18n.Bundle) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		lang := language(c)
		body := errorBody{
			Path:      c.Request().URL.Path,
			Timestamp: time.Now().UnixMilli(),
		}

		var status int
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			// echo's own routing and binding failures, keep the status,
			// render our body shape
			status = echoErr.Code
			body.Message = fmt.Sprintf("%v", echoErr.Message)
		} else {
			apiErr := toAPIError(err)
			status = apiErr.Status
			body.Message = bundle.Translate(lang, apiErr.Key)
			if len(apiErr.ValidationErrors) > 0 {
				body.ValidationErrors = map[string]string{}
				for field, key := range apiErr.ValidationErrors {
					body.ValidationErrors[field] = bundle.Translate(lang, key)
				}
			}
		}

		if status >= http.StatusInternalServerError {
			c.Logger().Errorf("request failed: %+v", err)
		}

		if err := c.JSON(status, body); err != nil {
			c.Logger().Errorf("rendering error response: %+v", err)
		}
	}
}

func language(c echo.Context) string {
	return c.Request().Header.Get("Accept-Language")
}

func messageBody(c echo.Context, bundle *i18n.Bundle, key string) map[string]string {
	return map[string]string{"message": bundle.Translate(language(c), key)}
}
