package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
)

type UserService interface {
	Register(params *model.RegisterUserParams) error
	Activate(token string) error
	Get(id model.UserID) (*model.ListedUser, error)
	List(page int, size int, caller model.UserID) (*model.UserPage, error)
	Update(target model.UserID, caller model.UserID, params *model.UpdateUserParams) error
}

func CreateUser(users UserService, bundle *i18n.Bundle) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.RegisterUserParams{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if err := users.Register(params); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageBody(c, bundle, i18n.UserCreated))
	}
}

func ActivateUser(users UserService, bundle *i18n.Bundle) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := users.Activate(c.Param("token")); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageBody(c, bundle, i18n.AccountActivationSuccessful))
	}
}

func ListUsers(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := strconv.Atoi(c.QueryParam("page"))
		if err != nil {
			page = 0
		}
		size, err := strconv.Atoi(c.QueryParam("size"))
		if err != nil {
			size = 10
		}

		result, err := users.List(page, size, authenticatedUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func GetUser(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := users.Get(model.UserID(c.Param("id")))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, user)
	}
}

func UpdateUser(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		target := model.UserID(c.Param("id"))
		caller := authenticatedUser(c)

		params := &model.UpdateUserParams{}
		if err := c.Bind(params); err != nil {
			return err
		}

		if err := users.Update(target, caller, params); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}
}
