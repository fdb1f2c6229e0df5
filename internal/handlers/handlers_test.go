package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
	"uk.co.dudmesh.gatehouse/internal/service/auth"
	"uk.co.dudmesh.gatehouse/internal/service/token"
	"uk.co.dudmesh.gatehouse/internal/service/user"
	"uk.co.dudmesh.gatehouse/internal/store"
)

type mailerStub struct {
	err    error
	tokens map[string]string // address -> last activation token
}

func (m *mailerStub) SendAccountActivation(address string, tok string) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[address] = tok
	return nil
}

type testApp struct {
	server *echo.Echo
	mailer *mailerStub
	db     user.Database
}

// newTestApp wires the full route table the way the server main does.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mailer := &mailerStub{tokens: map[string]string{}}
	tokens := token.New(db)
	users := user.New(db, mailer)
	authService := auth.New(db, tokens)
	bundle := i18n.NewBundle()

	server := echo.New()
	server.HTTPErrorHandler = ErrorHandler(bundle)

	api := server.Group("/api/1.0", TokenAuth(tokens))
	api.POST("/users", CreateUser(users, bundle))
	api.POST("/users/token/:token", ActivateUser(users, bundle))
	api.GET("/users", ListUsers(users))
	api.GET("/users/:id", GetUser(users))
	api.PUT("/users/:id", UpdateUser(users))
	api.POST("/auth", Login(authService))
	api.POST("/logout", Logout(authService))

	return &testApp{server: server, mailer: mailer, db: db}
}

func (a *testApp) request(method string, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func validSignup(n int) *model.RegisterUserParams {
	return &model.RegisterUserParams{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@mail.com", n),
		Password: "P4ssword",
	}
}

// addActiveUser registers and activates a numbered user over HTTP.
func (a *testApp) addActiveUser(t *testing.T, n int) {
	t.Helper()
	signup := validSignup(n)
	rec := a.request(http.MethodPost, "/api/1.0/users", signup, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodPost, "/api/1.0/users/token/"+a.mailer.tokens[signup.Email], nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// login authenticates a previously added user and returns the bearer token.
func (a *testApp) login(t *testing.T, n int) *model.AuthenticatedUser {
	t.Helper()
	rec := a.request(http.MethodPost, "/api/1.0/auth", &model.Credentials{
		Email:    fmt.Sprintf("user%d@mail.com", n),
		Password: "P4ssword",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	authenticated := &model.AuthenticatedUser{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), authenticated))
	return authenticated
}

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	body := errorBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateUserRoute(t *testing.T) {
	t.Run("valid signup returns the localized created message", func(t *testing.T) {
		assert := assert.New(t)
		app := newTestApp(t)

		rec := app.request(http.MethodPost, "/api/1.0/users", validSignup(1), nil)
		assert.Equal(http.StatusOK, rec.Code)
		assert.JSONEq(`{"message": "User created"}`, rec.Body.String())

		rec = app.request(http.MethodPost, "/api/1.0/users", validSignup(2),
			map[string]string{"Accept-Language": "np"})
		assert.Equal(http.StatusOK, rec.Code)
		assert.Contains(rec.Body.String(), "प्रयोगकर्ता सिर्जना गरियो")
	})

	t.Run("invalid signup returns the uniform error body", func(t *testing.T) {
		assert := assert.New(t)
		app := newTestApp(t)

		rec := app.request(http.MethodPost, "/api/1.0/users", &model.RegisterUserParams{
			Email:    "user1@mail.com",
			Password: "P4ssword",
		}, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("/api/1.0/users", body.Path)
		assert.InDelta(time.Now().UnixMilli(), body.Timestamp, 5000)
		assert.Equal("Validation Failure", body.Message)
		assert.Equal(map[string]string{"username": "Username cannot be null"}, body.ValidationErrors)
	})

	t.Run("field messages follow the requested locale", func(t *testing.T) {
		assert := assert.New(t)
		app := newTestApp(t)

		rec := app.request(http.MethodPost, "/api/1.0/users", &model.RegisterUserParams{
			Email:    "user1@mail.com",
			Password: "P4ssword",
		}, map[string]string{"Accept-Language": "np"})
		assert.Equal(http.StatusBadRequest, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("प्रयोगकर्ता नाम खाली हुन सक्दैन", body.ValidationErrors["username"])
	})

	t.Run("email dispatch failure surfaces as a bad gateway", func(t *testing.T) {
		assert := assert.New(t)
		app := newTestApp(t)
		app.mailer.err = errors.New("smtp: connection refused")

		rec := app.request(http.MethodPost, "/api/1.0/users", validSignup(1), nil)
		assert.Equal(http.StatusBadGateway, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("E-mail Failure", body.Message)
		assert.Nil(body.ValidationErrors)
	})
}

func TestActivationRoute(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t)

	signup := validSignup(1)
	rec := app.request(http.MethodPost, "/api/1.0/users", signup, nil)
	assert.Equal(http.StatusOK, rec.Code)
	activationToken := app.mailer.tokens[signup.Email]

	t.Run("activates with the emailed token", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/api/1.0/users/token/"+activationToken, nil, nil)
		assert.Equal(http.StatusOK, rec.Code)
		assert.JSONEq(`{"message": "Account is activated"}`, rec.Body.String())
	})

	t.Run("a consumed token is rejected", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/api/1.0/users/token/"+activationToken, nil, nil)
		assert.Equal(http.StatusBadRequest, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("This account is either active or the token is invalid", body.Message)
	})
}

func TestListUsersRoute(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t)

	for i := 0; i < 11; i++ {
		app.addActiveUser(t, i)
	}

	t.Run("pages with defaults", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/1.0/users", nil, nil)
		assert.Equal(http.StatusOK, rec.Code)

		page := model.UserPage{}
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Len(page.Items, 10)
		assert.Equal(2, page.TotalPages)
	})

	t.Run("normalizes unparseable and oversized parameters", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/1.0/users?page=-1&size=1000", nil, nil)
		assert.Equal(http.StatusOK, rec.Code)

		page := model.UserPage{}
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(0, page.Page)
		assert.Equal(10, page.Size)

		rec = app.request(http.MethodGet, "/api/1.0/users?page=abc&size=xyz", nil, nil)
		assert.Equal(http.StatusOK, rec.Code)
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(0, page.Page)
		assert.Equal(10, page.Size)
	})

	t.Run("a bearer token excludes the caller", func(t *testing.T) {
		authenticated := app.login(t, 0)

		rec := app.request(http.MethodGet, "/api/1.0/users", nil, bearer(authenticated.Token))
		assert.Equal(http.StatusOK, rec.Code)

		page := model.UserPage{}
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(1, page.TotalPages)
		for _, item := range page.Items {
			assert.NotEqual(authenticated.ID, item.ID)
		}
	})

	t.Run("an invalid bearer token is ignored", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/1.0/users", nil, bearer("never-issued"))
		assert.Equal(http.StatusOK, rec.Code)

		page := model.UserPage{}
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(2, page.TotalPages)
	})
}

func TestGetUserRoute(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t)

	app.addActiveUser(t, 1)
	authenticated := app.login(t, 1)

	t.Run("returns the public projection only", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/1.0/users/"+string(authenticated.ID), nil, nil)
		assert.Equal(http.StatusOK, rec.Code)

		fields := map[string]interface{}{}
		assert.NoError(json.Unmarshal(rec.Body.Bytes(), &fields))
		assert.Equal("user1", fields["username"])
		assert.Equal("user1@mail.com", fields["email"])
		assert.NotContains(fields, "password")
		assert.NotContains(fields, "inactive")
		assert.NotContains(fields, "activationToken")
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/1.0/users/no-such-id", nil, nil)
		assert.Equal(http.StatusNotFound, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("User not found", body.Message)
	})
}

func TestUpdateUserRoute(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t)

	app.addActiveUser(t, 1)
	app.addActiveUser(t, 2)
	owner := app.login(t, 1)
	other := app.login(t, 2)

	update := &model.UpdateUserParams{Username: "renamed"}

	t.Run("rejects a request without a token", func(t *testing.T) {
		rec := app.request(http.MethodPut, "/api/1.0/users/"+string(owner.ID), update, nil)
		assert.Equal(http.StatusForbidden, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("You are not authorized to update user", body.Message)
	})

	t.Run("rejects another user's token", func(t *testing.T) {
		rec := app.request(http.MethodPut, "/api/1.0/users/"+string(owner.ID), update, bearer(other.Token))
		assert.Equal(http.StatusForbidden, rec.Code)
	})

	t.Run("the owner updates their username", func(t *testing.T) {
		rec := app.request(http.MethodPut, "/api/1.0/users/"+string(owner.ID), update, bearer(owner.Token))
		assert.Equal(http.StatusOK, rec.Code)

		rec = app.request(http.MethodGet, "/api/1.0/users/"+string(owner.ID), nil, nil)
		assert.Contains(rec.Body.String(), "renamed")
	})
}

func TestAuthRoutes(t *testing.T) {
	assert := assert.New(t)

	t.Run("bad credentials are unauthorized with no field detail", func(t *testing.T) {
		app := newTestApp(t)
		app.addActiveUser(t, 1)

		for _, creds := range []*model.Credentials{
			{Email: "user1@mail.com", Password: "WrongP4ss"},
			{Email: "nobody@mail.com", Password: "P4ssword"},
			{Email: "not-an-email", Password: "P4ssword"},
		} {
			rec := app.request(http.MethodPost, "/api/1.0/auth", creds, nil)
			assert.Equal(http.StatusUnauthorized, rec.Code)

			body := decodeError(t, rec)
			assert.Equal("Incorrect credentials", body.Message)
			assert.Nil(body.ValidationErrors)
		}
	})

	t.Run("an inactive account is forbidden", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.request(http.MethodPost, "/api/1.0/users", validSignup(1), nil)
		assert.Equal(http.StatusOK, rec.Code)

		rec = app.request(http.MethodPost, "/api/1.0/auth", &model.Credentials{
			Email:    "user1@mail.com",
			Password: "P4ssword",
		}, nil)
		assert.Equal(http.StatusForbidden, rec.Code)

		body := decodeError(t, rec)
		assert.Equal("Account is inactive", body.Message)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		app := newTestApp(t)
		app.addActiveUser(t, 1)
		authenticated := app.login(t, 1)

		rec := app.request(http.MethodPost, "/api/1.0/logout", nil, bearer(authenticated.Token))
		assert.Equal(http.StatusOK, rec.Code)

		// the revoked token no longer authorizes an update
		rec = app.request(http.MethodPut, "/api/1.0/users/"+string(authenticated.ID),
			&model.UpdateUserParams{Username: "renamed"}, bearer(authenticated.Token))
		assert.Equal(http.StatusForbidden, rec.Code)
	})

	t.Run("logout without a token still succeeds", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.request(http.MethodPost, "/api/1.0/logout", nil, nil)
		assert.Equal(http.StatusOK, rec.Code)
	})
}
