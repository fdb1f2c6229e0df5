package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	"uk.co.dudmesh.gatehouse/internal/boot"
	"uk.co.dudmesh.gatehouse/internal/handlers"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/service/auth"
	"uk.co.dudmesh.gatehouse/internal/service/email"
	"uk.co.dudmesh.gatehouse/internal/service/token"
	"uk.co.dudmesh.gatehouse/internal/service/user"
	"uk.co.dudmesh.gatehouse/internal/store"
)

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	db, err := store.New(config.Database.Path)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}
	defer db.Close()

	mailer, err := email.New(config)
	if err != nil {
		log.Fatalf("creating mailer: %+v", err)
	}

	tokenService := token.New(db)
	userService := user.New(db, mailer)
	authService := auth.New(db, tokenService)
	bundle := i18n.NewBundle()

	server := echo.New()
	server.Use(middleware.BodyLimit("1M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("gatehouse"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)
	server.HTTPErrorHandler = handlers.ErrorHandler(bundle)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(config.Server.Origins, ","),
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	api := server.Group("/api/1.0", handlers.TokenAuth(tokenService))
	api.POST("/users", handlers.CreateUser(userService, bundle))
	api.POST("/users/token/:token", handlers.ActivateUser(userService, bundle))
	api.GET("/users", handlers.ListUsers(userService))
	api.GET("/users/:id", handlers.GetUser(userService))
	api.PUT("/users/:id", handlers.UpdateUser(userService))
	api.POST("/auth", handlers.Login(authService))
	api.POST("/logout", handlers.Logout(authService))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":8081"); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
