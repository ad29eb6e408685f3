// Package api exposes the service over HTTP: signup, email verification,
// signin, logout, a session probe, and a token-guarded account endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dbelyaev/gatekeeper/internal/logging"
	"github.com/dbelyaev/gatekeeper/internal/server/config"
	"github.com/dbelyaev/gatekeeper/internal/server/services"
)

type Server struct {
	address       string
	frontendURL   string
	secureCookies bool
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
	accounts      *services.AccountService
}

func NewServer(cfg *config.Config, l logging.Logger, accounts *services.AccountService) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		frontendURL:   cfg.FrontendURL,
		secureCookies: cfg.SecureCookies,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		logger:        l.With("module", "api_server"),
		accounts:      accounts,
	}
}

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	// username: letters, digits, and underscores only
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	// password: at least one uppercase letter, one lowercase letter, and one
	// digit
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return upperRe.MatchString(s) && lowerRe.MatchString(s) && digitRe.MatchString(s)
	})

	return &requestValidator{validate: v}
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// newEcho assembles the router with middleware, validation, and routes. Run
// uses it for the real server; tests drive it directly through ServeHTTP.
func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{s.frontendURL},
		AllowCredentials: true,
	}))

	g := e.Group("/api/auth")
	g.POST("/signup", s.handleSignup)
	g.POST("/verify-mail", s.handleVerifyMail)
	g.POST("/signin", s.handleSignin)
	g.POST("/logout", s.handleLogout)
	g.GET("/session", s.handleSession)
	g.GET("/me", s.handleMe, s.requireAuth)

	return e
}

func (s *Server) Run(ctx context.Context) error {
	e := s.newEcho()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
