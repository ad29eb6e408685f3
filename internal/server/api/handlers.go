package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dbelyaev/gatekeeper/internal/common"
	"github.com/dbelyaev/gatekeeper/internal/server/auth"
)

// sessionCookieName is the cookie the session token travels in.
const sessionCookieName = "token"

func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid username, email or password"})
	}

	err := s.accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "verification code sent"})
	case errors.Is(err, common.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email already registered"})
	case errors.Is(err, common.ErrDuplicateUsername):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "username already taken"})
	case errors.Is(err, common.ErrDeliveryFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "could not send verification email, please sign up again"})
	default:
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
}

func (s *Server) handleVerifyMail(c echo.Context) error {
	var req verifyMailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email and otp are required"})
	}

	err := s.accounts.VerifyEmail(c.Request().Context(), req.Email, req.Otp)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "email verified"})
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "no account with this email"})
	case errors.Is(err, common.ErrOtpMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid verification code"})
	default:
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
}

func (s *Server) handleSignin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "username and password are required"})
	}

	account, err := s.accounts.Authenticate(c.Request().Context(), req.Username, req.Password)
	switch {
	case err == nil:
		// fall through to token issuance below
	case errors.Is(err, common.ErrNotVerified):
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "email address not verified"})
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrBadPassword):
		// never reveal which of the two was wrong
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid username or password"})
	default:
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}

	token, err := auth.GenerateToken(account.ID, account.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}

	s.setSessionCookie(c, token)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": account})
}

func (s *Server) handleLogout(c echo.Context) error {
	s.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "signed out"})
}

// handleSession reports whether the request carries a live session. It never
// fails: a missing, invalid, or expired token, or a since-deleted account,
// all yield 200 with isAuthenticated=false, so frontends can poll it freely.
func (s *Server) handleSession(c echo.Context) error {
	anonymous := echo.Map{"message": echo.Map{"isAuthenticated": false, "user": nil}}

	// a token in the query string is stripped here just like behind
	// requireAuth: move a valid one into the cookie, then redirect to the
	// cleaned URL so it stops propagating
	if queryToken := c.QueryParam(tokenQueryParam); queryToken != "" {
		if _, err := auth.ParseToken(queryToken, s.jwtSecret); err == nil {
			if _, err := c.Cookie(sessionCookieName); err != nil {
				s.setSessionCookie(c, queryToken)
			}
		}
		return c.Redirect(http.StatusFound, urlWithoutToken(c))
	}

	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return c.JSON(http.StatusOK, anonymous)
	}

	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusOK, anonymous)
	}

	account, err := s.accounts.GetAccount(c.Request().Context(), claims.AccountID)
	if err != nil {
		return c.JSON(http.StatusOK, anonymous)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": echo.Map{"isAuthenticated": true, "user": account}})
}

func (s *Server) handleMe(c echo.Context) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not signed in"})
	}

	account, err := s.accounts.GetAccount(c.Request().Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "account no longer exists"})
		}
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": account})
}

func (s *Server) setSessionCookie(c echo.Context, token string) {
	sameSite := http.SameSiteLaxMode
	if s.secureCookies {
		// cross-site frontends need SameSite=None, which requires Secure
		sameSite = http.SameSiteNoneMode
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenValidity / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: sameSite,
	})
}

// clearSessionCookie is advisory: the token itself stays valid until it
// expires, the server only asks the browser to forget it.
func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
	})
}
