package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dbelyaev/gatekeeper/internal/common"
	"github.com/dbelyaev/gatekeeper/internal/server/auth"
)

// claimsContextKey is the echo context key the verified claims live under.
const claimsContextKey = "session_claims"

// tokenQueryParam lets email links carry the token in the URL.
const tokenQueryParam = "token"

// tokenFromRequest extracts the session token from the request, checking the
// cookie first, then the Authorization header, then the query string.
func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token
	}

	return c.QueryParam(tokenQueryParam)
}

// requireAuth verifies the session token and stores its claims on the
// context. Requests without a token get 401; requests with a bad or expired
// one get 403.
//
// A token arriving in the query string is a link click: after verifying the
// session, the middleware moves the token into the session cookie (when none
// is set yet) and redirects to the same URL with the token parameter
// stripped, so it never lingers in the address bar, browser history, logs,
// or referrer headers. The strip happens whenever the parameter is present,
// cookie or no cookie.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not signed in"})
		}

		claims, err := auth.ParseToken(tokenString, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "session expired"})
			}
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "invalid session"})
		}

		if c.QueryParam(tokenQueryParam) != "" {
			// set the cookie before redirecting so the cleaned URL still
			// carries the session
			if _, err := c.Cookie(sessionCookieName); err != nil {
				s.setSessionCookie(c, tokenString)
			}
			return c.Redirect(http.StatusFound, urlWithoutToken(c))
		}

		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

// urlWithoutToken rebuilds the request URL with the token query parameter
// removed.
func urlWithoutToken(c echo.Context) string {
	u := *c.Request().URL
	q := u.Query()
	q.Del(tokenQueryParam)
	u.RawQuery = q.Encode()
	return u.String()
}

// ClaimsFromContext returns the claims requireAuth stored for this request.
func ClaimsFromContext(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok
}
