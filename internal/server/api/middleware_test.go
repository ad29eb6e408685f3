package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dbelyaev/gatekeeper/internal/server/auth"
)

func TestRequireAuth_NoToken(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me", "",
		&http.Cookie{Name: sessionCookieName, Value: "not.a.token"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	e, s, sender := newTestServer(t)

	cookie := signin(t, e, sender)
	claims, err := auth.ParseToken(cookie.Value, s.jwtSecret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}

	expired, err := auth.GenerateToken(claims.AccountID, claims.Email, s.jwtSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me", "",
		&http.Cookie{Name: sessionCookieName, Value: expired})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_CookieToken(t *testing.T) {
	e, _, sender := newTestServer(t)

	cookie := signin(t, e, sender)

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestRequireAuth_BearerToken(t *testing.T) {
	e, _, sender := newTestServer(t)

	cookie := signin(t, e, sender)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_QueryToken_RedirectsStripped(t *testing.T) {
	e, _, sender := newTestServer(t)

	cookie := signin(t, e, sender)

	// a link click: the token rides in the query string, no cookie yet
	rec := doJSON(t, e, http.MethodGet, "/api/auth/me?token="+url.QueryEscape(cookie.Value)+"&tab=profile", "")

	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, want redirect, body %s", rec.Code, rec.Body.String())
	}

	location := rec.Header().Get(echo.HeaderLocation)
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("bad Location %q: %v", location, err)
	}
	if parsed.Path != "/api/auth/me" {
		t.Fatalf("redirect path %q", parsed.Path)
	}
	if parsed.Query().Get("token") != "" {
		t.Fatalf("token survived in redirect: %q", location)
	}
	if parsed.Query().Get("tab") != "profile" {
		t.Fatalf("other query params must survive: %q", location)
	}

	// the token moved into the session cookie
	var set *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			set = c
		}
	}
	if set == nil || set.Value != cookie.Value {
		t.Fatalf("redirect must carry the token into the cookie, got %+v", set)
	}
}

func TestRequireAuth_QueryToken_InvalidStillForbidden(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me?token=not.a.token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_QueryToken_StrippedEvenWithCookie(t *testing.T) {
	e, _, sender := newTestServer(t)

	cookie := signin(t, e, sender)

	// the session already rides the cookie, but the URL still carries the
	// token and must be cleaned all the same
	rec := doJSON(t, e, http.MethodGet, "/api/auth/me?token="+url.QueryEscape(cookie.Value), "", cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, want redirect, body %s", rec.Code, rec.Body.String())
	}

	location := rec.Header().Get(echo.HeaderLocation)
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("bad Location %q: %v", location, err)
	}
	if parsed.Query().Get("token") != "" {
		t.Fatalf("token survived in redirect: %q", location)
	}

	// the existing cookie stays as it is
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Fatalf("redirect must not rewrite an existing cookie, got %+v", c)
		}
	}

	// following the cleaned URL works off the cookie alone
	rec = doJSON(t, e, http.MethodGet, location, "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("cleaned URL status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_DeletedAccount(t *testing.T) {
	e, s, sender := newTestServer(t)

	cookie := signin(t, e, sender)
	claims, err := auth.ParseToken(cookie.Value, s.jwtSecret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}

	// mint a token for an account that does not exist
	ghost, err := auth.GenerateToken("no-such-id", claims.Email, s.jwtSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/auth/me", "",
		&http.Cookie{Name: sessionCookieName, Value: ghost})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestTokenFromRequest_Precedence(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "from-cookie"})

	c := e.NewContext(req, httptest.NewRecorder())
	if got := tokenFromRequest(c); got != "from-cookie" {
		t.Fatalf("token %q, want the cookie to win", got)
	}

	// no cookie: the header wins over the query
	req = httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	c = e.NewContext(req, httptest.NewRecorder())
	if got := tokenFromRequest(c); got != "from-header" {
		t.Fatalf("token %q, want the header to win", got)
	}

	// neither: the query is the last resort
	req = httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if got := tokenFromRequest(c); got != "from-query" {
		t.Fatalf("token %q, want the query value", got)
	}
}
