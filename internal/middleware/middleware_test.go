package middleware

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/inquiries/internal/auth"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/service"
)

type staticFlags model.FlagState

func (f staticFlags) Fetch(context.Context, service.FetchOptions) model.FlagState {
	return model.FlagState(f)
}

func serve(mw echo.MiddlewareFunc, req *http.Request, prepare ...func(echo.Context)) (echo.Context, error) {
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	for _, p := range prepare {
		p(c)
	}

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})
	return c, handler(c)
}

func httpStatus(t *testing.T, err error) int {
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr), "echo http error expected, got %v", err)
	return httpErr.Code
}

func TestAuthorize(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	method := jwt.GetSigningMethod("EdDSA")
	issuer := auth.NewJwtIssuer("inquiries-api", method, time.Minute, priv)
	mw := Authorize(auth.NewJwtValidator("inquiries-api", method, pub))

	t.Log("valid token sets session user")
	{
		tkn, err := issuer.Sign("user-1", time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tkn.Signed)

		c, err := serve(mw, req)
		require.NoError(t, err)
		require.Equal(t, "user-1", UserID(c))
	}

	t.Log("missing header is unauthorized")
	{
		_, err := serve(mw, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	}

	t.Log("garbage token is unauthorized")
	{
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")

		_, err := serve(mw, req)
		require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	}

	t.Log("no validator means anonymous session")
	{
		c, err := serve(Authorize(nil), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, "", UserID(c))
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	asUser := func(id string) func(echo.Context) {
		return func(c echo.Context) { c.Set(userIDKey, id) }
	}

	t.Log("burst is served, then client is throttled")
	{
		for i := 0; i < 2; i++ {
			_, err := serve(limiter.Limit(), httptest.NewRequest(http.MethodGet, "/", nil), asUser("user-1"))
			require.NoError(t, err)
		}

		_, err := serve(limiter.Limit(), httptest.NewRequest(http.MethodGet, "/", nil), asUser("user-1"))
		require.Equal(t, http.StatusTooManyRequests, httpStatus(t, err))
	}

	t.Log("other client has own bucket")
	{
		_, err := serve(limiter.Limit(), httptest.NewRequest(http.MethodGet, "/", nil), asUser("user-2"))
		require.NoError(t, err)
	}

	t.Log("idle clients are forgotten")
	{
		limiter.forgetIdle(time.Now().Add(time.Hour))
		require.Empty(t, limiter.clients)
	}
}

func TestSafeMode(t *testing.T) {
	t.Log("request passes while kill switch is off")
	{
		_, err := serve(SafeMode(staticFlags(model.DefaultFlagState())), httptest.NewRequest(http.MethodPatch, "/", nil))
		require.NoError(t, err)
	}

	t.Log("kill switch blocks request with safe mode message")
	{
		msg := "Maintenance in progress"
		flags := model.DefaultFlagState()
		flags.KillSwitch = true
		flags.SafeModeMessage = &msg

		_, err := serve(SafeMode(staticFlags(flags)), httptest.NewRequest(http.MethodPatch, "/", nil))

		var httpErr *echo.HTTPError
		require.True(t, errors.As(err, &httpErr))
		require.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
		require.Equal(t, msg, httpErr.Message)
	}

	t.Log("default message without safe mode message")
	{
		flags := model.DefaultFlagState()
		flags.KillSwitch = true

		_, err := serve(SafeMode(staticFlags(flags)), httptest.NewRequest(http.MethodPatch, "/", nil))

		var httpErr *echo.HTTPError
		require.True(t, errors.As(err, &httpErr))
		require.Equal(t, defaultSafeModeMessage, httpErr.Message)
	}
}

func TestRequireOperator(t *testing.T) {
	withKey := func(key string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			req.Header.Set(OperatorKeyHeader, key)
		}
		return req
	}

	t.Log("matching key passes")
	{
		_, err := serve(RequireOperator("operator-secret"), withKey("operator-secret"))
		require.NoError(t, err)
	}

	t.Log("missing key is unauthorized")
	{
		_, err := serve(RequireOperator("operator-secret"), withKey(""))
		require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	}

	t.Log("wrong key is forbidden")
	{
		_, err := serve(RequireOperator("operator-secret"), withKey("operator-secreT"))
		require.Equal(t, http.StatusForbidden, httpStatus(t, err))
	}

	t.Log("route without configured key is closed for everyone")
	{
		_, err := serve(RequireOperator(""), withKey("anything"))
		require.Equal(t, http.StatusForbidden, httpStatus(t, err))

		_, err = serve(RequireOperator(""), withKey(""))
		require.Equal(t, http.StatusForbidden, httpStatus(t, err))
	}
}
