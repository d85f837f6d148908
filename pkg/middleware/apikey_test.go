package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/financebro/api/pkg/context"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func invokeAPIKey(t *testing.T, secret, header string) (error, echo.Context, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/scraping/ingest", nil)
	if header != "" {
		req.Header.Set(HeaderAPIKey, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}

	err := APIKey(testLogger(), secret)(next)(c)
	return err, c, called
}

func TestAPIKeyAllowsMatchingKey(t *testing.T) {
	err, c, called := invokeAPIKey(t, "super-secret", "super-secret")

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "n8n", appctx.GetCaller(c.Request().Context()))
}

func TestAPIKeyRejectsMissingKey(t *testing.T) {
	err, _, called := invokeAPIKey(t, "super-secret", "")

	require.Error(t, err)
	assert.False(t, called)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyRejectsWrongKey(t *testing.T) {
	err, _, called := invokeAPIKey(t, "super-secret", "not-the-secret")

	require.Error(t, err)
	assert.False(t, called)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyFailsWhenSecretUnconfigured(t *testing.T) {
	err, _, called := invokeAPIKey(t, "", "anything")

	require.Error(t, err)
	assert.False(t, called)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}
