package middlewares

import (
	"net/http/httptest"
	"os"
	"testing"

	"refmatch/app/models"
	"refmatch/app/utils"
	"refmatch/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.JWTSecret = "test-secret"
	os.Exit(m.Run())
}

func newGuardedApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Get("/protected", JWTAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	return app
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	var seen *models.Identity
	app := fiber.New()
	app.Get("/protected", JWTAuth(), func(c *fiber.Ctx) error {
		seen = IdentityFromCtx(c)
		return c.SendStatus(200)
	})

	token, err := utils.GenerateAccessToken("uid-1", "Taro")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	require.NotNil(t, seen)
	assert.Equal(t, "uid-1", seen.UID)
	assert.Equal(t, "Taro", seen.DisplayName)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	app := newGuardedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	app := newGuardedApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abcdef")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJWTAuthRejectsInvalidToken(t *testing.T) {
	app := newGuardedApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestIdentityFromCtxWithoutAuth(t *testing.T) {
	var seen *models.Identity
	sawNil := false

	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error {
		seen = IdentityFromCtx(c)
		sawNil = seen == nil
		return c.SendStatus(200)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, sawNil)
}
