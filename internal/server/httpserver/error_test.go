package httpserver

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"exusiai.dev/bgstats/internal/pkg/bgerr"
)

func TestErrorHandler(t *testing.T) {
	type testCase struct {
		name   string
		err    error
		status int
		code   string
	}

	testCases := []testCase{
		{name: "typed", err: bgerr.ErrNoData, status: fiber.StatusConflict, code: bgerr.CodeNoData},
		{name: "wrapped", err: errors.Wrap(bgerr.ErrNotFound.Msg("no snapshot"), "lookup"), status: fiber.StatusNotFound, code: bgerr.CodeNotFound},
		{name: "fiber", err: fiber.ErrMethodNotAllowed, status: fiber.StatusMethodNotAllowed, code: "UNKNOWN_ERROR"},
		{name: "plain", err: errors.New("boom"), status: fiber.StatusInternalServerError, code: bgerr.CodeInternalError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error {
				return tc.err
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.code, gjson.GetBytes(body, "code").String())
		})
	}

	assert.Equal(t, fiber.StatusInternalServerError, bgerr.ErrInternalError.StatusCode, "the shared sentinel is never mutated")
}
