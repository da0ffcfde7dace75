package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("Post", 9).Status())
	assert.Equal(t, http.StatusForbidden, NewForbiddenError("wrong password").Status())
	assert.Equal(t, http.StatusInternalServerError, (&AppError{Code: "TEAPOT"}).Status())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("unique violation")
	wrapped := fmt.Errorf("create group: %w", &AppError{Code: CodeValidation, Message: "name taken", Err: cause})

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "name taken: unique violation", appErr.Error())
	assert.Equal(t, "Group 3 not found", NewNotFoundError("Group", 3).Error())
}

func TestRespondWithError(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantCode    string
		wantDetails string
	}{
		{"validation keeps cause", &AppError{Code: CodeValidation, Message: "bad", Err: errors.New("tag too long")}, CodeValidation, "tag too long"},
		{"internal hides cause", NewInternalError(errors.New("pq: connection reset")), CodeInternal, ""},
		{"plain error", errors.New("boom"), "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondWithError(c, http.StatusTeapot, tc.err)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, http.StatusTeapot, resp.StatusCode)
			assert.Equal(t, tc.wantCode, body.Code)
			assert.Equal(t, tc.wantDetails, body.Details)
		})
	}
}
