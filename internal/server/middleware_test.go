package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/minhngoc274/chatcore/internal/models"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"conflict", models.ErrConflict, http.StatusConflict},
		{"invalid state", models.ErrInvalidState, http.StatusConflict},
		{"invalid operation", models.ErrInvalidOperation, http.StatusBadRequest},
		{"busy", models.ErrBusy, http.StatusConflict},
		{"unavailable", models.ErrUnavailable, http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			errorHandler()(tc.err, c)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	t.Run("head request gets no body", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodHead, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		errorHandler()(models.ErrNotFound, c)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
