package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/next-connect/next-connect/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"storage", fmt.Errorf("local-signup: %w", errors.New("db error: boom")), http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, `{"error":"authentication required"}`},
		{"echo", echo.NewHTTPError(http.StatusNotFound, "Not Found"), http.StatusNotFound, `{"error":"Not Found"}`},
		{"validation", domain.ValidationErrors{{Field: "email", Message: "email must be a valid email"}}, http.StatusUnprocessableEntity, `{"errors":[{"email":"email must be a valid email"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/signup", nil), rec)

			NewHTTPErrorHandler(zerolog.New(&logs))(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tc.body {
				t.Fatalf("unexpected body %s", got)
			}
		})
	}
}

func TestHTTPErrorHandler_DoesNotLeakCause(t *testing.T) {
	var logs bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil), rec)

	NewHTTPErrorHandler(zerolog.New(&logs))(errors.New("pq: password authentication failed for user app"), c)

	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("internal cause leaked: %s", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "password authentication failed") {
		t.Fatalf("expected cause to be logged, got %s", logs.String())
	}
}
