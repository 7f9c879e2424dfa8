package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/core/domain"
)

type stubMessages struct {
	msg *domain.Message
	err error
}

func (s *stubMessages) Latest(context.Context) (*domain.Message, error) {
	return s.msg, s.err
}

// recordingRenderer writes the template name and data instead of HTML.
type recordingRenderer struct {
	name string
	data any
}

func (r *recordingRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.name = name
	r.data = data
	_, err := fmt.Fprint(w, name)
	return err
}

func TestMessageHandler_Latest(t *testing.T) {
	e := echo.New()
	h := NewMessageHandler(&stubMessages{msg: &domain.Message{Text: "hi there"}})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/messages", nil), rec)

	if err := h.Latest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"message\":\"hi there\"}\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestMessageHandler_LatestError(t *testing.T) {
	e := echo.New()
	storeErr := errors.New("mongo down")
	h := NewMessageHandler(&stubMessages{err: storeErr})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/messages", nil), httptest.NewRecorder())
	if err := h.Latest(c); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPageHandler_Index(t *testing.T) {
	e := echo.New()
	r := &recordingRenderer{}
	e.Renderer = r
	h := NewPageHandler(&stubMessages{msg: &domain.Message{Text: "hello world"}})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := h.Index(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if r.name != "index.html" {
		t.Fatalf("unexpected template %q", r.name)
	}
	data, ok := r.data.(pageData)
	if !ok || data.Message != "hello world" || data.User != nil {
		t.Fatalf("unexpected data: %#v", r.data)
	}
}

func TestPageHandler_ProfileRequiresUser(t *testing.T) {
	e := echo.New()
	e.Renderer = &recordingRenderer{}
	h := NewPageHandler(&stubMessages{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/profile", nil), httptest.NewRecorder())
	if err := h.Profile(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPageHandler_Signin(t *testing.T) {
	e := echo.New()
	r := &recordingRenderer{}
	e.Renderer = r
	h := NewPageHandler(&stubMessages{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/signin", nil), rec)

	if err := h.Signin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if r.name != "signin.html" || rec.Code != http.StatusOK {
		t.Fatalf("unexpected render: %q %d", r.name, rec.Code)
	}
}
