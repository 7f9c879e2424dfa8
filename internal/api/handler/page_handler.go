package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/session"
)

// PageHandler renders the server-side pages.
type PageHandler struct {
	messages ports.MessageService
}

func NewPageHandler(messages ports.MessageService) *PageHandler {
	return &PageHandler{messages: messages}
}

// pageData is shared by every template.
type pageData struct {
	Message string
	User    *domain.User
}

func newPageData(c echo.Context) pageData {
	user, _ := session.CurrentUser(c)
	return pageData{User: user}
}

func (h *PageHandler) Index(c echo.Context) error {
	msg, err := h.messages.Latest(c.Request().Context())
	if err != nil {
		return err
	}
	data := newPageData(c)
	data.Message = msg.Text
	return c.Render(http.StatusOK, "index.html", data)
}

func (h *PageHandler) Signin(c echo.Context) error {
	return c.Render(http.StatusOK, "signin.html", newPageData(c))
}

func (h *PageHandler) Profile(c echo.Context) error {
	data := newPageData(c)
	if data.User == nil {
		return domain.ErrUnauthenticated
	}
	return c.Render(http.StatusOK, "profile.html", data)
}
