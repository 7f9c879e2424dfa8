package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/core/ports"
)

type MessageHandler struct {
	messages ports.MessageService
}

func NewMessageHandler(messages ports.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Latest returns the greeting shown on the index page.
//
// @Summary      Latest message
// @Tags         messages
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/messages [get]
func (h *MessageHandler) Latest(c echo.Context) error {
	msg, err := h.messages.Latest(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg.Text})
}
