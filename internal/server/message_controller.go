package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

type MessageController struct {
	messageUC *usecase.MessageUseCase
}

func NewMessageController(messageUC *usecase.MessageUseCase) *MessageController {
	return &MessageController{
		messageUC: messageUC,
	}
}

func (h *MessageController) SendMessage(c echo.Context) error {
	var params usecase.SendMessageParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	params.SenderID = pkgmdw.UserID(c)

	if params.RoomID.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "missing room_id")
	}

	message, err := h.messageUC.SendMessage(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, message)
}

func (h *MessageController) GetMessage(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	message, err := h.messageUC.GetMessage(c.Request().Context(), messageID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

func (h *MessageController) ListMessages(c echo.Context) error {
	roomID, err := objectIDParam(c, "roomId")
	if err != nil {
		return err
	}

	limit, skip := pageParams(c)
	messages, err := h.messageUC.ListMessages(c.Request().Context(), roomID, pkgmdw.UserID(c), limit, skip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *MessageController) EditMessage(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message, err := h.messageUC.EditMessage(c.Request().Context(), messageID, pkgmdw.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

func (h *MessageController) DeleteMessage(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	message, err := h.messageUC.DeleteMessage(c.Request().Context(), messageID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

func (h *MessageController) AddReaction(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message, err := h.messageUC.AddReaction(c.Request().Context(), messageID, pkgmdw.UserID(c), req.Emoji)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

func (h *MessageController) RemoveReaction(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	emoji := c.Param("emoji")
	message, err := h.messageUC.RemoveReaction(c.Request().Context(), messageID, pkgmdw.UserID(c), emoji)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

func (h *MessageController) MarkRead(c echo.Context) error {
	messageID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	message, err := h.messageUC.MarkMessageRead(c.Request().Context(), messageID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message)
}

func (h *MessageController) MarkRoomRead(c echo.Context) error {
	roomID, err := objectIDParam(c, "roomId")
	if err != nil {
		return err
	}

	marked, err := h.messageUC.MarkRoomRead(c.Request().Context(), roomID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"room_id": roomID.Hex(),
		"marked":  marked,
	})
}

func (h *MessageController) UnreadCount(c echo.Context) error {
	roomID, err := objectIDParam(c, "roomId")
	if err != nil {
		return err
	}

	count, err := h.messageUC.UnreadCount(c.Request().Context(), roomID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"room_id": roomID.Hex(),
		"count":   count,
	})
}
