package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minhngoc274/chatcore/internal/models"
	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

type PresenceController struct {
	presenceUC *usecase.PresenceUseCase
}

func NewPresenceController(presenceUC *usecase.PresenceUseCase) *PresenceController {
	return &PresenceController{
		presenceUC: presenceUC,
	}
}

func (h *PresenceController) GetPresence(c echo.Context) error {
	userID := c.Param("userId")
	presence, err := h.presenceUC.GetPresence(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presence)
}

type heartbeatRequest struct {
	Status models.PresenceStatus `json:"status"`
}

func (h *PresenceController) Heartbeat(c echo.Context) error {
	var req heartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.presenceUC.Heartbeat(c.Request().Context(), pkgmdw.UserID(c), req.Status); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

func (h *PresenceController) SetTyping(c echo.Context) error {
	roomID, err := objectIDParam(c, "roomId")
	if err != nil {
		return err
	}

	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.presenceUC.SetTyping(c.Request().Context(), roomID, pkgmdw.UserID(c), req.IsTyping); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
