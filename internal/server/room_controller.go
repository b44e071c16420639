package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

type RoomController struct {
	roomUC     *usecase.RoomUseCase
	presenceUC *usecase.PresenceUseCase
}

func NewRoomController(roomUC *usecase.RoomUseCase, presenceUC *usecase.PresenceUseCase) *RoomController {
	return &RoomController{
		roomUC:     roomUC,
		presenceUC: presenceUC,
	}
}

func (h *RoomController) CreateRoom(c echo.Context) error {
	var params usecase.CreateRoomParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	params.CreatorID = pkgmdw.UserID(c)

	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	room, err := h.roomUC.CreateRoom(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *RoomController) GetRoom(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	room, err := h.roomUC.GetRoom(c.Request().Context(), roomID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

func (h *RoomController) ListRooms(c echo.Context) error {
	limit, skip := pageParams(c)
	rooms, err := h.roomUC.ListRoomsWithUnread(c.Request().Context(), pkgmdw.UserID(c), limit, skip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *RoomController) UpdateRoom(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var params usecase.UpdateRoomParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	room, err := h.roomUC.UpdateRoom(c.Request().Context(), roomID, pkgmdw.UserID(c), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

func (h *RoomController) DeleteRoom(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.roomUC.DeleteRoom(c.Request().Context(), roomID, pkgmdw.UserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RoomController) AddMember(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	memberID := c.QueryParam("memberId")
	if memberID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing memberId")
	}

	room, err := h.roomUC.AddMember(c.Request().Context(), roomID, pkgmdw.UserID(c), memberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

func (h *RoomController) RemoveMember(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	memberID := c.Param("memberId")
	if err := h.roomUC.RemoveMember(c.Request().Context(), roomID, pkgmdw.UserID(c), memberID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RoomController) LeaveRoom(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	userID := pkgmdw.UserID(c)
	if err := h.roomUC.RemoveMember(c.Request().Context(), roomID, userID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RoomController) RoomPresence(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	presences, err := h.presenceUC.RoomPresence(c.Request().Context(), roomID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presences)
}

func (h *RoomController) TypingUsers(c echo.Context) error {
	roomID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	users, err := h.presenceUC.TypingUsers(c.Request().Context(), roomID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"room_id": roomID.Hex(),
		"users":   users,
	})
}
