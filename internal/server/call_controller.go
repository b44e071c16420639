package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minhngoc274/chatcore/internal/models"
	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

type CallController struct {
	callUC *usecase.CallUseCase
}

func NewCallController(callUC *usecase.CallUseCase) *CallController {
	return &CallController{
		callUC: callUC,
	}
}

func (h *CallController) InitiateCall(c echo.Context) error {
	var params usecase.InitiateCallParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	params.CallerID = pkgmdw.UserID(c)

	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	call, err := h.callUC.InitiateCall(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, call)
}

func (h *CallController) GetCall(c echo.Context) error {
	callID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	call, err := h.callUC.GetCall(c.Request().Context(), callID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, call)
}

func (h *CallController) AcceptCall(c echo.Context) error {
	callID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	call, err := h.callUC.AcceptCall(c.Request().Context(), callID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, call)
}

func (h *CallController) RejectCall(c echo.Context) error {
	callID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	call, err := h.callUC.RejectCall(c.Request().Context(), callID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, call)
}

func (h *CallController) EndCall(c echo.Context) error {
	callID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	call, err := h.callUC.EndCall(c.Request().Context(), callID, pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, call)
}

func (h *CallController) Signal(c echo.Context) error {
	var signal models.SignalingMessage
	if err := c.Bind(&signal); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(signal); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.callUC.HandleSignal(c.Request().Context(), pkgmdw.UserID(c), signal); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *CallController) ActiveCalls(c echo.Context) error {
	calls, err := h.callUC.ActiveCalls(c.Request().Context(), pkgmdw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, calls)
}

func (h *CallController) CallHistory(c echo.Context) error {
	limit, skip := pageParams(c)
	calls, err := h.callUC.CallHistory(c.Request().Context(), pkgmdw.UserID(c), limit, skip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, calls)
}
