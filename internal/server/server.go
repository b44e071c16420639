package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/minhngoc274/chatcore/internal/config"
	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
)

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	health *HealthController,
	rooms *RoomController,
	messages *MessageController,
	calls *CallController,
	presence *PresenceController,
	socket *SocketHandler,
) {
	e := echo.New()
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler()

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", health.Health)
	e.Any("/socket.io/", socket.Handler())

	api := e.Group("/api/v1", pkgmdw.JWTAuth(conf.Auth.JWTSecret))

	api.POST("/rooms", rooms.CreateRoom)
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:id", rooms.GetRoom)
	api.PUT("/rooms/:id", rooms.UpdateRoom)
	api.DELETE("/rooms/:id", rooms.DeleteRoom)
	api.POST("/rooms/:id/members", rooms.AddMember)
	api.DELETE("/rooms/:id/members/:memberId", rooms.RemoveMember)
	api.POST("/rooms/:id/leave", rooms.LeaveRoom)
	api.GET("/rooms/:id/presence", rooms.RoomPresence)
	api.GET("/rooms/:id/typing", rooms.TypingUsers)

	api.POST("/messages", messages.SendMessage)
	api.GET("/messages/:id", messages.GetMessage)
	api.PUT("/messages/:id", messages.EditMessage)
	api.DELETE("/messages/:id", messages.DeleteMessage)
	api.POST("/messages/:id/reactions", messages.AddReaction)
	api.DELETE("/messages/:id/reactions/:emoji", messages.RemoveReaction)
	api.POST("/messages/:id/read", messages.MarkRead)
	api.GET("/messages/room/:roomId", messages.ListMessages)
	api.POST("/messages/room/:roomId/read", messages.MarkRoomRead)
	api.GET("/messages/room/:roomId/unread-count", messages.UnreadCount)

	api.POST("/calls", calls.InitiateCall)
	api.GET("/calls/active", calls.ActiveCalls)
	api.GET("/calls/history", calls.CallHistory)
	api.GET("/calls/:id", calls.GetCall)
	api.PUT("/calls/:id/accept", calls.AcceptCall)
	api.PUT("/calls/:id/reject", calls.RejectCall)
	api.PUT("/calls/:id/end", calls.EndCall)
	api.POST("/calls/signal", calls.Signal)

	api.GET("/presence/:userId", presence.GetPresence)
	api.POST("/presence/heartbeat", presence.Heartbeat)
	api.POST("/presence/room/:roomId/typing", presence.SetTyping)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := socket.Serve(); err != nil {
					log.Errorw(ctx, "socket server stopped", "error", err)
				}
			}()
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := socket.Close(); err != nil {
				log.Warnw(ctx, "failed to close socket server", "error", err)
			}
			return e.Shutdown(ctx)
		},
	})
}
