package server

import (
	"context"
	"encoding/json"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	socketio "github.com/googollee/go-socket.io"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	pkgmdw "github.com/minhngoc274/chatcore/internal/server/middleware"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

// SocketHandler owns the inbound side of the real-time channel: it
// authenticates connections and routes client intents to the use cases.
// Outbound fanout goes through SocketBroadcaster on the same server.
type SocketHandler struct {
	server     *socketio.Server
	jwtSecret  string
	roomUC     *usecase.RoomUseCase
	messageUC  *usecase.MessageUseCase
	presenceUC *usecase.PresenceUseCase
	callUC     *usecase.CallUseCase
}

func NewSocketHandler(
	cfg *config.Config,
	server *socketio.Server,
	roomUC *usecase.RoomUseCase,
	messageUC *usecase.MessageUseCase,
	presenceUC *usecase.PresenceUseCase,
	callUC *usecase.CallUseCase,
) *SocketHandler {
	handler := &SocketHandler{
		server:     server,
		jwtSecret:  cfg.Auth.JWTSecret,
		roomUC:     roomUC,
		messageUC:  messageUC,
		presenceUC: presenceUC,
		callUC:     callUC,
	}
	handler.setupEvents()
	return handler
}

func (h *SocketHandler) setupEvents() {
	h.server.OnConnect("/", func(s socketio.Conn) error {
		ctx := context.Background()

		token := h.extractToken(s)
		if token == "" {
			log.Debugw(ctx, "Socket rejected: no auth token", "socket_id", s.ID())
			return s.Close()
		}

		userID, err := pkgmdw.ParseToken(h.jwtSecret, token)
		if err != nil {
			log.Debugw(ctx, "Socket rejected: invalid token", "socket_id", s.ID(), "error", err)
			return s.Close()
		}

		s.SetContext(userID)
		s.Join(userTopic(userID))

		if err := h.presenceUC.Connect(ctx, userID); err != nil {
			log.Warnw(ctx, "Failed to set presence on connect", "error", err, "user_id", userID)
		}

		log.Infow(ctx, "Socket connected", "socket_id", s.ID(), "user_id", userID)
		return nil
	})

	h.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		if err := h.presenceUC.Disconnect(ctx, userID); err != nil {
			log.Warnw(ctx, "Failed to clear presence on disconnect", "error", err, "user_id", userID)
		}
		log.Infow(ctx, "Socket disconnected", "socket_id", s.ID(), "user_id", userID, "reason", reason)
	})

	h.server.OnEvent("/", "join_room", func(s socketio.Conn, roomID string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		id, err := primitive.ObjectIDFromHex(roomID)
		if err != nil {
			return
		}
		// Membership gates the subscription, not just the sends.
		if _, err := h.roomUC.GetRoom(ctx, id, userID); err != nil {
			log.Debugw(ctx, "Rejected room subscription", "error", err, "room_id", roomID, "user_id", userID)
			return
		}

		s.Join(roomTopic(roomID))
	})

	h.server.OnEvent("/", "leave_room", func(s socketio.Conn, roomID string) {
		s.Leave(roomTopic(roomID))
	})

	h.server.OnEvent("/", "chat.sendMessage", func(s socketio.Conn, data string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		var params usecase.SendMessageParams
		if err := json.Unmarshal([]byte(data), &params); err != nil {
			return
		}
		params.SenderID = userID

		if _, err := h.messageUC.SendMessage(ctx, params); err != nil {
			log.Debugw(ctx, "Socket send rejected", "error", err, "user_id", userID)
			s.Emit("chat.error", map[string]string{"error": err.Error()})
		}
	})

	h.server.OnEvent("/", "chat.typing", func(s socketio.Conn, data string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		var indicator models.TypingIndicator
		if err := json.Unmarshal([]byte(data), &indicator); err != nil {
			return
		}
		roomID, err := primitive.ObjectIDFromHex(indicator.RoomID)
		if err != nil {
			return
		}

		if err := h.presenceUC.SetTyping(ctx, roomID, userID, indicator.IsTyping); err != nil {
			log.Debugw(ctx, "Typing update rejected", "error", err, "user_id", userID)
		}
	})

	h.server.OnEvent("/", "chat.markRead", func(s socketio.Conn, messageID string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		id, err := primitive.ObjectIDFromHex(messageID)
		if err != nil {
			return
		}
		if _, err := h.messageUC.MarkMessageRead(ctx, id, userID); err != nil {
			log.Debugw(ctx, "Mark read rejected", "error", err, "user_id", userID)
		}
	})

	h.server.OnEvent("/", "call.signal", func(s socketio.Conn, data string) {
		ctx := context.Background()
		userID := h.socketUserID(s)
		if userID == "" {
			return
		}

		var signal models.SignalingMessage
		if err := json.Unmarshal([]byte(data), &signal); err != nil {
			return
		}
		if err := h.callUC.HandleSignal(ctx, userID, signal); err != nil {
			log.Debugw(ctx, "Signal rejected", "error", err, "user_id", userID)
		}
	})

	h.server.OnError("/", func(s socketio.Conn, e error) {
		log.Warnw(context.Background(), "Socket error", "socket_id", s.ID(), "error", e)
	})
}

func (h *SocketHandler) extractToken(s socketio.Conn) string {
	if auth := s.RemoteHeader().Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):]
		}
		return auth
	}
	if token := s.URL().Query().Get("token"); token != "" {
		return token
	}
	return ""
}

func (h *SocketHandler) socketUserID(s socketio.Conn) string {
	userID, _ := s.Context().(string)
	return userID
}

func (h *SocketHandler) Serve() error {
	return h.server.Serve()
}

func (h *SocketHandler) Close() error {
	return h.server.Close()
}

// Handler adapts the socket server for Echo routing.
func (h *SocketHandler) Handler() echo.HandlerFunc {
	return echo.WrapHandler(h.server)
}
