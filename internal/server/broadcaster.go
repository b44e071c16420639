package server

import (
	socketio "github.com/googollee/go-socket.io"

	"github.com/minhngoc274/chatcore/internal/usecase"
)

// Ensure SocketBroadcaster implements the Broadcaster interface
var _ usecase.Broadcaster = (*SocketBroadcaster)(nil)

// NewSocketServer builds the shared socket.io server. The broadcaster and
// the socket handler both hold it, which keeps the use cases free of any
// dependency on connection handling.
func NewSocketServer() *socketio.Server {
	return socketio.NewServer(nil)
}

type SocketBroadcaster struct {
	server *socketio.Server
}

func NewSocketBroadcaster(server *socketio.Server) usecase.Broadcaster {
	return &SocketBroadcaster{server: server}
}

func roomTopic(roomID string) string {
	return "room:" + roomID
}

func userTopic(userID string) string {
	return "user:" + userID
}

func (b *SocketBroadcaster) BroadcastToRoom(roomID, event string, payload interface{}) {
	b.server.BroadcastToRoom("/", roomTopic(roomID), event, payload)
}

func (b *SocketBroadcaster) BroadcastToUser(userID, event string, payload interface{}) {
	b.server.BroadcastToRoom("/", userTopic(userID), event, payload)
}

func (b *SocketBroadcaster) BroadcastToUsers(userIDs []string, event string, payload interface{}) {
	for _, userID := range userIDs {
		b.BroadcastToUser(userID, event, payload)
	}
}
