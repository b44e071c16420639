package usecase

// Broadcaster fans an event out to currently connected clients. It is a
// capability handed to use cases, so business logic never reaches into the
// socket layer directly and tests can swap in a recording fake.
//
// Fanout is fire-and-forget: delivery to a disconnected client is dropped,
// durable history lives in the message store.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload interface{})
	BroadcastToUser(userID, event string, payload interface{})
	BroadcastToUsers(userIDs []string, event string, payload interface{})
}

// Socket event names, shared by the fanout layer and its clients.
const (
	EventNameMessage     = "chat.message"
	EventNameTyping      = "chat.typing"
	EventNameReaction    = "chat.reaction"
	EventNameReadReceipt = "chat.read_receipt"
	EventNamePresence    = "chat.presence"
	EventNameRoom        = "chat.room"
	EventNameIncoming    = "call.incoming"
	EventNameCallStatus  = "call.status"
	EventNameCallSignal  = "call.signal"
)

// NopBroadcaster drops every broadcast. Used when no socket server is wired,
// for batch tooling and tests.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToRoom(string, string, interface{})    {}
func (NopBroadcaster) BroadcastToUser(string, string, interface{})    {}
func (NopBroadcaster) BroadcastToUsers([]string, string, interface{}) {}
