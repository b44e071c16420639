package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
	"github.com/minhngoc274/chatcore/internal/repo/redis"
	"github.com/minhngoc274/chatcore/pkg/util"
)

// fakeRoomRepo is an in-memory mongodb.RoomRepository.
type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[primitive.ObjectID]*models.Room
}

var _ mongodb.RoomRepository = (*fakeRoomRepo)(nil)

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[primitive.ObjectID]*models.Room)}
}

func (f *fakeRoomRepo) clone(r *models.Room) *models.Room {
	cp := *r
	cp.MemberIDs = append([]string(nil), r.MemberIDs...)
	cp.AdminIDs = append([]string(nil), r.AdminIDs...)
	return &cp
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *models.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room.DirectKey != "" {
		for _, r := range f.rooms {
			if r.DirectKey == room.DirectKey {
				return models.ErrConflict
			}
		}
	}
	room.ID = primitive.NewObjectID()
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	room.IsActive = true
	f.rooms[room.ID] = f.clone(room)
	return nil
}

func (f *fakeRoomRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return f.clone(room), nil
}

func (f *fakeRoomRepo) GetByDirectKey(ctx context.Context, key string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.DirectKey == key {
			return f.clone(room), nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRoomRepo) ListByMember(ctx context.Context, userID string, limit, skip int64) ([]*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Room
	for _, room := range f.rooms {
		if room.IsActive && util.SliceIncludes(room.MemberIDs, userID) {
			out = append(out, f.clone(room))
		}
	}
	return out, nil
}

func (f *fakeRoomRepo) AddMember(ctx context.Context, roomID primitive.ObjectID, userID string, maxMembers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return models.ErrNotFound
	}
	if util.SliceIncludes(room.MemberIDs, userID) {
		return models.ErrConflict
	}
	if len(room.MemberIDs) >= maxMembers {
		return models.ErrForbidden
	}
	room.MemberIDs = append(room.MemberIDs, userID)
	return nil
}

func (f *fakeRoomRepo) RemoveMember(ctx context.Context, roomID primitive.ObjectID, userID string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok || !util.SliceIncludes(room.MemberIDs, userID) {
		return nil, models.ErrNotFound
	}
	room.MemberIDs = remove(room.MemberIDs, userID)
	room.AdminIDs = remove(room.AdminIDs, userID)
	return f.clone(room), nil
}

func (f *fakeRoomRepo) PromoteAdmin(ctx context.Context, roomID primitive.ObjectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok || !util.SliceIncludes(room.MemberIDs, userID) {
		return models.ErrNotFound
	}
	if !util.SliceIncludes(room.AdminIDs, userID) {
		room.AdminIDs = append(room.AdminIDs, userID)
	}
	room.CreatedBy = userID
	return nil
}

func (f *fakeRoomRepo) UpdateRoom(ctx context.Context, roomID primitive.ObjectID, set bson.M) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		room.Name = name
	}
	if desc, ok := set["description"].(string); ok {
		room.Description = desc
	}
	if settings, ok := set["settings"].(models.RoomSettings); ok {
		room.Settings = settings
	}
	return f.clone(room), nil
}

func (f *fakeRoomRepo) SetLastMessageAt(ctx context.Context, roomID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		room.LastMessageAt = &at
	}
	return nil
}

func (f *fakeRoomRepo) SoftDelete(ctx context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return models.ErrNotFound
	}
	room.IsActive = false
	return nil
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// fakeMessageRepo is an in-memory mongodb.MessageRepository.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*models.Message
}

var _ mongodb.MessageRepository = (*fakeMessageRepo)(nil)

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[primitive.ObjectID]*models.Message)}
}

func (f *fakeMessageRepo) clone(m *models.Message) *models.Message {
	cp := *m
	cp.Reactions = append([]models.Reaction(nil), m.Reactions...)
	cp.ReadReceipts = append([]models.ReadReceipt(nil), m.ReadReceipts...)
	return &cp
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	f.messages[msg.ID] = f.clone(msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) ListByRoom(ctx context.Context, roomID primitive.ObjectID, limit, skip int64) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, msg := range f.messages {
		if msg.RoomID == roomID && !msg.IsDeleted {
			out = append(out, f.clone(msg))
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateContent(ctx context.Context, id primitive.ObjectID, senderID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if msg.SenderID != senderID {
		return nil, models.ErrForbidden
	}
	if msg.IsDeleted {
		return nil, models.ErrInvalidOperation
	}
	now := time.Now()
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &now
	msg.UpdatedAt = now
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, senderID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if msg.SenderID != senderID {
		return nil, models.ErrForbidden
	}
	if !msg.IsDeleted {
		msg.IsDeleted = true
		msg.Content = models.DeletedContent
		msg.UpdatedAt = time.Now()
	}
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) AddReaction(ctx context.Context, id primitive.ObjectID, reaction models.Reaction) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if msg.IsDeleted {
		return nil, models.ErrInvalidState
	}
	if !msg.HasReaction(reaction.UserID, reaction.Emoji) {
		msg.Reactions = append(msg.Reactions, reaction)
	}
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) RemoveReaction(ctx context.Context, id primitive.ObjectID, userID, emoji string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	kept := msg.Reactions[:0]
	for _, r := range msg.Reactions {
		if r.UserID != userID || r.Emoji != emoji {
			kept = append(kept, r)
		}
	}
	msg.Reactions = kept
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) AddReadReceipt(ctx context.Context, id primitive.ObjectID, receipt models.ReadReceipt) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if msg.SenderID != receipt.UserID && !msg.IsReadBy(receipt.UserID) {
		msg.ReadReceipts = append(msg.ReadReceipts, receipt)
	}
	return f.clone(msg), nil
}

func (f *fakeMessageRepo) ListUnread(ctx context.Context, roomID primitive.ObjectID, userID string) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, msg := range f.messages {
		if msg.RoomID == roomID && !msg.IsDeleted && msg.SenderID != userID && !msg.IsReadBy(userID) {
			out = append(out, f.clone(msg))
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CountUnread(ctx context.Context, roomID primitive.ObjectID, userID string) (int64, error) {
	unread, err := f.ListUnread(ctx, roomID, userID)
	return int64(len(unread)), err
}

// fakeCallRepo is an in-memory mongodb.CallRepository with the same
// compare-and-set discipline as the real store.
type fakeCallRepo struct {
	mu    sync.Mutex
	calls map[primitive.ObjectID]*models.CallSession
}

var _ mongodb.CallRepository = (*fakeCallRepo)(nil)

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{calls: make(map[primitive.ObjectID]*models.CallSession)}
}

func (f *fakeCallRepo) clone(c *models.CallSession) *models.CallSession {
	cp := *c
	cp.ICECandidates = append([]models.ICECandidate(nil), c.ICECandidates...)
	return &cp
}

func (f *fakeCallRepo) Create(ctx context.Context, call *models.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call.ID = primitive.NewObjectID()
	call.CreatedAt = time.Now()
	f.calls[call.ID] = f.clone(call)
	return nil
}

func (f *fakeCallRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return f.clone(call), nil
}

func (f *fakeCallRepo) Transition(ctx context.Context, id primitive.ObjectID, from []models.CallStatus, set bson.M) (*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !util.SliceIncludes(from, call.Status) {
		return nil, models.ErrInvalidState
	}
	if status, ok := set["status"].(models.CallStatus); ok {
		call.Status = status
	}
	if at, ok := set["started_at"].(time.Time); ok {
		call.StartedAt = &at
	}
	if at, ok := set["ended_at"].(time.Time); ok {
		call.EndedAt = &at
	}
	if reason, ok := set["end_reason"].(models.EndReason); ok {
		call.EndReason = reason
	}
	if duration, ok := set["duration"].(int64); ok {
		call.Duration = &duration
	}
	return f.clone(call), nil
}

func (f *fakeCallRepo) SetAnswer(ctx context.Context, id primitive.ObjectID, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[id]
	if !ok {
		return models.ErrNotFound
	}
	call.Answer = answer
	return nil
}

func (f *fakeCallRepo) AppendICECandidate(ctx context.Context, id primitive.ObjectID, candidate models.ICECandidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[id]
	if !ok {
		return models.ErrNotFound
	}
	call.ICECandidates = append(call.ICECandidates, candidate)
	return nil
}

func (f *fakeCallRepo) ListByParticipant(ctx context.Context, userID string, limit, skip int64) ([]*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CallSession
	for _, call := range f.calls {
		if call.IsParticipant(userID) {
			out = append(out, f.clone(call))
		}
	}
	return out, nil
}

func (f *fakeCallRepo) ListActiveByParticipant(ctx context.Context, userID string) ([]*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CallSession
	for _, call := range f.calls {
		if call.IsParticipant(userID) && !call.Status.Terminal() {
			out = append(out, f.clone(call))
		}
	}
	return out, nil
}

func (f *fakeCallRepo) HasActiveCall(ctx context.Context, userID string) (bool, error) {
	active, err := f.ListActiveByParticipant(ctx, userID)
	return len(active) > 0, err
}

func (f *fakeCallRepo) ListExpired(ctx context.Context, olderThan time.Time) ([]*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CallSession
	for _, call := range f.calls {
		switch call.Status {
		case models.CallStatusInitiated, models.CallStatusRinging:
			if call.CreatedAt.Before(olderThan) {
				out = append(out, f.clone(call))
			}
		}
	}
	return out, nil
}

// fakeEphemeralStore keeps presence and typing in memory with explicit
// expiry times so tests can steer the clock.
type fakeEphemeralStore struct {
	mu       sync.Mutex
	now      func() time.Time
	ttl      time.Duration
	presence map[string]models.Presence
	typing   map[string]map[string]time.Time
}

var _ redis.EphemeralStore = (*fakeEphemeralStore)(nil)

func newFakeEphemeralStore(ttl time.Duration) *fakeEphemeralStore {
	return &fakeEphemeralStore{
		now:      time.Now,
		ttl:      ttl,
		presence: make(map[string]models.Presence),
		typing:   make(map[string]map[string]time.Time),
	}
}

func (f *fakeEphemeralStore) SetPresence(ctx context.Context, presence models.Presence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence[presence.UserID] = presence
	return nil
}

func (f *fakeEphemeralStore) GetPresence(ctx context.Context, userID string) (*models.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.presence[userID]; ok {
		return &p, nil
	}
	return &models.Presence{UserID: userID, Online: false, Status: models.PresenceOffline}, nil
}

func (f *fakeEphemeralStore) GetPresences(ctx context.Context, userIDs []string) ([]*models.Presence, error) {
	out := make([]*models.Presence, 0, len(userIDs))
	for _, id := range userIDs {
		p, _ := f.GetPresence(ctx, id)
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeEphemeralStore) SetTyping(ctx context.Context, roomID, userID string, isTyping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.typing[roomID]
	if room == nil {
		room = make(map[string]time.Time)
		f.typing[roomID] = room
	}
	if isTyping {
		room[userID] = f.now().Add(f.ttl)
	} else {
		delete(room, userID)
	}
	return nil
}

func (f *fakeEphemeralStore) GetTypingUsers(ctx context.Context, roomID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for userID, expiry := range f.typing[roomID] {
		if f.now().Before(expiry) {
			out = append(out, userID)
		}
	}
	return out, nil
}

// fakeMessageCache records invalidations; reads always miss.
type fakeMessageCache struct {
	mu          sync.Mutex
	invalidated []string
}

var _ redis.MessageCache = (*fakeMessageCache)(nil)

func newFakeMessageCache() *fakeMessageCache {
	return &fakeMessageCache{}
}

func (f *fakeMessageCache) GetRecent(ctx context.Context, roomID string) ([]*models.Message, error) {
	return nil, nil
}

func (f *fakeMessageCache) SetRecent(ctx context.Context, roomID string, messages []*models.Message) error {
	return nil
}

func (f *fakeMessageCache) Append(ctx context.Context, roomID string, msg *models.Message) error {
	return nil
}

func (f *fakeMessageCache) Invalidate(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, roomID)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{}
}

func (f *recordingPublisher) Publish(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *recordingPublisher) Close() error { return nil }

func (f *recordingPublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// recordingBroadcaster captures fanout calls.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{}
}

func (f *recordingBroadcaster) BroadcastToRoom(roomID, event string, payload interface{}) {
	f.record(event)
}

func (f *recordingBroadcaster) BroadcastToUser(userID, event string, payload interface{}) {
	f.record(event)
}

func (f *recordingBroadcaster) BroadcastToUsers(userIDs []string, event string, payload interface{}) {
	f.record(event)
}

func (f *recordingBroadcaster) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *recordingBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
