package core

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

// Domain owns one tenant's namespace: the session registry and all room
// fan-out within it. One mutex serializes every membership-affecting
// operation and every dispatched handler, which is what keeps the
// snapshot-then-announce join sequence uninterruptible.
type Domain struct {
	id     domain.Namespace
	tenant string

	secret    string
	validator *protocol.Validator
	guard     *FloodGuard

	mu       sync.Mutex
	sessions map[SessionID]*Session
}

func NewDomain(t domain.Tenant, secret string, v *protocol.Validator, g *FloodGuard) *Domain {
	log.Info().Str("module", "core.domain").Str("ns", string(t.Namespace)).
		Str("tenant", t.Label).Msg("new domain")
	return &Domain{
		id:        t.Namespace,
		tenant:    t.Label,
		secret:    secret,
		validator: v,
		guard:     g,
		sessions:  make(map[SessionID]*Session),
	}
}

func (d *Domain) ID() domain.Namespace { return d.id }
func (d *Domain) Tenant() string       { return d.tenant }

func (d *Domain) SessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// OnConnect registers a fresh session for conn. Always succeeds for a
// valid connection.
func (d *Domain) OnConnect(conn Conn) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := newSession(d, conn)
	d.sessions[conn.ID()] = s
	log.Info().Str("module", "core.domain").Str("ns", string(d.id)).
		Str("sid", string(conn.ID())).Str("addr", conn.RemoteAddr()).Msg("connection")
	return s
}

// OnDisconnect tears the session down: leave broadcast if it was in a
// room, then removal. Duplicate disconnect notifications are a no-op.
func (d *Domain) OnDisconnect(id SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok {
		return
	}
	if s.room != "" {
		d.fanOut(s, s.room, AudienceRoomExceptSelf,
			protocol.KindLeave, protocol.LeaveEvent{ID: string(id)})
	}
	s.terminated = true
	delete(d.sessions, id)
	log.Info().Str("module", "core.domain").Str("ns", string(d.id)).
		Str("sid", string(id)).Str("room", s.room).Msg("disconnected")
}

// Dispatch runs one inbound event for s to completion under the domain
// mutex: validate, rate-check, mutate, broadcast, nothing interleaved.
func (d *Domain) Dispatch(s *Session, kind protocol.Kind, raw json.RawMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.handle(kind, raw)
}

// Broadcast delivers kind/v to everyone in room selected by audience.
// origin is required for the self-relative audiences.
func (d *Domain) Broadcast(origin *Session, room string, aud Audience, kind protocol.Kind, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fanOut(origin, room, aud, kind, v)
}

// completeJoin runs the room-join protocol for s: first a point-in-time
// snapshot of every other member already in the room, one event each,
// then the room-wide (self included) announcement of s. Caller holds the
// mutex, so no other join into the room can slot between the two phases.
func (d *Domain) completeJoin(s *Session) {
	if s.room == "" {
		return
	}

	for _, other := range d.sessions {
		if other == s || other.room != s.room {
			continue
		}
		s.emit(protocol.KindJoin, other.snapshotEvent())
	}

	d.fanOut(s, s.room, AudienceRoomIncludingSelf, protocol.KindJoin, s.snapshotEvent())

	log.Info().Str("module", "core.domain").Str("ns", string(d.id)).
		Str("sid", string(s.ID())).Str("room", s.room).Msg("joined room")
}

// fanOut is the in-memory delivery loop. Caller holds the mutex. A
// session without a room broadcasts to nobody but itself.
func (d *Domain) fanOut(origin *Session, room string, aud Audience, kind protocol.Kind, v any) {
	if aud == AudienceSelf {
		origin.emit(kind, v)
		return
	}
	if room == "" {
		return
	}
	for _, s := range d.sessions {
		if s.room != room {
			continue
		}
		if aud == AudienceRoomExceptSelf && s == origin {
			continue
		}
		s.emit(kind, v)
	}
}
