package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

// DefaultName is what a session answers to until it picks something.
const DefaultName = "Guest"

// Session is the server-side state for one connected client within a
// Domain. All mutation happens under the owning Domain's mutex, so a
// handler's validate/rate-check/mutate/broadcast sequence never
// interleaves with another session's.
type Session struct {
	conn  Conn
	owner *Domain // non-owning back-reference

	authed     bool
	terminated bool

	room        string
	name        string
	avatar      *domain.Avatar
	state       domain.StateVector
	lastMessage string

	flood map[protocol.Kind]*floodCounter
}

func newSession(owner *Domain, conn Conn) *Session {
	return &Session{
		conn:  conn,
		owner: owner,
		name:  DefaultName,
		state: domain.ZeroState(),
		flood: make(map[protocol.Kind]*floodCounter),
	}
}

func (s *Session) ID() SessionID             { return s.conn.ID() }
func (s *Session) Room() string              { return s.room }
func (s *Session) Name() string              { return s.name }
func (s *Session) Avatar() *domain.Avatar    { return s.avatar }
func (s *Session) State() domain.StateVector { return s.state.Clone() }
func (s *Session) Authenticated() bool       { return s.authed }

type handlerFunc func(*Session, json.RawMessage)

// handlers is the closed dispatch table: every message kind the relay
// accepts, and nothing else.
var handlers = map[protocol.Kind]handlerFunc{
	protocol.KindAuth:   (*Session).onAuth,
	protocol.KindJoin:   (*Session).onJoin,
	protocol.KindName:   (*Session).onName,
	protocol.KindTyping: (*Session).onTyping,
	protocol.KindSay:    (*Session).onSay,
	protocol.KindMove:   (*Session).onMove,
	protocol.KindAvatar: (*Session).onAvatar,
}

// handle runs one inbound event to completion. Caller holds the Domain
// mutex.
func (s *Session) handle(kind protocol.Kind, raw json.RawMessage) {
	if s.terminated {
		return
	}
	h, ok := handlers[kind]
	if !ok {
		log.Warn().Str("module", "core.session").Str("sid", string(s.ID())).
			Str("kind", string(kind)).Msg("unrecognized message kind")
		s.sendError(kind, "Unrecognized message",
			fmt.Sprintf("no handler registered for kind %q", kind))
		return
	}
	h(s, raw)
}

// gate runs the schema validator for kind and notifies the sender on a
// failure. The returned payload is the registered *XxxPayload for kind.
func (s *Session) gate(kind protocol.Kind, raw json.RawMessage) (any, bool) {
	payload, err := s.owner.validator.Validate(kind, raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.session").Str("sid", string(s.ID())).
			Str("kind", string(kind)).Msg("payload rejected")
		msg := "Malformed message"
		if errors.Is(err, protocol.ErrUnknownKind) {
			msg = "Unrecognized message"
		}
		s.sendError(kind, msg, err.Error())
		return nil, false
	}
	return payload, true
}

// floodGate charges one attempt against the session's counter for kind
// and notifies the sender on a block.
func (s *Session) floodGate(kind protocol.Kind) bool {
	rule, ok := s.owner.guard.Check(s, kind)
	if ok {
		return true
	}
	log.Warn().Str("module", "core.session").Str("sid", string(s.ID())).
		Str("kind", string(kind)).Msg("flooding, message dropped")
	s.sendError(kind, rule.ErrorMessage,
		fmt.Sprintf("%v: more than %d %q updates per %s",
			ErrRateLimited, rule.MaxUpdates, kind, rule.ResetInterval))
	return false
}

func (s *Session) onAuth(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindAuth, raw)
	if !ok {
		return
	}
	p := v.(*protocol.AuthPayload)

	if p.Token != s.owner.secret {
		log.Warn().Str("module", "core.session").Str("sid", string(s.ID())).
			Str("ns", string(s.owner.id)).Msg("auth with invalid token")
		s.sendError(protocol.KindAuth, "Invalid Token", ErrInvalidToken.Error())
		return
	}

	if p.Room != "" {
		s.room = p.Room
	}
	if p.Name != "" {
		s.name = p.Name
	}
	if len(p.State) == domain.StateVectorLen {
		s.state = p.State.Clone()
	}
	if p.Avatar != nil {
		s.avatar = p.Avatar
	}
	s.authed = true

	log.Info().Str("module", "core.session").Str("sid", string(s.ID())).
		Str("ns", string(s.owner.id)).Str("room", s.room).Msg("authenticated")

	s.emit(protocol.KindAuth, protocol.AuthAck{ID: string(s.ID()), Room: s.room})
	s.owner.completeJoin(s)
}

func (s *Session) onJoin(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindJoin, raw)
	if !ok {
		return
	}
	p := v.(*protocol.JoinPayload)

	// Tell the old room we left before switching.
	if s.room != "" {
		s.owner.fanOut(s, s.room, AudienceRoomExceptSelf,
			protocol.KindLeave, protocol.LeaveEvent{ID: string(s.ID())})
	}
	s.room = p.Room

	log.Info().Str("module", "core.session").Str("sid", string(s.ID())).
		Str("ns", string(s.owner.id)).Str("room", s.room).Msg("request to join room")

	s.owner.completeJoin(s)
}

func (s *Session) onName(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindName, raw)
	if !ok {
		return
	}
	if !s.floodGate(protocol.KindName) {
		return
	}
	p := v.(*protocol.NamePayload)

	s.name = p.Name
	s.owner.fanOut(s, s.room, AudienceRoomIncludingSelf,
		protocol.KindName, protocol.NameEvent{ID: string(s.ID()), Name: s.name})
}

func (s *Session) onTyping(_ json.RawMessage) {
	// Non-essential; no schema, no throttle.
	s.owner.fanOut(s, s.room, AudienceRoomExceptSelf,
		protocol.KindTyping, protocol.TypingEvent{ID: string(s.ID())})
}

func (s *Session) onSay(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindSay, raw)
	if !ok {
		return
	}
	if !s.floodGate(protocol.KindSay) {
		return
	}
	p := v.(*protocol.SayPayload)

	s.lastMessage = p.Message
	s.owner.fanOut(s, s.room, AudienceRoomExceptSelf,
		protocol.KindSay, protocol.SayEvent{ID: string(s.ID()), Message: p.Message})
}

func (s *Session) onMove(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindMove, raw)
	if !ok {
		return
	}
	p := v.(*protocol.MovePayload)

	s.state = p.State.Clone()
	s.owner.fanOut(s, s.room, AudienceRoomExceptSelf,
		protocol.KindMove, protocol.MoveEvent{
			ID:     string(s.ID()),
			Buffer: p.Buffer,
			State:  s.state,
		})
}

func (s *Session) onAvatar(raw json.RawMessage) {
	v, ok := s.gate(protocol.KindAvatar, raw)
	if !ok {
		return
	}
	if !s.floodGate(protocol.KindAvatar) {
		return
	}
	p := v.(*protocol.AvatarPayload)

	s.avatar = p.Metadata
	s.owner.fanOut(s, s.room, AudienceRoomIncludingSelf,
		protocol.KindAvatar, protocol.AvatarEvent{ID: string(s.ID()), Metadata: s.avatar})
}

// snapshotEvent is the join event describing this session, used both for
// the newcomer snapshot and the room-wide join broadcast.
func (s *Session) snapshotEvent() protocol.JoinEvent {
	return protocol.JoinEvent{
		ID:     string(s.ID()),
		Name:   s.name,
		Avatar: s.avatar,
		State:  s.state.Clone(),
	}
}

// emit is best-effort; delivery problems are the transport's to handle.
func (s *Session) emit(kind protocol.Kind, v any) {
	if err := s.conn.Emit(kind, v); err != nil {
		log.Warn().Err(err).Str("module", "core.session").
			Str("sid", string(s.ID())).Str("kind", string(kind)).Msg("emit dropped")
	}
}

func (s *Session) sendError(responseTo protocol.Kind, msg, dev string) {
	s.emit(protocol.KindError, protocol.ErrorEvent{
		ResponseTo:       responseTo,
		Message:          msg,
		DeveloperMessage: dev,
	})
}
