// Package core is the session and room routing engine: per-connection
// session state, domain-scoped membership, fan-out and the gates in
// front of every inbound event.
package core

import "github.com/frojs/relay/internal/protocol"

// SessionID is assigned by the transport, one per connection.
type SessionID string

// Conn is everything the core needs from a transport connection.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	ID() SessionID
	RemoteAddr() string
	Emit(kind protocol.Kind, v any) error
}

// Audience selects who a broadcast reaches within a room.
type Audience int

const (
	AudienceSelf Audience = iota
	AudienceRoomExceptSelf
	AudienceRoomIncludingSelf
)
