// Package protocol defines the wire messages exchanged with clients and
// the validation gate every inbound payload passes through.
package protocol

import (
	"encoding/json"

	"github.com/frojs/relay/internal/domain"
)

// Kind names an inbound or outbound event type.
type Kind string

const (
	KindAuth   Kind = "auth"
	KindJoin   Kind = "join"
	KindLeave  Kind = "leave"
	KindName   Kind = "name"
	KindTyping Kind = "typing"
	KindSay    Kind = "say"
	KindMove   Kind = "move"
	KindAvatar Kind = "avatar"
	KindError  Kind = "err"
)

// Envelope is the frame shape on the wire, both directions.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads. Tags mirror the structural contract clients are held
// to; the shared Avatar and StateVector entities keep one definition for
// every message that carries them.

type AuthPayload struct {
	Token  string             `json:"token" validate:"required"`
	Room   string             `json:"room" validate:"required,min=1,max=50"`
	Name   string             `json:"name" validate:"required,min=1,max=50"`
	Avatar *domain.Avatar     `json:"avatar" validate:"required"`
	State  domain.StateVector `json:"state" validate:"required,len=5"`
}

type JoinPayload struct {
	Room string `json:"room" validate:"required,min=1,max=50"`
}

type NamePayload struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type SayPayload struct {
	Message string `json:"message" validate:"required,min=1,max=500"`
}

type MovePayload struct {
	// Buffer is the client's input-replay token. The server forwards it
	// untouched and never interprets it.
	Buffer json.RawMessage    `json:"buffer" validate:"required"`
	State  domain.StateVector `json:"state" validate:"required,len=5"`
}

type AvatarPayload struct {
	Metadata *domain.Avatar `json:"metadata" validate:"required"`
}

// Outbound events.

type AuthAck struct {
	ID   string `json:"id"`
	Room string `json:"room"`
}

type JoinEvent struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Avatar *domain.Avatar     `json:"avatar"`
	State  domain.StateVector `json:"state"`
}

type LeaveEvent struct {
	ID string `json:"id"`
}

type NameEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TypingEvent struct {
	ID string `json:"id"`
}

type SayEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type MoveEvent struct {
	ID     string             `json:"id"`
	Buffer json.RawMessage    `json:"buffer"`
	State  domain.StateVector `json:"state"`
}

type AvatarEvent struct {
	ID       string         `json:"id"`
	Metadata *domain.Avatar `json:"metadata"`
}

// ErrorEvent is sent only to the offending session, never to the room.
type ErrorEvent struct {
	ResponseTo       Kind   `json:"responseTo"`
	Message          string `json:"message"`
	DeveloperMessage string `json:"developerMessage,omitempty"`
}
