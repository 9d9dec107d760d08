package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frojs/relay/internal/domain"
)

func validAvatarJSON() string {
	return `{
		"type": "Animation",
		"url": "http://example.com/sprite.png",
		"width": 32,
		"height": 64,
		"keyframes": {
			"move_2": {"loop": true, "frames": [0, 1, 2]},
			"stop_2": {"loop": false, "frames": [0, 0.5]}
		}
	}`
}

func TestValidateSay(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	v, err := mv.Validate(KindSay, json.RawMessage(`{"message":"hi"}`))
	req.NoError(err)
	req.Equal("hi", v.(*SayPayload).Message)

	_, err = mv.Validate(KindSay, json.RawMessage(`{"message":123}`))
	req.Error(err)
	var malformed *MalformedError
	req.ErrorAs(err, &malformed)
	req.Contains(malformed.Detail, "message")

	_, err = mv.Validate(KindSay, json.RawMessage(`{}`))
	var schema *SchemaError
	req.ErrorAs(err, &schema)
	req.Len(schema.Violations, 1)
	req.Contains(schema.Violations[0], "Message")
}

func TestValidateUnknownKind(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	for _, raw := range []string{`{"message":"hi"}`, `{}`, `[1,2,3]`} {
		_, err := mv.Validate(Kind("sayy"), json.RawMessage(raw))
		req.ErrorIs(err, ErrUnknownKind)
	}
	req.False(mv.Known(Kind("sayy")))
	req.True(mv.Known(KindSay))
	// typing deliberately has no schema.
	req.False(mv.Known(KindTyping))
}

func TestValidateDisabledSkipsSchema(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(false)

	// Violates every say constraint except decodability.
	v, err := mv.Validate(KindSay, json.RawMessage(`{"message":""}`))
	req.NoError(err)
	req.Equal("", v.(*SayPayload).Message)

	// Unknown kinds still fail: there is nothing to decode into.
	_, err = mv.Validate(Kind("sayy"), json.RawMessage(`{}`))
	req.ErrorIs(err, ErrUnknownKind)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	// Bad width, bad height, missing url, bad keyframe key: all reported
	// at once, not just the first.
	raw := json.RawMessage(`{
		"metadata": {
			"type": "Animation",
			"width": 0,
			"height": 500,
			"keyframes": {"moonwalk": {"loop": true, "frames": [0, 1]}}
		}
	}`)
	_, err := mv.Validate(KindAvatar, raw)
	var schema *SchemaError
	req.ErrorAs(err, &schema)
	req.GreaterOrEqual(len(schema.Violations), 4)
}

func TestValidateAvatar(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	v, err := mv.Validate(KindAvatar, json.RawMessage(`{"metadata":`+validAvatarJSON()+`}`))
	req.NoError(err)
	meta := v.(*AvatarPayload).Metadata
	req.Equal(domain.AvatarType, meta.Type)
	req.Len(meta.Keyframes, 2)

	// A frameset needs at least two frames.
	_, err = mv.Validate(KindAvatar, json.RawMessage(`{
		"metadata": {
			"type": "Animation",
			"url": "http://example.com/s.png",
			"width": 32,
			"height": 32,
			"keyframes": {"act_4": {"loop": false, "frames": [7]}}
		}
	}`))
	var schema *SchemaError
	req.ErrorAs(err, &schema)

	// Type is a fixed literal.
	_, err = mv.Validate(KindAvatar, json.RawMessage(`{
		"metadata": {
			"type": "Sprite",
			"url": "http://example.com/s.png",
			"width": 32,
			"height": 32,
			"keyframes": {}
		}
	}`))
	req.Error(err)
}

func TestValidateMoveState(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	v, err := mv.Validate(KindMove, json.RawMessage(`{"buffer":"x","state":[1,2,3,4,5]}`))
	req.NoError(err)
	req.Equal(domain.StateVector{1, 2, 3, 4, 5}, v.(*MovePayload).State)

	for _, state := range []string{`[1,2,3,4]`, `[1,2,3,4,5,6]`, `[]`} {
		_, err = mv.Validate(KindMove, json.RawMessage(`{"buffer":"x","state":`+state+`}`))
		req.Error(err, "state %s must fail", state)
	}
}

func TestValidateAuthRequiresEverything(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	raw := json.RawMessage(`{
		"token": "hi",
		"room": "lobby",
		"name": "Ann",
		"avatar": ` + validAvatarJSON() + `,
		"state": [0,0,0,0,0]
	}`)
	v, err := mv.Validate(KindAuth, raw)
	req.NoError(err)
	req.Equal("lobby", v.(*AuthPayload).Room)

	_, err = mv.Validate(KindAuth, json.RawMessage(`{"token":"hi"}`))
	var schema *SchemaError
	req.ErrorAs(err, &schema)
	// room, name, avatar and state all missing: four violations.
	req.Len(schema.Violations, 4)
}

func TestValidateJoinRoomBounds(t *testing.T) {
	req := require.New(t)
	mv := NewValidator(true)

	_, err := mv.Validate(KindJoin, json.RawMessage(`{"room":"lobby"}`))
	req.NoError(err)

	_, err = mv.Validate(KindJoin, json.RawMessage(`{"room":""}`))
	req.Error(err)

	long := make([]byte, 60)
	for i := range long {
		long[i] = 'a'
	}
	_, err = mv.Validate(KindJoin, json.RawMessage(`{"room":"`+string(long)+`"}`))
	req.Error(err)
}

func TestErrorStrings(t *testing.T) {
	req := require.New(t)

	schema := &SchemaError{Kind: KindSay, Violations: []string{"a", "b"}}
	req.Contains(schema.Error(), "a; b")

	malformed := &MalformedError{Kind: KindSay, Detail: "boom"}
	req.True(errors.As(error(malformed), new(*MalformedError)))
	req.Contains(malformed.Error(), "say")
}
