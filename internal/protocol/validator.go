package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/frojs/relay/internal/domain"
)

// ErrUnknownKind means no schema is registered for the message kind at
// all, as opposed to a payload that merely fails its schema.
var ErrUnknownKind = errors.New("unknown message kind")

// SchemaError reports every violated constraint of a payload, not just
// the first one found.
type SchemaError struct {
	Kind       Kind
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("message %q failed validation: %s",
		e.Kind, strings.Join(e.Violations, "; "))
}

// MalformedError is a type-level decode failure, before any schema rule
// gets a look (e.g. a number where a string belongs).
type MalformedError struct {
	Kind   Kind
	Detail string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %q payload: %s", e.Kind, e.Detail)
}

// registry is the closed set of validatable message kinds, fixed at init
// and read-only thereafter. typing is deliberately absent: it carries no
// payload and is always valid.
var registry = map[Kind]func() any{
	KindAuth:   func() any { return new(AuthPayload) },
	KindJoin:   func() any { return new(JoinPayload) },
	KindName:   func() any { return new(NamePayload) },
	KindSay:    func() any { return new(SayPayload) },
	KindMove:   func() any { return new(MovePayload) },
	KindAvatar: func() any { return new(AvatarPayload) },
}

// Validator gates inbound payloads against the registry.
type Validator struct {
	validate *validator.Validate
	enabled  bool
}

// NewValidator builds the gate. With enabled=false every structural check
// passes; decode still has to succeed for a handler to see typed fields.
func NewValidator(enabled bool) *Validator {
	v := validator.New()
	v.RegisterAlias("motioncode", "oneof="+strings.Join(domain.MotionCodes, " "))
	return &Validator{
		validate: v,
		enabled:  enabled,
	}
}

// Validate decodes raw into the payload struct registered for kind and,
// when validation is on, runs it through its structural schema. On success
// the returned value is the populated *XxxPayload for kind.
func (mv *Validator) Validate(kind Kind, raw json.RawMessage) (any, error) {
	proto, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	dst := proto()
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, &MalformedError{Kind: kind, Detail: decodeDetail(err)}
	}
	if !mv.enabled {
		return dst, nil
	}
	if err := mv.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := &SchemaError{Kind: kind, Violations: make([]string, 0, len(verrs))}
			for _, fe := range verrs {
				out.Violations = append(out.Violations, violation(fe))
			}
			return nil, out
		}
		return nil, &SchemaError{Kind: kind, Violations: []string{err.Error()}}
	}
	return dst, nil
}

// Known reports whether a schema is registered for kind.
func (mv *Validator) Known(kind Kind) bool {
	_, ok := registry[kind]
	return ok
}

func violation(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("field %q fails %q=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %q fails %q", fe.Field(), fe.Tag())
}

func decodeDetail(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		if te.Field != "" {
			return fmt.Sprintf("expected %s for field %q, got %s", te.Type, te.Field, te.Value)
		}
		return fmt.Sprintf("expected %s, got %s", te.Type, te.Value)
	}
	return err.Error()
}
