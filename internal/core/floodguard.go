package core

import (
	"time"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

// floodCounter tracks one session's traffic for one message kind.
// Counters exist only for kinds the session has actually sent.
type floodCounter struct {
	count   int
	resetAt time.Time
}

// FloodGuard throttles per-session, per-kind message frequency. Counters
// live on the session, so no cross-session locking is needed; the guard
// itself only carries the rules.
//
// A blocked sender has its resetAt pushed a full window past the block,
// so hammering while blocked delays recovery instead of resetting on
// schedule. A persistent enough sender can extend its own block forever.
type FloodGuard struct {
	rules map[protocol.Kind]domain.FloodRule
	now   func() time.Time
}

func NewFloodGuard(rules map[protocol.Kind]domain.FloodRule) *FloodGuard {
	return &FloodGuard{rules: rules, now: time.Now}
}

// Check records one attempt to send kind and reports whether it may go
// through. For governed kinds the returned rule carries the error text
// to send back on a block.
func (g *FloodGuard) Check(s *Session, kind protocol.Kind) (domain.FloodRule, bool) {
	rule, governed := g.rules[kind]
	if !governed {
		return rule, true
	}

	now := g.now()
	c, ok := s.flood[kind]
	if !ok || now.After(c.resetAt) {
		s.flood[kind] = &floodCounter{count: 1, resetAt: now.Add(rule.ResetInterval)}
		return rule, true
	}

	c.count++
	if c.count > rule.MaxUpdates {
		c.resetAt = now.Add(rule.ResetInterval)
		return rule, false
	}
	return rule, true
}
