package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

func newFloodSession() *Session {
	return newSession(nil, &fakeConn{id: "bob"})
}

func TestFloodGuardUngovernedKindAlwaysAllows(t *testing.T) {
	req := require.New(t)
	g := NewFloodGuard(map[protocol.Kind]domain.FloodRule{})
	s := newFloodSession()

	for i := 0; i < 100; i++ {
		_, ok := g.Check(s, protocol.KindMove)
		req.True(ok)
	}
	// No counter is ever created for an ungoverned kind.
	req.Empty(s.flood)
}

func TestFloodGuardWindow(t *testing.T) {
	req := require.New(t)
	const window = 10 * time.Second

	g := NewFloodGuard(map[protocol.Kind]domain.FloodRule{
		protocol.KindSay: {ResetInterval: window, MaxUpdates: 3, ErrorMessage: "stop"},
	})
	now := time.Unix(1000, 0)
	g.now = func() time.Time { return now }
	s := newFloodSession()

	// Three within the window pass.
	for i := 0; i < 3; i++ {
		_, ok := g.Check(s, protocol.KindSay)
		req.True(ok, "send %d", i+1)
	}

	// The fourth blocks and pushes resetAt a full window past the block.
	now = now.Add(5 * time.Second)
	rule, ok := g.Check(s, protocol.KindSay)
	req.False(ok)
	req.Equal("stop", rule.ErrorMessage)
	req.Equal(now.Add(window), s.flood[protocol.KindSay].resetAt)

	// Still inside the extended window: blocked again, penalty extends further.
	now = now.Add(9 * time.Second)
	_, ok = g.Check(s, protocol.KindSay)
	req.False(ok)
	req.Equal(now.Add(window), s.flood[protocol.KindSay].resetAt)

	// Past the extended deadline the counter starts fresh at 1.
	now = now.Add(window + time.Second)
	_, ok = g.Check(s, protocol.KindSay)
	req.True(ok)
	req.Equal(1, s.flood[protocol.KindSay].count)
}

func TestFloodGuardResetsOnSchedule(t *testing.T) {
	req := require.New(t)
	g := NewFloodGuard(map[protocol.Kind]domain.FloodRule{
		protocol.KindName: {ResetInterval: time.Second, MaxUpdates: 1, ErrorMessage: "calm down"},
	})
	now := time.Unix(2000, 0)
	g.now = func() time.Time { return now }
	s := newFloodSession()

	_, ok := g.Check(s, protocol.KindName)
	req.True(ok)
	_, ok = g.Check(s, protocol.KindName)
	req.False(ok)

	// A polite sender recovers after the window lapses.
	now = now.Add(2 * time.Second)
	_, ok = g.Check(s, protocol.KindName)
	req.True(ok)
}

func TestFloodGuardCountersArePerKind(t *testing.T) {
	req := require.New(t)
	g := NewFloodGuard(map[protocol.Kind]domain.FloodRule{
		protocol.KindSay:  {ResetInterval: time.Minute, MaxUpdates: 1, ErrorMessage: "a"},
		protocol.KindName: {ResetInterval: time.Minute, MaxUpdates: 1, ErrorMessage: "b"},
	})
	s := newFloodSession()

	_, ok := g.Check(s, protocol.KindSay)
	req.True(ok)
	_, ok = g.Check(s, protocol.KindName)
	req.True(ok)
	_, ok = g.Check(s, protocol.KindSay)
	req.False(ok)
	// name still has budget; say being blocked is say's problem.
	req.Equal(2, s.flood[protocol.KindSay].count)
	req.Equal(1, s.flood[protocol.KindName].count)
}
