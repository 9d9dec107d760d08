// Package signal adapts gorilla/websocket connections to the core's
// transport interface: one read pump, one write pump and a buffered
// outbound queue per connection.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/frojs/relay/internal/core"
	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

var ErrBackpressure = errors.New("backpressure")

const sendQueueSize = 32

type Controller struct {
	Registry *core.DomainRegistry
}

func NewController(reg *core.DomainRegistry) *Controller {
	return &Controller{Registry: reg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn implements core.Conn over one websocket. Frames are queued on
// send; a full queue drops the frame rather than stalling the fan-out.
type wsConn struct {
	id   core.SessionID
	addr string
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) ID() core.SessionID { return c.id }
func (c *wsConn) RemoteAddr() string { return c.addr }

func (c *wsConn) Emit(kind protocol.Kind, v any) error {
	frame, err := encodeEnvelope(kind, v)
	if err != nil {
		return err
	}
	return c.trySend(frame)
}

func (c *wsConn) trySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and binds the connection to the
// Domain owning the namespace in the path. Unknown namespaces are turned
// away here; the core never sees them.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ns := domain.Namespace(c.Param("ns"))
	d, ok := ctl.Registry.Lookup(ns)
	if !ok {
		log.Warn().Str("module", "signal").Str("ns", string(ns)).Msg("unknown namespace")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("ns", string(ns)).
		Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		id:   sid,
		addr: c.ClientIP(),
		conn: ws,
		send: make(chan []byte, sendQueueSize),
	}

	sess := d.OnConnect(conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, d, sess, conn)
	}()
}
