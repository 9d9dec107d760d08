package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/frojs/relay/internal/core"
	"github.com/frojs/relay/internal/protocol"
)

const writeDeadline = 5 * time.Second

func encodeEnvelope(kind protocol.Kind, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.Envelope{Type: kind, Data: data})
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ctx done")
			return
		case frame, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump feeds inbound frames into the owning domain until the peer
// goes away, then runs the disconnect path exactly once.
func (ctl *Controller) readPump(ctx context.Context, d *core.Domain, sess *core.Session, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		d.OnDisconnect(c.id)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(d, sess, c, data)
		}
	}
}

func (ctl *Controller) handleFrame(d *core.Domain, sess *core.Session, c *wsConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad frame")
		return
	}
	d.Dispatch(sess, env.Type, env.Data)
}
