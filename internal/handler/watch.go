package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const watchWriteTimeout = 5 * time.Second

// HandleWatchSession streams the session view over a WebSocket: once on connect and again after
// every change. The stream ends when the client goes away or the session is removed.
func (d *Dependencies) HandleWatchSession(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	log := d.log(r).With().Str("session_id", s.ID()).Logger()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	// Client messages are not expected; CloseRead cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())

	for {
		changed := s.Changed()
		if _, alive := d.Sessions.Get(s.ID()); !alive {
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}

		wctx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
		err := wsjson.Write(wctx, conn, s.Snapshot())
		cancel()
		if err != nil {
			log.Debug().Err(err).Msg("watch stream ended")
			return
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-changed:
		}
	}
}
