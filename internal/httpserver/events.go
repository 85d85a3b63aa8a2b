package httpserver

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/game"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second
	sendBufSize = 256
)

// handleEvents upgrades to a websocket and streams the round's events as
// JSON, starting with a "snapshot" message. The stream closes after the
// round ends or when the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.round(w, r)
	if !ok {
		return
	}
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}

	send := make(chan game.Event, sendBufSize)
	cancel := rd.Subscribe(game.ListenerFunc(func(e game.Event) {
		// Never block the countdown on a slow client.
		select {
		case send <- e:
		default:
			log.Warn().Str("roundId", rd.ID()).Msg("event dropped for slow client")
		}
	}))
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	log.Debug().Str("roundId", rd.ID()).Msg("event stream opened")
	writePump(conn, rd, send, done)
	log.Debug().Str("roundId", rd.ID()).Msg("event stream closed")
}

// readPump discards client messages and closes done when the peer leaves.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to conn.
func writePump(conn *websocket.Conn, rd *game.Round, send <-chan game.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	write := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v) == nil
	}
	if !write(game.Event{Kind: "snapshot", Snapshot: rd.Snapshot()}) {
		return
	}
	if rd.State() == game.StateEnded {
		closeNormal(conn)
		return
	}

	for {
		select {
		case <-done:
			return
		case e := <-send:
			if !write(e) {
				return
			}
			if e.Kind == game.EventEnded {
				closeNormal(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "round ended")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// checkOrigin admits the configured client origin and same-host pages.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}
