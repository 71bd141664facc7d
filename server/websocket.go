// File: server/websocket.go
package server

import (
	"io"

	"golang.org/x/net/websocket"

	"github.com/protean-io/protean/universal"
)

// subscribeCommand is what a websocket client may send while subscribed: a
// free-text transformation aimed at one actor. Results show up on the same
// socket as transformed / transform_failed events.
type subscribeCommand struct {
	Target      string `json:"target"`
	Description string `json:"description"`
}

// HandleSubscribe streams every event-log entry to the client as JSON and
// accepts transform commands on the same connection.
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		remote := ws.Request().RemoteAddr
		s.logger.Info().Str("remote", remote).Msg("subscriber connected")

		events := s.sys.Store.Subscribe(64)
		done := make(chan struct{})

		defer func() {
			s.sys.Store.Unsubscribe(events)
			_ = ws.Close()
			s.logger.Info().Str("remote", remote).Msg("subscriber disconnected")
		}()

		go func() {
			for {
				select {
				case entry := <-events:
					if err := websocket.JSON.Send(ws, entry); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		s.readLoop(ws)
		close(done)
	}
}

// readLoop consumes commands until the client goes away.
func (s *Server) readLoop(ws *websocket.Conn) {
	for {
		var cmd subscribeCommand
		err := websocket.JSON.Receive(ws, &cmd)
		if err != nil {
			if err != io.EOF {
				s.logger.Debug().Err(err).Msg("subscriber read ended")
			}
			return
		}
		if cmd.Target == "" || cmd.Description == "" {
			continue
		}

		pid := s.sys.Engine.Lookup(cmd.Target)
		if pid == nil {
			continue // outcome is observable as the absence of events
		}
		s.sys.Engine.Send(pid, universal.TransformViaDescription{Description: cmd.Description}, nil)
	}
}
