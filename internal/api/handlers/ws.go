// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSession is an upgraded connection that only writes. Its reader exists to
// answer pings and notice the client leaving.
type wsSession struct {
	conn *websocket.Conn
	gone chan struct{} // closed once the client disconnects
}

// upgrade switches the request to a WebSocket and starts close detection.
// On failure the upgrader has already answered the request.
func upgrade(w http.ResponseWriter, r *http.Request) (*wsSession, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, false
	}

	s := &wsSession{conn: conn, gone: make(chan struct{})}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Read goroutine (for close detection)
	go func() {
		defer close(s.gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return s, true
}

// Close closes the connection.
func (s *wsSession) Close() {
	s.conn.Close()
}

// pump writes a frame per value received on ch, pinging between values,
// until ch closes, a write fails or the client goes away. frame returning
// false skips the value.
func pump[T any](s *wsSession, ch <-chan T, frame func(T) (interface{}, bool)) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			msg, send := frame(v)
			if !send {
				continue
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.gone:
			return
		}
	}
}
