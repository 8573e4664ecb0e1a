// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

package ctlapi

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/probechain/go-rulectl/internal/rlog"
)

// hub fans out committed control-action events to every subscribed
// /actions/stream websocket client.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	log     rlog.Logger
}

func newHub(log rlog.Logger) *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte), log: log}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// broadcast fans payload out to every connected client, dropping it for
// a client whose send buffer is full rather than blocking the caller.
func (h *hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.log.Warn("dropping action event for slow stream subscriber", "remote", conn.RemoteAddr())
		}
	}
}
