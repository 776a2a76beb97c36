package main

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// socketHub tracks which websocket connection owns each session's duplex
// channel, and implements browser.PushFunc by writing outbound
// FRONTEND_TOOL_CALL envelopes as text frames on that connection.
type socketHub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

func newSocketHub() *socketHub {
	return &socketHub{conns: make(map[string]*websocket.Conn)}
}

func (h *socketHub) attach(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = conn
}

func (h *socketHub) detach(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, sessionID)
}

// push implements browser.PushFunc.
func (h *socketHub) push(sessionID string, envelopeJSON string) error {
	h.mu.RLock()
	conn := h.conns[sessionID]
	h.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("sockethub: no browser client attached for session %q", sessionID)
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(envelopeJSON))
}
