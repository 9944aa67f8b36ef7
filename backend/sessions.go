package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/admin"
	"gitea.kood.tech/petrkubec/staff-directory/backend/directory"
	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// ClientEvent is a UI event sent by a screen client.
type ClientEvent struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Interest string `json:"interest,omitempty"`
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "view" | "notice" | "error"
	Data any    `json:"data,omitempty"`
}

// screen adapts admin.Screen and directory.Screen to one websocket session.
type screen interface {
	load(ctx context.Context) error
	handle(ctx context.Context, evt ClientEvent) error
	view() any
	takeNotice() (any, bool)
}

// Client represents one websocket screen session. Each session owns its
// screen and cache.
type Client struct {
	kind   string
	conn   *websocket.Conn
	send   chan ServerEvent
	screen screen
	logger *zap.Logger
}

// Hub tracks live sessions so shutdown can close them.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func newHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll sends a close frame to every session; their readers then exit.
func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin
			return origin == "" || allowed[origin]
		},
	}
}

// GET /ws/admin and /ws/directory
func wsScreenHandler(kind string, hub *Hub, upgrader websocket.Upgrader, newScreen func() screen, logger *zap.Logger) http.HandlerFunc {
	logger = logger.With(zap.String("session", kind))
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("ws upgrade error", zap.Error(err))
			return
		}

		client := &Client{
			kind:   kind,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
			screen: newScreen(),
			logger: logger,
		}
		hub.register(client)
		logger.Debug("session opened", zap.String("remote", r.RemoteAddr))

		// Start writer
		go clientWriter(client)
		// Start reader (blocks)
		clientReader(r.Context(), client, hub)
	}
}

func clientReader(ctx context.Context, c *Client, hub *Hub) {
	defer func() {
		hub.unregister(c)
		close(c.send)
		c.logger.Debug("session closed")
	}()

	// The first view shows the loading state; the fetch result follows.
	c.send <- ServerEvent{Type: "view", Data: c.screen.view()}
	_ = c.screen.load(ctx)
	c.flush(nil)

	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var evt ClientEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			c.send <- ServerEvent{Type: "error", Data: "invalid message format"}
			continue
		}
		c.flush(c.screen.handle(ctx, evt))
	}
}

// flush sends the pending notice, any error the user has not already been
// told about and the fresh view.
func (c *Client) flush(err error) {
	n, hasNotice := c.screen.takeNotice()
	if hasNotice {
		c.send <- ServerEvent{Type: "notice", Data: n}
	}
	if err != nil && !hasNotice {
		c.logger.Debug("event rejected", zap.Error(err))
		c.send <- ServerEvent{Type: "error", Data: err.Error()}
	}
	c.send <- ServerEvent{Type: "view", Data: c.screen.view()}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				// Keep draining so the reader never blocks on a dead writer
				for range c.send {
				}
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				for range c.send {
				}
				return
			}
		}
	}
}

var errUnknownEvent = errors.New("unknown event type")

type adminSession struct {
	s *admin.Screen
}

func newAdminSession(st store.ProfileStore, logger *zap.Logger) func() screen {
	return func() screen { return adminSession{s: admin.NewScreen(st, logger)} }
}

func (a adminSession) load(ctx context.Context) error { return a.s.Load(ctx) }
func (a adminSession) view() any                      { return a.s.View() }

func (a adminSession) takeNotice() (any, bool) {
	n, ok := a.s.TakeNotice()
	return n, ok
}

func (a adminSession) handle(ctx context.Context, evt ClientEvent) error {
	switch evt.Type {
	case "search":
		return a.s.SetSearch(evt.Value)
	case "toggle_sort":
		return a.s.ToggleSortOrder()
	case "add":
		return a.s.OpenCreate()
	case "edit":
		return a.s.OpenEdit(evt.ID)
	case "field":
		if !profile.IsKnownField(evt.Field) {
			return errors.New("unknown field " + evt.Field)
		}
		return a.s.SetField(evt.Field, evt.Value)
	case "cancel":
		return a.s.Cancel()
	case "submit":
		return a.s.Submit(ctx)
	case "delete":
		return a.s.Delete(ctx, evt.ID)
	case "reload":
		return a.s.Load(ctx)
	}
	return errUnknownEvent
}

type directorySession struct {
	s *directory.Screen
}

func newDirectorySession(st store.ProfileStore, logger *zap.Logger) func() screen {
	return func() screen { return directorySession{s: directory.NewScreen(st, logger)} }
}

// A failed fetch still leaves the directory browsing, so load never fails the session.
func (d directorySession) load(ctx context.Context) error {
	_ = d.s.Load(ctx)
	return nil
}

func (d directorySession) view() any               { return d.s.View() }
func (d directorySession) takeNotice() (any, bool) { return nil, false }

func (d directorySession) handle(_ context.Context, evt ClientEvent) error {
	switch evt.Type {
	case "search":
		return d.s.SetSearch(evt.Value)
	case "filter":
		return d.s.SetInterest(evt.Interest)
	case "sort":
		return d.s.SetSortField(pipeline.SortField(evt.Field))
	case "toggle_sort":
		return d.s.ToggleSortOrder()
	case "toggle_map":
		return d.s.ToggleMap(evt.ID)
	case "select":
		return d.s.Select(evt.ID)
	case "close":
		return d.s.Close()
	}
	return errUnknownEvent
}
