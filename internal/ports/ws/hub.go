// Package ws streams game snapshots to websocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"blokus/internal/app"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"nhooyr.io/websocket"
)

const (
	sendBuffer   = 32
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// Msg is the envelope of every frame sent to subscribers.
type Msg struct {
	T string      `json:"t"`
	M interface{} `json:"m,omitempty"`
}

// SnapshotSource loads the current state of a game.
type SnapshotSource interface {
	GetState(ctx context.Context, gameID string) (*app.Snapshot, error)
}

type client struct {
	id     string
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans out snapshots and events to the subscribers of each game.
type Hub struct {
	source       SnapshotSource
	logger       runtime.Logger
	allowOrigins map[string]bool

	mu    sync.RWMutex
	games map[string]map[*client]struct{}
}

// NewHub returns a hub. Requests with an Origin header must match allow.
func NewHub(source SnapshotSource, logger runtime.Logger, allow []string) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		source:       source,
		logger:       logger,
		allowOrigins: m,
		games:        map[string]map[*client]struct{}{},
	}
}

// ServeWS upgrades the request and subscribes it to gameID. The current snapshot is
// sent first; later frames arrive through Publish.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	snap, err := h.source.GetState(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, app.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		h.logger.WithField("game_id", gameID).Error("ws snapshot failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	c := &client{id: uuid.NewString(), gameID: gameID, conn: conn, send: make(chan []byte, sendBuffer)}
	logger := h.logger.WithFields(map[string]interface{}{"game_id": gameID, "client_id": c.id})
	c.send <- encode(Msg{T: "snapshot", M: snap})
	h.subscribe(c)
	logger.Debug("ws client subscribed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, c)

	// Inbound frames are ignored; reading keeps control frames flowing and detects close.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.unsubscribe(c)
	logger.Debug("ws client left")
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Publish sends the snapshot and broadcast events of a game to its subscribers.
// Slow subscribers drop frames rather than block the caller.
func (h *Hub) Publish(snap *app.Snapshot, events []app.Event) {
	if snap == nil {
		return
	}
	frames := make([][]byte, 0, len(events)+1)
	for _, ev := range events {
		if len(ev.Recipients) > 0 {
			continue
		}
		frames = append(frames, encode(Msg{T: string(ev.Kind), M: ev.Payload}))
	}
	frames = append(frames, encode(Msg{T: "snapshot", M: snap}))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.games[snap.GameID] {
		for _, f := range frames {
			select {
			case c.send <- f:
			default:
			}
		}
	}
}

// CloseGame notifies and disconnects every subscriber of a deleted game.
func (h *Hub) CloseGame(gameID string) {
	frame := encode(Msg{T: "game_deleted", M: map[string]string{"game_id": gameID}})

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.games[gameID] {
		deliverLast(c.send, frame)
		close(c.send)
	}
	delete(h.games, gameID)
}

// deliverLast queues frame as the final message of send, evicting the oldest queued
// frame when the buffer is full. The caller must be the only sender.
func deliverLast(send chan []byte, frame []byte) {
	select {
	case send <- frame:
		return
	default:
	}
	select {
	case <-send:
	default:
	}
	select {
	case send <- frame:
	default:
	}
}

// Subscribers counts the open subscriptions of a game.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

func (h *Hub) subscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.games[c.gameID]
	if !ok {
		set = map[*client]struct{}{}
		h.games[c.gameID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.games[c.gameID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.games, c.gameID)
	}
}

func encode(msg Msg) []byte {
	b, _ := json.Marshal(msg)
	return b
}
