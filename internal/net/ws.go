package net

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/saiputravu/lobex/internal/common"
)

// Outbound execution push (spec §6 "subscribers"), adapted from the
// hub/client broadcast pattern used for real-time market data in the
// retrieved pack's crypto-browser and perp-dex repos. JSON, not the
// hand-packed binary wire format above: this is the one boundary the
// retrieved pack consistently serves over a websocket with JSON frames
// rather than TCP.
const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ExecutionPush is the JSON frame pushed to websocket subscribers for every
// fee-annotated execution.
type ExecutionPush struct {
	ExecID          string `json:"exec_id"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`
	Price           int64  `json:"price"`
	Quantity        uint64 `json:"quantity"`
	Fee             string `json:"fee"`
	TransactionUnix int64  `json:"transaction_unix"`
}

// Hub fans execution pushes out to every connected websocket client.
type Hub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	clients    map[*wsClient]bool
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, wsSendBuffer),
		clients:    make(map[*wsClient]bool),
	}
}

// Run drives the hub's registration/broadcast loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// BridgeExecutions subscribes to a market-data feed's execution stream and
// republishes each as a JSON frame on the hub, until ctx is cancelled.
func (h *Hub) BridgeExecutions(ctx context.Context, executions <-chan common.Execution) {
	for {
		select {
		case <-ctx.Done():
			return
		case exec := <-executions:
			push := ExecutionPush{
				ExecID:          exec.ExecID,
				Symbol:          exec.Symbol,
				Side:            exec.AggressorSide.String(),
				Price:           exec.Price,
				Quantity:        exec.Quantity,
				Fee:             exec.Fee,
				TransactionUnix: exec.TransactionTime.Unix(),
			}
			body, err := json.Marshal(push)
			if err != nil {
				log.Error().Err(err).Msg("marshalling execution push")
				continue
			}
			select {
			case h.broadcast <- body:
			default:
				log.Warn().Msg("websocket broadcast buffer full, dropping push")
			}
		}
	}
}

// wsClient is one connected websocket subscriber.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it with the hub for execution pushes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound client traffic (this is a push-only feed) but
// keeps the read deadline alive via pong handling, mirroring the pack's
// hub/client idiom.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
