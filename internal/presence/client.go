package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"talks/internal/domain"
	"talks/internal/events"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
	cleanupTimeout = 5 * time.Second
)

// Client is a websocket Channel with a read pump and a write pump.
type Client struct {
	conn    *websocket.Conn
	tracker *Tracker
	userID  domain.UserID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Serve registers conn as userID's channel and starts its pumps. It returns
// immediately.
func Serve(t *Tracker, conn *websocket.Conn, userID domain.UserID) *Client {
	c := &Client{
		conn:    conn,
		tracker: t,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
	t.Connect(userID, c)
	go c.writePump()
	go c.readPump()
	return c
}

// Send never blocks; a full queue means the peer is too slow and the
// connection is closed.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("push queue full, closing channel", "user_id", c.userID)
		c.Close()
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readPump() {
	defer func() {
		c.Close()
		_ = c.conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		c.tracker.Disconnect(ctx, c.userID, c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("push channel read error", "user_id", c.userID, "error", err)
			}
			return
		}

		var f events.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		if f.Event == events.UserLogout {
			ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
			c.tracker.Logout(ctx, c.userID, c)
			cancel()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
