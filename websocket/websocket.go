package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"

	"filedeck/logging"
	"filedeck/metrics"
)

// Conn wraps a gorilla connection with a write lock and per-kind inbound
// channels. One reader goroutine feeds the channels; writers share the
// mutex.
type Conn struct {
	*ws.Conn
	*sync.Mutex

	TextMessage   chan *ServiceMessage
	BinaryMessage chan []byte
	// BinaryChan carries the channel of whichever service expects the
	// next binary frame. Services send their own receive channel here
	// right before the client sends the frame.
	BinaryChan chan chan []byte
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewConn upgrades the request and initializes the connection channels.
func NewConn(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.S().Errorw("websocket upgrade failed", "error", err)
		return nil, err
	}
	metrics.AddWSConnection(1)

	return &Conn{
		Conn:          conn,
		Mutex:         new(sync.Mutex),
		TextMessage:   make(chan *ServiceMessage, 10),
		BinaryMessage: make(chan []byte, 10),
		BinaryChan:    make(chan chan []byte),
	}, nil
}

func (c *Conn) WriteJSON(v any) error {
	c.Lock()
	err := c.Conn.WriteJSON(v)
	c.Unlock()

	if err != nil {
		logging.S().Warnw("websocket write failed", "error", err)
	}
	return err
}

func (c *Conn) WriteBinary(data []byte) error {
	c.Lock()
	err := c.Conn.WriteMessage(ws.BinaryMessage, data)
	c.Unlock()

	if err != nil {
		logging.S().Warnw("websocket binary write failed", "error", err)
	}
	return err
}

// StartDispatch reads frames until the connection dies, routing them into
// the channels. The channels are closed before it returns.
func (c *Conn) StartDispatch() error {
	defer metrics.AddWSConnection(-1)

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			close(c.TextMessage)
			close(c.BinaryMessage)
			return err
		}

		if msgType == ws.BinaryMessage {
			c.BinaryMessage <- data
			continue
		}

		var msg ServiceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.S().Warnw("dropping malformed message", "error", err)
			continue
		}
		c.TextMessage <- &msg
	}
}
