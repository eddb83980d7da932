package websocket

import (
	"encoding/json"
)

// Service is one multiplexed message handler on a connection. Register is
// called once before any message arrives; Cleanup once after the
// connection dies.
type Service interface {
	HandleTextMessage(id string, action string, data json.RawMessage)
	Name() string
	Cleanup(err error)
	Register(conn *Conn)
}

// ServiceMessage is the wire envelope shared by every service.
type ServiceMessage struct {
	Service string          `json:"service"`
	Id      string          `json:"id,omitempty"`
	Action  string          `json:"action,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}
