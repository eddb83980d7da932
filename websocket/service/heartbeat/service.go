// Package heartbeat answers keep-alive probes on the websocket channel.
// The service registers as passive, so probes never reset the idle timeout.
package heartbeat

import (
	"encoding/json"

	"filedeck/logging"
	ws "filedeck/websocket"
)

const (
	pingAction = "ping"
	pongAction = "pong"
)

type jsonWriter interface {
	WriteJSON(v any) error
}

type HeartbeatService struct {
	conn jsonWriter
}

func NewService() *HeartbeatService {
	return &HeartbeatService{}
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) Register(conn *ws.Conn) {
	s.conn = conn
}

func (s *HeartbeatService) Cleanup(err error) {}

func (s *HeartbeatService) HandleTextMessage(id, action string, data json.RawMessage) {
	if action != pingAction {
		logging.S().Debugw("unknown heartbeat action", "action", action)
		return
	}

	msg := &ws.ServiceMessage{Service: s.Name(), Id: id, Action: pongAction}
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.S().Warnw("failed to answer heartbeat", "error", err)
	}
}
