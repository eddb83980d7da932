package sync

import (
	"encoding/json"
	"sync"

	"filedeck/logging"
	ws "filedeck/websocket"
)

const statusAction = "status"

type jsonWriter interface {
	WriteJSON(v any) error
}

// SyncService relays engine transitions to one connection and answers
// on-demand status queries.
type SyncService struct {
	conn   jsonWriter
	engine *Engine
	ch     chan Status
	stop   sync.Once
}

func NewService(engine *Engine) *SyncService {
	return &SyncService{engine: engine}
}

func (s *SyncService) Name() string {
	return "sync"
}

func (s *SyncService) Register(conn *ws.Conn) {
	s.start(conn)
}

func (s *SyncService) start(w jsonWriter) {
	s.conn = w
	s.ch = s.engine.Subscribe()
	go s.pump()
}

func (s *SyncService) Cleanup(err error) {
	s.stop.Do(func() {
		if s.ch != nil {
			s.engine.Unsubscribe(s.ch)
		}
	})
}

func (s *SyncService) HandleTextMessage(id, action string, data json.RawMessage) {
	if action != statusAction {
		logging.S().Debugw("unknown sync action", "action", action)
		return
	}
	s.push(id, s.engine.Status())
}

func (s *SyncService) pump() {
	for status := range s.ch {
		s.push("", status)
	}
}

func (s *SyncService) push(id string, status Status) {
	data, err := json.Marshal(status)
	if err != nil {
		logging.S().Warnw("failed to encode sync status", "error", err)
		return
	}
	msg := &ws.ServiceMessage{Service: s.Name(), Id: id, Action: statusAction, Data: data}
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.S().Warnw("failed to push sync status", "error", err)
	}
}
