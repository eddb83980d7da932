// Package events streams filesystem change notifications to the client so
// open folder views refresh without polling. The service is passive and
// purely push: it accepts no client actions.
package events

import (
	"encoding/json"
	"sync"

	changes "filedeck/events"
	"filedeck/logging"
	ws "filedeck/websocket"
)

const changeAction = "change"

type jsonWriter interface {
	WriteJSON(v any) error
}

type EventsService struct {
	conn        jsonWriter
	broadcaster *changes.Broadcaster
	ch          chan changes.Event
	stop        sync.Once
}

func NewService(broadcaster *changes.Broadcaster) *EventsService {
	return &EventsService{broadcaster: broadcaster}
}

func (s *EventsService) Name() string {
	return "events"
}

func (s *EventsService) Register(conn *ws.Conn) {
	s.start(conn)
}

func (s *EventsService) start(w jsonWriter) {
	s.conn = w
	s.ch = s.broadcaster.Subscribe()
	go s.pump()
}

func (s *EventsService) Cleanup(err error) {
	s.stop.Do(func() {
		if s.ch != nil {
			s.broadcaster.Unsubscribe(s.ch)
		}
	})
}

func (s *EventsService) HandleTextMessage(id, action string, data json.RawMessage) {
	logging.S().Debugw("events service ignores client actions", "action", action)
}

// pump runs until Cleanup closes the subscription channel.
func (s *EventsService) pump() {
	for event := range s.ch {
		data, err := json.Marshal(event)
		if err != nil {
			logging.S().Warnw("failed to encode change event", "error", err)
			continue
		}
		msg := &ws.ServiceMessage{Service: s.Name(), Action: changeAction, Data: data}
		if err := s.conn.WriteJSON(msg); err != nil {
			logging.S().Warnw("failed to push change event", "error", err)
		}
	}
}
