package heartbeat

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "filedeck/websocket"
)

type recordingWriter struct {
	mutex    sync.Mutex
	messages []*ws.ServiceMessage
}

func (w *recordingWriter) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.messages = append(w.messages, v.(*ws.ServiceMessage))
	return nil
}

func (w *recordingWriter) all() []*ws.ServiceMessage {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return append([]*ws.ServiceMessage(nil), w.messages...)
}

func TestName(t *testing.T) {
	assert.Equal(t, "heartbeat", NewService().Name())
}

func TestPing(t *testing.T) {
	writer := &recordingWriter{}
	service := NewService()
	service.conn = writer

	service.HandleTextMessage("probe-1", pingAction, json.RawMessage(`{}`))

	messages := writer.all()
	require.Len(t, messages, 1)
	assert.Equal(t, "heartbeat", messages[0].Service)
	assert.Equal(t, "probe-1", messages[0].Id)
	assert.Equal(t, pongAction, messages[0].Action)
}

func TestIgnoresUnknownActions(t *testing.T) {
	writer := &recordingWriter{}
	service := NewService()
	service.conn = writer

	service.HandleTextMessage("probe-2", "flood", nil)

	assert.Empty(t, writer.all())
}

func TestCleanup(t *testing.T) {
	service := NewService()
	service.Cleanup(nil)
	service.Cleanup(errors.New("connection reset"))
}
