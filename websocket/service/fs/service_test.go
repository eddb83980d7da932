package fs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filedeck/vfs"
	ws "filedeck/websocket"
)

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) ListDirectory(virtualPath string) ([]vfs.FileEntry, error) {
	args := m.Called(virtualPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vfs.FileEntry), args.Error(1)
}

func (m *mockNavigator) Shortcuts() []vfs.Shortcut {
	args := m.Called()
	return args.Get(0).([]vfs.Shortcut)
}

func (m *mockNavigator) Copy(sources []string, destination string) (*vfs.OperationResult, error) {
	args := m.Called(sources, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vfs.OperationResult), args.Error(1)
}

func (m *mockNavigator) Move(sources []string, destination string) (*vfs.OperationResult, error) {
	args := m.Called(sources, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vfs.OperationResult), args.Error(1)
}

func (m *mockNavigator) Delete(targets []string) (*vfs.OperationResult, error) {
	args := m.Called(targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vfs.OperationResult), args.Error(1)
}

type recordingWriter struct {
	messages chan *ws.ServiceMessage
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{messages: make(chan *ws.ServiceMessage, 10)}
}

func (w *recordingWriter) WriteJSON(v any) error {
	w.messages <- v.(*ws.ServiceMessage)
	return nil
}

func (w *recordingWriter) next(t *testing.T) *ws.ServiceMessage {
	t.Helper()
	select {
	case msg := <-w.messages:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no websocket message received")
		return nil
	}
}

func newTestService() (*FSService, *mockNavigator, *recordingWriter) {
	nav := new(mockNavigator)
	writer := newRecordingWriter()
	service := NewService(nav)
	service.conn = writer
	return service, nav, writer
}

func TestHandleList(t *testing.T) {
	t.Run("returns entries", func(t *testing.T) {
		service, nav, writer := newTestService()

		size := int64(12)
		entries := []vfs.FileEntry{
			{
				ID:      "abc",
				Name:    "a.txt",
				Type:    vfs.KindFile,
				Size:    &size,
				Path:    "local://Desktop/a.txt",
				Service: vfs.SchemeLocal.String(),
			},
		}
		nav.On("ListDirectory", "local://Desktop/").Return(entries, nil)

		service.HandleTextMessage("1", listAction, json.RawMessage(`{"path":"local://Desktop/"}`))

		msg := writer.next(t)
		assert.Equal(t, "fs", msg.Service)
		assert.Equal(t, "1", msg.Id)
		assert.Equal(t, listAction, msg.Action)
		assert.Empty(t, msg.Error)

		var d listData
		require.NoError(t, json.Unmarshal(msg.Data, &d))
		assert.Equal(t, "local://Desktop/", d.Path)
		assert.Equal(t, entries, d.Entries)
	})

	t.Run("reports invalid path in the error field", func(t *testing.T) {
		service, nav, writer := newTestService()

		nav.On("ListDirectory", "ftp://nope").Return(nil, vfs.ErrInvalidPath)

		service.HandleTextMessage("2", listAction, json.RawMessage(`{"path":"ftp://nope"}`))

		msg := writer.next(t)
		assert.Equal(t, "2", msg.Id)
		assert.Contains(t, msg.Error, "invalid virtual path")
		assert.Empty(t, msg.Data)
	})
}

func TestHandleShortcuts(t *testing.T) {
	service, nav, writer := newTestService()

	shortcuts := []vfs.Shortcut{
		{Name: "Desktop", Path: "local://Desktop"},
		{Name: "This PC", Path: "local://This PC"},
	}
	nav.On("Shortcuts").Return(shortcuts)

	service.HandleTextMessage("3", shortcutsAction, nil)

	msg := writer.next(t)
	assert.Equal(t, shortcutsAction, msg.Action)

	var d shortcutsData
	require.NoError(t, json.Unmarshal(msg.Data, &d))
	assert.Equal(t, shortcuts, d.Shortcuts)
}

func TestHandleTransfer(t *testing.T) {
	t.Run("copy returns the operation result", func(t *testing.T) {
		service, nav, writer := newTestService()

		result := &vfs.OperationResult{
			Success: true,
			Items: []vfs.TransferItem{
				{Source: "local://Desktop/a.txt", Destination: "local://Documents/a.txt"},
			},
		}
		nav.On("Copy", []string{"local://Desktop/a.txt"}, "local://Documents/").Return(result, nil)

		service.HandleTextMessage("4", copyAction,
			json.RawMessage(`{"sources":["local://Desktop/a.txt"],"destination":"local://Documents/"}`))

		msg := writer.next(t)
		assert.Equal(t, copyAction, msg.Action)

		var got vfs.OperationResult
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, *result, got)
		nav.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
	})

	t.Run("move dispatches to Move", func(t *testing.T) {
		service, nav, writer := newTestService()

		result := &vfs.OperationResult{Success: true}
		nav.On("Move", []string{"local://Desktop/a.txt"}, "local://Documents/").Return(result, nil)

		service.HandleTextMessage("5", moveAction,
			json.RawMessage(`{"sources":["local://Desktop/a.txt"],"destination":"local://Documents/"}`))

		msg := writer.next(t)
		assert.Equal(t, moveAction, msg.Action)
		assert.Empty(t, msg.Error)
		nav.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything)
	})

	t.Run("failed transfer reports the error", func(t *testing.T) {
		service, nav, writer := newTestService()

		nav.On("Copy", []string{"local://Desktop/proj"}, "local://Desktop/proj/sub/").
			Return(nil, vfs.ErrSelfContainment)

		service.HandleTextMessage("6", copyAction,
			json.RawMessage(`{"sources":["local://Desktop/proj"],"destination":"local://Desktop/proj/sub/"}`))

		msg := writer.next(t)
		assert.Contains(t, msg.Error, "destination is inside source")
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("returns deleted items", func(t *testing.T) {
		service, nav, writer := newTestService()

		result := &vfs.OperationResult{
			Success: true,
			Items:   []vfs.TransferItem{{Source: "local://Desktop/old.txt"}},
		}
		nav.On("Delete", []string{"local://Desktop/old.txt"}).Return(result, nil)

		service.HandleTextMessage("7", deleteAction,
			json.RawMessage(`{"targets":["local://Desktop/old.txt"]}`))

		msg := writer.next(t)
		assert.Equal(t, deleteAction, msg.Action)

		var got vfs.OperationResult
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.True(t, got.Success)
	})

	t.Run("empty targets report the error", func(t *testing.T) {
		service, nav, writer := newTestService()

		nav.On("Delete", []string{}).Return(nil, vfs.ErrNoInput)

		service.HandleTextMessage("8", deleteAction, json.RawMessage(`{"targets":[]}`))

		msg := writer.next(t)
		assert.Contains(t, msg.Error, "no input paths")
	})
}

func TestMalformedPayload(t *testing.T) {
	service, _, writer := newTestService()

	service.HandleTextMessage("9", copyAction, json.RawMessage(`{"sources":`))

	msg := writer.next(t)
	assert.Equal(t, "9", msg.Id)
	assert.NotEmpty(t, msg.Error)
}
