package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filedeck/events"
	"filedeck/vfs"
	ws "filedeck/websocket"
)

type recordingWriter struct {
	messages chan *ws.ServiceMessage
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{messages: make(chan *ws.ServiceMessage, 16)}
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

type uploadFixture struct {
	service     *UploadService
	writer      *recordingWriter
	binary      chan chan []byte
	desktop     string
	broadcaster *events.Broadcaster
}

func newFixture(t *testing.T) *uploadFixture {
	t.Helper()
	home := t.TempDir()
	desktop := filepath.Join(home, "Desktop")
	require.NoError(t, os.MkdirAll(desktop, 0755))

	folders := []vfs.SpecialFolder{
		{Label: "Desktop", VirtualPrefix: "local://Desktop", RealPath: desktop},
	}
	resolver := vfs.NewResolver(folders, vfs.NewDriveAliases(), nil, zap.NewNop().Sugar())

	f := &uploadFixture{
		writer:      newRecordingWriter(),
		binary:      make(chan chan []byte),
		desktop:     desktop,
		broadcaster: events.NewBroadcaster(),
	}
	f.service = NewService(resolver, f.broadcaster)
	f.service.start(f.writer, f.binary)
	t.Cleanup(func() { f.service.Cleanup(nil) })
	return f
}

// sendChunk plays both sides of the binary handshake: the chunk text
// message and the server loop handing over the next binary frame.
func (f *uploadFixture) sendChunk(t *testing.T, id string, progress int64, payload []byte) {
	t.Helper()
	delivered := make(chan struct{})
	go func() {
		ch := <-f.binary
		ch <- payload
		close(delivered)
	}()
	f.service.HandleTextMessage(id, chunkAction,
		json.RawMessage(fmt.Sprintf(`{"progress":%d}`, progress)))
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("binary frame was not claimed")
	}
}

func (f *uploadFixture) partFiles(t *testing.T) []string {
	t.Helper()
	parts, err := filepath.Glob(filepath.Join(f.desktop, ".upload-*.part"))
	require.NoError(t, err)
	return parts
}

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestUploadRoundTrip(t *testing.T) {
	f := newFixture(t)
	content := []byte("hello upload")

	sub := f.broadcaster.Subscribe()
	defer f.broadcaster.Unsubscribe(sub)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"notes.txt","size":12}`))

	ack := f.writer.next(t)
	assert.Equal(t, "upload", ack.Service)
	assert.Equal(t, startAction, ack.Action)
	assert.Empty(t, ack.Error)
	var started startResult
	require.NoError(t, json.Unmarshal(ack.Data, &started))
	assert.Equal(t, "notes.txt", started.Name)
	assert.Len(t, f.partFiles(t), 1)

	f.sendChunk(t, "u1", 0, content[:5])
	progress := f.writer.next(t)
	assert.Equal(t, chunkAction, progress.Action)
	var p chunkData
	require.NoError(t, json.Unmarshal(progress.Data, &p))
	assert.Equal(t, int64(5), p.Progress)

	f.sendChunk(t, "u1", 5, content[5:])
	progress = f.writer.next(t)
	require.NoError(t, json.Unmarshal(progress.Data, &p))
	assert.Equal(t, int64(12), p.Progress)

	f.service.HandleTextMessage("u1", completeAction,
		json.RawMessage(fmt.Sprintf(`{"digest":"%s"}`, digestOf(content))))

	done := f.writer.next(t)
	assert.Equal(t, completeAction, done.Action)
	assert.Empty(t, done.Error)
	var result completeResult
	require.NoError(t, json.Unmarshal(done.Data, &result))
	assert.Equal(t, "notes.txt", result.Name)
	assert.Equal(t, "local://Desktop/notes.txt", result.Path)

	written, err := os.ReadFile(filepath.Join(f.desktop, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, written)
	assert.Empty(t, f.partFiles(t))

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventCreated, ev.Type)
		assert.Equal(t, "local://Desktop/notes.txt", ev.Path)
		assert.Equal(t, "local", ev.Service)
	case <-time.After(time.Second):
		t.Fatal("no created event published")
	}
}

func TestUploadCollisionGetsCopySuffix(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.desktop, "notes.txt"), []byte("old"), 0644))

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"notes.txt","size":3}`))

	ack := f.writer.next(t)
	var started startResult
	require.NoError(t, json.Unmarshal(ack.Data, &started))
	assert.Equal(t, "notes copy.txt", started.Name)

	content := []byte("new")
	f.sendChunk(t, "u1", 0, content)
	f.writer.next(t)

	f.service.HandleTextMessage("u1", completeAction,
		json.RawMessage(fmt.Sprintf(`{"digest":"%s"}`, digestOf(content))))
	done := f.writer.next(t)
	var result completeResult
	require.NoError(t, json.Unmarshal(done.Data, &result))
	assert.Equal(t, "notes copy.txt", result.Name)

	// The original is untouched.
	old, err := os.ReadFile(filepath.Join(f.desktop, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), old)

	fresh, err := os.ReadFile(filepath.Join(f.desktop, "notes copy.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, fresh)
}

func TestUniqueName(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "a.txt", uniqueName(dir, "a.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644))
	assert.Equal(t, "a copy.txt", uniqueName(dir, "a.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a copy.txt"), nil, 0644))
	assert.Equal(t, "a copy 2.txt", uniqueName(dir, "a.txt"))
}

func TestUploadDigestMismatch(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"bad.bin","size":4}`))
	f.writer.next(t)

	f.sendChunk(t, "u1", 0, []byte("data"))
	f.writer.next(t)

	f.service.HandleTextMessage("u1", completeAction,
		json.RawMessage(fmt.Sprintf(`{"digest":"%s"}`, digestOf([]byte("other")))))

	msg := f.writer.next(t)
	assert.Contains(t, msg.Error, "digest mismatch")

	_, err := os.Stat(filepath.Join(f.desktop, "bad.bin"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, f.partFiles(t))
}

func TestUploadShortWrite(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"short.bin","size":100}`))
	f.writer.next(t)

	f.sendChunk(t, "u1", 0, []byte("tiny"))
	f.writer.next(t)

	f.service.HandleTextMessage("u1", completeAction,
		json.RawMessage(fmt.Sprintf(`{"digest":"%s"}`, digestOf([]byte("tiny")))))

	msg := f.writer.next(t)
	assert.Contains(t, msg.Error, "upload incomplete")
	assert.Empty(t, f.partFiles(t))
}

func TestUploadCancel(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"big.iso","size":1024}`))
	f.writer.next(t)
	require.Len(t, f.partFiles(t), 1)

	f.service.HandleTextMessage("u1", cancelAction, nil)

	ack := f.writer.next(t)
	assert.Equal(t, cancelAction, ack.Action)
	assert.Empty(t, f.partFiles(t))
}

func TestUploadRejectsBadNames(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "../evil.sh", `nested\path.txt`} {
		payload, _ := json.Marshal(startData{Path: "local://Desktop", Name: name, Size: 1})
		f.service.HandleTextMessage("u1", startAction, payload)
		msg := f.writer.next(t)
		assert.NotEmpty(t, msg.Error, "name %q should be rejected", name)
	}
}

func TestUploadUnresolvablePath(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Nowhere","name":"x.txt","size":1}`))

	msg := f.writer.next(t)
	assert.NotEmpty(t, msg.Error)
}

func TestCleanupRemovesPartFiles(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTextMessage("u1", startAction,
		json.RawMessage(`{"path":"local://Desktop","name":"orphan.txt","size":10}`))
	f.writer.next(t)
	require.Len(t, f.partFiles(t), 1)

	f.service.Cleanup(fmt.Errorf("connection lost"))

	assert.Empty(t, f.partFiles(t))
}
