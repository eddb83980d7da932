// Package upload receives chunked file uploads over the websocket channel.
// Chunks arrive as raw binary frames claimed through the connection's
// binary handshake; each file accumulates in a hidden part file that is
// only renamed into place once its sha256 digest checks out.
package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"filedeck/events"
	"filedeck/logging"
	"filedeck/metrics"
	"filedeck/vfs"
	ws "filedeck/websocket"
)

const (
	startAction    = "start"
	chunkAction    = "chunk"
	completeAction = "complete"
	cancelAction   = "cancel"
)

type startData struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type startResult struct {
	Name string `json:"name"`
}

type chunkData struct {
	Progress int64 `json:"progress"`
}

type completeData struct {
	Digest string `json:"digest"`
}

type completeResult struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type UploadService struct {
	conn        jsonWriter
	binary      chan chan []byte
	resolver    PathResolver
	broadcaster *events.Broadcaster

	mu       sync.RWMutex
	sessions map[string]*uploadSession

	// buffered; chunk text messages queue meta here and the server's
	// binary loop delivers the matching frame into chunkData.
	chunkMeta chan *chunkMeta
	chunkData chan []byte

	stop sync.Once
}

func NewService(resolver PathResolver, broadcaster *events.Broadcaster) *UploadService {
	return &UploadService{
		resolver:    resolver,
		broadcaster: broadcaster,
		sessions:    make(map[string]*uploadSession),
		chunkMeta:   make(chan *chunkMeta, 1),
		chunkData:   make(chan []byte, 1),
	}
}

func (s *UploadService) Name() string {
	return "upload"
}

func (s *UploadService) Register(conn *ws.Conn) {
	s.start(conn, conn.BinaryChan)
}

func (s *UploadService) start(w jsonWriter, binary chan chan []byte) {
	s.conn = w
	s.binary = binary

	go func() {
		for {
			meta, ok := <-s.chunkMeta
			if !ok {
				break
			}
			data, ok := <-s.chunkData
			if !ok {
				break
			}
			s.writeChunk(meta, data)
		}
	}()
}

func (s *UploadService) Cleanup(err error) {
	s.stop.Do(func() {
		close(s.chunkMeta)
		close(s.chunkData)
	})

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*uploadSession)
	s.mu.Unlock()

	for _, ss := range sessions {
		s.discard(ss)
	}
}

func (s *UploadService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case startAction:
		s.handleStart(id, data)
	case chunkAction:
		s.handleChunk(id, data)
	case completeAction:
		s.handleComplete(id, data)
	case cancelAction:
		s.handleCancel(id)
	default:
		logging.S().Warnw("unknown upload action", "action", action)
	}
}

func (s *UploadService) handleStart(id string, data json.RawMessage) {
	s.mu.RLock()
	_, exists := s.sessions[id]
	s.mu.RUnlock()
	if exists {
		logging.S().Warnw("upload session already started", "id", id)
		return
	}

	var d startData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, startAction, err)
		return
	}
	if d.Name == "" || strings.ContainsAny(d.Name, `/\`) {
		s.handleError(id, startAction, fmt.Errorf("invalid upload name %q", d.Name))
		return
	}

	virtualDir := d.Path
	if !strings.HasSuffix(virtualDir, "/") {
		virtualDir += "/"
	}

	dir, err := s.resolver.RealPath(virtualDir)
	if err != nil {
		s.handleError(id, startAction, err)
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.handleError(id, startAction, err)
		return
	}

	name := uniqueName(dir, d.Name)
	partPath := filepath.Join(dir, ".upload-"+uuid.NewString()+".part")
	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		s.handleError(id, startAction, err)
		return
	}

	s.mu.Lock()
	s.sessions[id] = &uploadSession{
		virtualDir: virtualDir,
		dir:        dir,
		name:       name,
		partPath:   partPath,
		declared:   d.Size,
		file:       f,
		hasher:     sha256.New(),
	}
	s.mu.Unlock()

	s.reply(id, startAction, startResult{Name: name})
}

// handleChunk runs on the text dispatch loop: it queues the chunk meta and
// offers chunkData to the binary loop, which fills it with the next frame.
// The client waits for each progress ack before sending another chunk, so
// at most one frame is in flight per connection.
func (s *UploadService) handleChunk(id string, data json.RawMessage) {
	var d chunkData
	if err := json.Unmarshal(data, &d); err != nil {
		logging.S().Warnw("bad upload chunk payload", "id", id, "error", err)
		return
	}

	s.chunkMeta <- &chunkMeta{id: id, progress: d.Progress}
	s.binary <- s.chunkData
}

func (s *UploadService) writeChunk(meta *chunkMeta, data []byte) {
	s.mu.RLock()
	ss, exists := s.sessions[meta.id]
	s.mu.RUnlock()
	if !exists {
		logging.S().Warnw("chunk for unknown upload session", "id", meta.id)
		return
	}

	ss.mu.Lock()
	if ss.file == nil {
		ss.mu.Unlock()
		logging.S().Warnw("chunk after upload closed", "id", meta.id)
		return
	}
	_, err := ss.file.Write(data)
	if err == nil {
		ss.hasher.Write(data)
		ss.received += int64(len(data))
	}
	received := ss.received
	ss.mu.Unlock()

	if err != nil {
		s.handleError(meta.id, chunkAction, err)
		s.abort(meta.id)
		metrics.RecordUpload(false)
		return
	}

	metrics.RecordUploadChunk(len(data))
	s.reply(meta.id, chunkAction, chunkData{Progress: received})
}

func (s *UploadService) handleComplete(id string, data json.RawMessage) {
	s.mu.RLock()
	ss, exists := s.sessions[id]
	s.mu.RUnlock()
	if !exists {
		logging.S().Warnw("complete for unknown upload session", "id", id)
		return
	}

	var d completeData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, completeAction, err)
		return
	}

	ss.mu.Lock()
	if ss.file != nil {
		ss.file.Close()
		ss.file = nil
	}
	digest := hex.EncodeToString(ss.hasher.Sum(nil))
	received := ss.received
	ss.mu.Unlock()

	if ss.declared > 0 && received != ss.declared {
		s.handleError(id, completeAction,
			fmt.Errorf("upload incomplete: received %d of %d bytes", received, ss.declared))
		s.abort(id)
		metrics.RecordUpload(false)
		return
	}
	if !strings.EqualFold(digest, d.Digest) {
		s.handleError(id, completeAction, fmt.Errorf("upload corrupted: digest mismatch"))
		s.abort(id)
		metrics.RecordUpload(false)
		return
	}

	// The name may have been taken while the upload ran.
	name := uniqueName(ss.dir, ss.name)
	if err := os.Rename(ss.partPath, filepath.Join(ss.dir, name)); err != nil {
		s.handleError(id, completeAction, err)
		s.abort(id)
		metrics.RecordUpload(false)
		return
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	virtualPath := ss.virtualDir + name
	scheme, _, err := vfs.ParsePath(virtualPath)
	service := ""
	if err == nil {
		service = scheme.String()
	}
	s.broadcaster.Publish(events.Event{
		Type:    events.EventCreated,
		Path:    virtualPath,
		Service: service,
	})
	metrics.RecordUpload(true)

	s.reply(id, completeAction, completeResult{Name: name, Path: virtualPath})
}

func (s *UploadService) handleCancel(id string) {
	s.mu.RLock()
	_, exists := s.sessions[id]
	s.mu.RUnlock()
	if !exists {
		logging.S().Warnw("cancel for unknown upload session", "id", id)
		return
	}

	s.abort(id)
	s.writeJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: cancelAction})
}

// abort drops a session and its part file.
func (s *UploadService) abort(id string) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.discard(ss)
	}
}

func (s *UploadService) discard(ss *uploadSession) {
	ss.mu.Lock()
	if ss.file != nil {
		ss.file.Close()
		ss.file = nil
	}
	ss.mu.Unlock()
	if err := os.Remove(ss.partPath); err != nil && !os.IsNotExist(err) {
		logging.S().Warnw("failed to remove part file", "path", ss.partPath, "error", err)
	}
}

// uniqueName returns name if it is free inside dir, otherwise inserts
// " copy" (then " copy 2", " copy 3", ...) before the extension.
func uniqueName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := base + " copy" + ext
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s copy %d%s", base, n, ext)
	}
}

func (s *UploadService) reply(id, action string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.handleError(id, action, err)
		return
	}
	s.writeJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: action, Data: data})
}

func (s *UploadService) handleError(id, action string, err error) {
	logging.S().Warnw("upload action failed", "action", action, "error", err)
	s.writeJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	})
}

func (s *UploadService) writeJSON(msg *ws.ServiceMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.S().Warnw("failed to write upload message", "error", err)
	}
}
