// Package terminal implements "open terminal here": interactive shell
// sessions started in the real directory behind a virtual path, multiplexed
// over the websocket connection by message id.
package terminal

import (
	"encoding/json"
	"io"
	"sync"

	"filedeck/logging"
	"filedeck/utils"
	ws "filedeck/websocket"
)

const (
	startAction  = "start"
	inputAction  = "input"
	outputAction = "output"
	resizeAction = "resize"
	stopAction   = "stop"
)

type inputData string

type resizeData struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type startData struct {
	Path string `json:"path"`
}

type jsonWriter interface {
	WriteJSON(v any) error
}

type TerminalService struct {
	conn     jsonWriter
	resolver DirResolver
	provider Provider

	mu       sync.RWMutex
	sessions map[string]Shell
}

// NewLocalService builds the service over host shells.
func NewLocalService(resolver DirResolver) *TerminalService {
	return &TerminalService{
		resolver: resolver,
		provider: &LocalProvider{},
		sessions: make(map[string]Shell),
	}
}

func (s *TerminalService) Name() string {
	return "terminal"
}

func (s *TerminalService) Register(conn *ws.Conn) {
	s.conn = conn
}

func (s *TerminalService) Cleanup(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.sessions {
		sh.Close()
	}
	s.sessions = nil
}

func (s *TerminalService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.mu.RLock()
	sh, exists := s.sessions[id]
	s.mu.RUnlock()

	if action != startAction && !exists {
		logging.S().Warnw("terminal message before session started", "id", id, "action", action)
		return
	}
	if action == startAction && exists {
		logging.S().Warnw("terminal start for a running session", "id", id)
		return
	}

	switch action {
	case startAction:
		var start startData
		if err := json.Unmarshal(data, &start); err != nil {
			s.handleError(id, startAction, err)
			return
		}
		if err := s.startSession(id, start.Path); err != nil {
			s.handleError(id, startAction, err)
			return
		}
		s.writeJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: startAction})
	case inputAction:
		var input inputData
		if err := json.Unmarshal(data, &input); err != nil {
			logging.S().Warnw("bad terminal input payload", "id", id, "error", err)
			return
		}
		if _, err := sh.Write([]byte(input)); err != nil {
			logging.S().Infow("terminal session closed its input", "id", id, "error", err)
			s.endSession(id)
		}
	case resizeAction:
		var resize resizeData
		if err := json.Unmarshal(data, &resize); err != nil {
			logging.S().Warnw("bad terminal resize payload", "id", id, "error", err)
			return
		}
		if err := sh.Resize(resize.Rows, resize.Cols); err != nil {
			logging.S().Warnw("terminal resize failed", "id", id, "error", err)
		}
	case stopAction:
		s.endSession(id)
	default:
		logging.S().Warnw("unknown terminal action", "action", action)
	}
}

// startSession opens a shell in the directory behind path (or the default
// directory when path is empty) and pumps its output to the client.
func (s *TerminalService) startSession(id, path string) error {
	cwd := ""
	if path != "" {
		real, err := s.resolver.RealDir(path)
		if err != nil {
			return err
		}
		cwd = real
	}

	sh, err := s.provider.NewShell(cwd)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[id] = sh
	s.mu.Unlock()

	writer := &utils.WebsocketWriter{
		Service: s.Name(),
		Id:      id,
		Action:  outputAction,
		Conn:    s.conn,
		Transformer: func(p []byte) []byte {
			d, _ := json.Marshal(string(p))
			return d
		},
	}
	go func() {
		if _, err := io.Copy(writer, sh); err != nil {
			logging.S().Debugw("terminal output stream ended", "id", id, "error", err)
		}
		// The shell exited on its own; tell the client.
		if s.removeSession(id) {
			s.writeJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: stopAction})
		}
	}()

	return nil
}

// endSession closes a client-terminated session and acknowledges the stop.
func (s *TerminalService) endSession(id string) {
	if s.removeSession(id) {
		s.writeJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: stopAction})
	}
}

func (s *TerminalService) removeSession(id string) bool {
	s.mu.Lock()
	sh, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sh.Close()
	}
	return ok
}

func (s *TerminalService) handleError(id, action string, err error) {
	logging.S().Warnw("terminal action failed", "action", action, "error", err)
	s.writeJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	})
}

func (s *TerminalService) writeJSON(msg *ws.ServiceMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.S().Warnw("failed to write terminal message", "error", err)
	}
}
