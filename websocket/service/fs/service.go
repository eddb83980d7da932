// Package fs exposes directory browsing and file operations over the
// websocket channel. All paths in its payloads are virtual paths.
package fs

import (
	"encoding/json"

	"filedeck/logging"
	"filedeck/vfs"
	ws "filedeck/websocket"
)

const (
	listAction      = "list"
	shortcutsAction = "shortcuts"
	copyAction      = "copy"
	moveAction      = "move"
	deleteAction    = "delete"
)

// Navigator is the slice of the filesystem facade the service needs.
// *vfs.FS satisfies it.
type Navigator interface {
	ListDirectory(virtualPath string) ([]vfs.FileEntry, error)
	Shortcuts() []vfs.Shortcut
	Copy(sources []string, destination string) (*vfs.OperationResult, error)
	Move(sources []string, destination string) (*vfs.OperationResult, error)
	Delete(targets []string) (*vfs.OperationResult, error)
}

type jsonWriter interface {
	WriteJSON(v any) error
}

type listData struct {
	Path    string          `json:"path,omitempty"`
	Entries []vfs.FileEntry `json:"entries,omitempty"`
}

type shortcutsData struct {
	Shortcuts []vfs.Shortcut `json:"shortcuts"`
}

type transferData struct {
	Sources     []string `json:"sources"`
	Destination string   `json:"destination"`
}

type deleteData struct {
	Targets []string `json:"targets"`
}

type FSService struct {
	conn jsonWriter
	nav  Navigator
}

func NewService(nav Navigator) *FSService {
	return &FSService{nav: nav}
}

func (s *FSService) Name() string {
	return "fs"
}

func (s *FSService) Register(conn *ws.Conn) {
	s.conn = conn
}

func (s *FSService) Cleanup(err error) {}

func (s *FSService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case listAction:
		go s.handleList(id, data)
	case shortcutsAction:
		go s.handleShortcuts(id)
	case copyAction, moveAction:
		go s.handleTransfer(id, action, data)
	case deleteAction:
		go s.handleDelete(id, data)
	default:
		logging.S().Warnw("unknown fs action", "action", action)
	}
}

func (s *FSService) handleList(id string, data json.RawMessage) {
	var d listData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, listAction, err)
		return
	}

	entries, err := s.nav.ListDirectory(d.Path)
	if err != nil {
		s.handleError(id, listAction, err)
		return
	}

	s.reply(id, listAction, listData{Path: d.Path, Entries: entries})
}

func (s *FSService) handleShortcuts(id string) {
	s.reply(id, shortcutsAction, shortcutsData{Shortcuts: s.nav.Shortcuts()})
}

func (s *FSService) handleTransfer(id, action string, data json.RawMessage) {
	var d transferData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, action, err)
		return
	}

	var (
		result *vfs.OperationResult
		err    error
	)
	if action == moveAction {
		result, err = s.nav.Move(d.Sources, d.Destination)
	} else {
		result, err = s.nav.Copy(d.Sources, d.Destination)
	}
	if err != nil {
		s.handleError(id, action, err)
		return
	}

	s.reply(id, action, result)
}

func (s *FSService) handleDelete(id string, data json.RawMessage) {
	var d deleteData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, deleteAction, err)
		return
	}

	result, err := s.nav.Delete(d.Targets)
	if err != nil {
		s.handleError(id, deleteAction, err)
		return
	}

	s.reply(id, deleteAction, result)
}

func (s *FSService) reply(id, action string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.handleError(id, action, err)
		return
	}

	s.writeJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    data,
	})
}

func (s *FSService) handleError(id, action string, err error) {
	logging.S().Warnw("fs action failed", "action", action, "error", err)
	s.writeJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	})
}

func (s *FSService) writeJSON(msg *ws.ServiceMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.S().Warnw("failed to write fs message", "error", err)
	}
}
