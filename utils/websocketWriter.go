package utils

import (
	ws "filedeck/websocket"
)

// JSONWriter is the slice of the websocket connection the writer needs.
type JSONWriter interface {
	WriteJSON(v any) error
}

// WebsocketWriter adapts a service's outgoing stream to io.Writer so pumps
// can io.Copy into the connection. Transformer, when set, reshapes each
// chunk into the JSON payload.
type WebsocketWriter struct {
	Service     string
	Id          string
	Action      string
	Conn        JSONWriter
	Transformer func([]byte) []byte
}

func (w *WebsocketWriter) Write(p []byte) (n int, err error) {
	var transformed []byte
	if w.Transformer != nil {
		transformed = w.Transformer(p)
	} else {
		transformed = p
	}

	err = w.Conn.WriteJSON(&ws.ServiceMessage{
		Service: w.Service,
		Id:      w.Id,
		Action:  w.Action,
		Data:    transformed,
	})

	if err != nil {
		return 0, err
	}

	return len(p), nil
}
