package websocket

import (
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"filedeck/logging"
)

// Server owns one client connection and the services multiplexed on it.
type Server struct {
	*Conn

	services map[string]Service

	lastActive     atomic.Int64
	activeServices []string
}

// NewServer upgrades the request into a service server.
func NewServer(w http.ResponseWriter, r *http.Request) (*Server, error) {
	conn, err := NewConn(w, r)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Conn:           conn,
		services:       make(map[string]Service),
		activeServices: make([]string, 0, 4),
	}
	server.lastActive.Store(time.Now().UnixNano())

	return server, nil
}

// Register adds a service whose traffic counts as activity for the idle
// timeout.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices = append(s.activeServices, service.Name())
}

// RegisterPassive adds a service without marking its traffic as activity,
// so heartbeats alone cannot keep an idle connection alive.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		logging.S().Warnw("service already registered", "service", service.Name())
		return
	}

	service.Register(s.Conn)
	s.services[service.Name()] = service
}

func (s *Server) checkTimeout(done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, s.lastActive.Load()))
			if idle > connectionTimeout() {
				logging.S().Infow("closing idle connection", "idle", idle)
				s.Close()
			}
		}
	}
}

// Start blocks until the connection dies, then runs every service's
// Cleanup with the read error.
func (s *Server) Start() error {
	done := make(chan struct{})
	defer close(done)
	go s.checkTimeout(done)

	// Text messages.
	go func() {
		for msg := range s.TextMessage {
			if slices.Contains(s.activeServices, msg.Service) {
				s.lastActive.Store(time.Now().UnixNano())
			}
			if svc, exists := s.services[msg.Service]; exists {
				svc.HandleTextMessage(msg.Id, msg.Action, msg.Data)
			} else {
				logging.S().Debugw("message for unknown service", "service", msg.Service)
			}
		}
	}()

	// Binary frames. Whichever service is expecting one has parked its
	// receive channel in BinaryChan, so concurrent binary flows stay
	// untangled.
	go func() {
		for data := range s.BinaryMessage {
			ch := <-s.BinaryChan
			ch <- data
		}
	}()

	err := s.StartDispatch()
	for _, svc := range s.services {
		svc.Cleanup(err)
	}
	return err
}
