package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	stream   StreamFunc
	hub      *Hub
}

func NewServer(stream StreamFunc) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		stream:   stream,
		hub:      NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Close closes every open connection.
func (s *Server) Close() {
	s.hub.CloseAll()
}
