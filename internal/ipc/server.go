package ipc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/1broseidon/xoverview/internal/logging"
)

// Handler carries out the daemon side of each command.
type Handler interface {
	// Show asks for an overview. It must not block until the overview closes.
	Show() error
	Reload() error
	Status() StatusData
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	log          *zerolog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on socketPath. A stale socket left by a
// previous daemon is removed.
func NewServer(socketPath string, handler Handler) *Server {
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		log:        logging.WithComponent("ipc"),
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn().Err(err).Msg("IPC accept error")
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves one newline-delimited JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug().Err(err).Msg("IPC read error")
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}
	s.writeResponse(conn, s.handleCommand(req))
}

func (s *Server) handleCommand(req *Request) *Response {
	s.log.Debug().Str("command", string(req.Command)).Msg("IPC request")

	switch req.Command {
	case CommandShow:
		if err := s.handler.Show(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to open overview: %v", err))
		}
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandReload:
		if err := s.handler.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandGetStatus:
		resp, err := NewOKResponse(s.handler.Status())
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return resp
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Debug().Err(err).Msg("failed to send response")
	}
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
