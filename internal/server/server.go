package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Server serves a single in-memory document over loopback HTTP, so a
// headless browser can load it.
type Server struct {
	listener net.Listener
	server   *http.Server
	filename string
}

// Start serves content at /filename on a free loopback port
func Start(content []byte, filename string) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find port: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /"+filename, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	})

	srv := &Server{
		listener: listener,
		filename: filename,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go srv.server.Serve(listener) //nolint:errcheck // returns ErrServerClosed on Stop

	return srv, nil
}

// URL returns the URL of the served document
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s/%s", s.listener.Addr().String(), s.filename)
}

// Stop shuts down the server
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}
