package diagnostics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/doismellburning/gnssrecv/internal/logging"
)

// Server is the trivial net/http.FileServer the supplement calls for:
// "a trivial net/http.FileServer" over the diagnostics output
// directory, optionally advertised over mDNS by Advertise.
type Server struct {
	httpServer *http.Server
	addr       string
}

// StartServer binds to addr (empty host means all interfaces, e.g.
// ":8765") and serves outDir. It never blocks: the listener failure,
// if any, is returned once at startup, but subsequent request errors
// are handled by net/http itself and never reach the caller.
func StartServer(addr, outDir string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(outDir)))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Warnf("diagnostics: http server stopped: %v", err)
		}
	}()

	return &Server{httpServer: srv, addr: ln.Addr().String()}, nil
}

// Addr returns the bound address (useful when addr was ":0").
func (s *Server) Addr() string { return s.addr }

// Port extracts just the numeric port, for mDNS advertisement.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0
	}
	return port
}

// Shutdown stops the HTTP server, waiting up to 2 seconds for
// in-flight requests to finish.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
