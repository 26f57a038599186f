// Package server implements the TCP listener and dispatcher for the
// chat relay service.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/hixam001/chat-application-go/internal/store"
)

// Server accepts connections and dispatches each to a session handler,
// bounded by a fixed worker capacity.
type Server struct {
	cfg      Config
	creds    store.CredentialStore
	registry *Registry

	listener net.Listener
	slots    chan struct{}
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu   sync.Mutex
	live map[*Session]struct{}
}

// NewServer creates a Server around an injected credential store and
// registry. The configuration is sanitized before use.
func NewServer(cfg Config, creds store.CredentialStore, registry *Registry) *Server {
	cfg = sanitizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		creds:    creds,
		registry: registry,
		slots:    make(chan struct{}, cfg.WorkerCapacity),
		ctx:      ctx,
		cancel:   cancel,
		live:     make(map[*Session]struct{}),
	}
}

// Start binds the listen address. It must be called before Serve.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	log.Printf("Chat server started on %s", ln.Addr())
	return nil
}

// Addr returns the bound listen address. Useful with ":0" in tests.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown closes the listener. A
// worker slot is acquired before each accept, so when all workers are
// busy the loop stalls and excess connections queue in the kernel
// accept backlog; there is no explicit admission rejection.
func (s *Server) Serve() error {
	for {
		s.slots <- struct{}{}

		conn, err := s.listener.Accept()
		if err != nil {
			<-s.slots
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		sess := newSession(conn, s.registry, s.creds, s.cfg)
		s.track(sess)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.slots }()
			defer s.untrack(sess)
			sess.run(s.ctx)
		}()
	}
}

// Shutdown stops accepting, closes live sessions, and waits for the
// handlers to drain or the timeout to elapse. The source system had no
// orderly shutdown; this is the documented improvement over killing the
// process.
func (s *Server) Shutdown(timeout time.Duration) error {
	log.Println("Shutting down chat server...")

	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.mu.Lock()
	sessions := lo.Keys(s.live)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Chat server shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Println("Chat server shutdown timeout reached, some handlers may still be running")
		return context.DeadlineExceeded
	}
}

func (s *Server) track(sess *Session) {
	s.mu.Lock()
	s.live[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.live, sess)
	s.mu.Unlock()
}
