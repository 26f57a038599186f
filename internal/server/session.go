// Package server manages individual chat sessions, handling the
// authentication state machine, read/write loops, and lifecycle control
// for each connection.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hixam001/chat-application-go/internal/store"
)

// Session is the server-side state for one connected client from accept
// to disconnect. The session owns its connection; the registry holds
// only a non-owning reference while the session is authenticated.
//
// A session moves Unauthenticated -> Authenticated -> Closed. The
// username is set exactly once, when login succeeds, and there is no
// way back to Unauthenticated.
type Session struct {
	id       string
	conn     net.Conn
	send     chan string
	registry *Registry
	creds    store.CredentialStore
	cfg      Config

	mu       sync.Mutex
	username string
	closed   bool
}

func newSession(conn net.Conn, registry *Registry, creds store.CredentialStore, cfg Config) *Session {
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan string, cfg.SendBufferSize),
		registry: registry,
		creds:    creds,
		cfg:      cfg,
	}
}

// Username returns the bound username, or "" before login succeeds.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) setUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

func (s *Session) authenticated() bool {
	return s.Username() != ""
}

// run drives the connection until the peer disconnects or I/O fails.
// Cleanup happens on every exit path.
func (s *Session) run(ctx context.Context) {
	defer s.teardown()

	go s.writeLoop()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 4096), s.cfg.MaxLineBytes)

	for {
		line, err := s.readLine(scanner)
		if err != nil {
			s.logReadEnd(err)
			return
		}

		if s.authenticated() {
			// Post-login, every line is chat text. LOGIN/REGISTER lines are
			// not reparsed; they relay like anything else.
			s.registry.Broadcast(s.Username() + ": " + line)
			continue
		}

		s.handleRequest(ctx, line)
	}
}

// readLine yields the next protocol line, io.EOF on a clean peer close,
// or the I/O error that ended the connection.
func (s *Session) readLine(scanner *bufio.Scanner) (string, error) {
	if s.cfg.IdleTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return "", err
		}
	}

	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// handleRequest classifies one line from an unauthenticated client.
func (s *Session) handleRequest(ctx context.Context, line string) {
	switch {
	case strings.HasPrefix(line, loginPrefix):
		s.handleLogin(ctx, strings.TrimPrefix(line, loginPrefix))
	case strings.HasPrefix(line, registerPrefix):
		s.handleRegister(ctx, strings.TrimPrefix(line, registerPrefix))
	default:
		s.reply(replyError + reasonNotLoggedIn)
	}
}

func (s *Session) handleLogin(ctx context.Context, payload string) {
	username, secret, ok := parseCredentials(payload)
	if !ok {
		s.reply(replyLoginFailed + reasonBadLoginFormat)
		return
	}

	valid, err := s.creds.Validate(ctx, username, secret)
	if err != nil {
		// The store failed, not the client; the connection stays open and
		// the next request gets a fresh attempt.
		s.reply(replyLoginFailed + reasonLoginStoreError)
		log.Printf("Database error during login for %s: %v", username, err)
		return
	}
	if !valid {
		s.reply(replyLoginFailed + reasonBadCredentials)
		log.Printf("Login failed for: %s", username)
		return
	}

	s.setUsername(username)
	s.reply(replyLoginSuccess + username)
	log.Printf("User logged in: %s", username)
	s.registry.Join(s)
	s.registry.Broadcast(username + " has joined the chat.")
}

func (s *Session) handleRegister(ctx context.Context, payload string) {
	username, secret, ok := parseCredentials(payload)
	if !ok {
		s.reply(replyRegisterFailed + reasonBadRegisterFormat)
		return
	}

	err := s.creds.Register(ctx, username, secret)
	switch {
	case err == nil:
		s.reply(replyRegisterSuccess)
		log.Printf("User registered: %s", username)
	case errors.Is(err, store.ErrUsernameTaken):
		s.reply(replyRegisterFailed + reasonUsernameTaken)
		log.Printf("Registration failed: Username %s already exists.", username)
	default:
		s.reply(replyRegisterFailed + reasonRegisterStoreError)
		log.Printf("Database error during registration for %s: %v", username, err)
	}
	// Registration never authenticates; the client must still log in.
}

// reply queues a response line for this session only.
func (s *Session) reply(text string) {
	s.enqueue(text)
}

// enqueue hands a line to the write loop without blocking. It reports
// false when the session is closed or its buffer is full.
func (s *Session) enqueue(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.send <- text:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbound queue onto the wire, one line per
// message. It exits when the queue closes or a write fails; a failed
// write closes the connection so the read loop observes the breakage.
func (s *Session) writeLoop() {
	for text := range s.send {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error setting write deadline for %s: %v", s.conn.RemoteAddr(), err)
			}
			return
		}
		if _, err := io.WriteString(s.conn, text+"\n"); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error writing to %s: %v", s.conn.RemoteAddr(), err)
			}
			_ = s.conn.Close()
			return
		}
	}
}

// teardown transitions the session to Closed: leave the registry and
// announce the departure if login had succeeded, then release the
// connection.
func (s *Session) teardown() {
	if name := s.Username(); name != "" {
		s.registry.Leave(s)
		s.registry.Broadcast(name + " has left the chat.")
		log.Printf("%s disconnected.", name)
	} else {
		log.Printf("Unauthenticated client %s disconnected.", s.conn.RemoteAddr())
	}
	s.close()
}

// close marks the session closed, wakes the write loop, and closes the
// connection. Safe to call more than once.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.send)
	if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing client connection: %v", err)
	}
}

func (s *Session) logReadEnd(err error) {
	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		return
	}
	if name := s.Username(); name != "" {
		log.Printf("Client handler error for %s: %v", name, err)
	} else {
		log.Printf("Client handler error for unauthenticated client %s: %v", s.conn.RemoteAddr(), err)
	}
}
