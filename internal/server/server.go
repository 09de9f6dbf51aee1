// Package server implements the TCP accept loop and line framer: it
// accepts connections, frames incoming bytes by newline, forwards complete
// lines to the command dispatcher, and writes replies.
//
// The accept-loop/signal/WaitGroup shape is grounded on
// amir0241-paqet's server package (internal/server/server.go): a
// context.Context cancelled by SIGINT/SIGTERM, an Accept loop that checks
// ctx.Done() around each Accept call, and a WaitGroup tracking in-flight
// connection goroutines so ListenAndServe can wait for a clean drain.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/tempuscache/tempuscached/internal/command"
	"github.com/tempuscache/tempuscached/internal/logging"
	"github.com/tempuscache/tempuscached/internal/pool"
)

// MaxLineBytes is the sanity cap on a single request line: a line that,
// together with its newline, does not fit in this many bytes is rejected
// and the connection is closed.
const MaxLineBytes = 64 * 1024

// closingReply is the fixed response to the `close` command.
const closingReply = "Closing connection"

// Server accepts TCP connections and drives each one's lines through a
// command.Dispatcher.
type Server struct {
	dispatcher *command.Dispatcher
	logger     *logging.Logger
	now        func() int64

	listener net.Listener
	wg       sync.WaitGroup
}

// New returns a Server bound to p via a fresh Dispatcher. now supplies the
// monotonic clock passed through to every dispatched command.
func New(p *pool.Pool, logger *logging.Logger, now func() int64) *Server {
	return &Server{
		dispatcher: command.NewDispatcher(p),
		logger:     logger,
		now:        now,
	}
}

// ListenAndServe binds addr and accepts connections until ctx is canceled.
// It returns once the listener is closed and all in-flight connections
// have finished their current line: the cache itself is volatile, but an
// in-flight reply is still written.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.logger.Infof("server: listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.logger.Errorf("server: accept: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()

			// On shutdown, expire pending reads so the connection ends after
			// its current line instead of waiting for the client to leave.
			connDone := make(chan struct{})
			defer close(connDone)
			go func() {
				select {
				case <-ctx.Done():
					conn.SetReadDeadline(time.Now())
				case <-connDone:
				}
			}()

			s.handleConn(conn)
		}()
	}
}

// handleConn frames conn's bytes by newline and dispatches each complete
// line independently, leaving any trailing partial line buffered for the
// next read, instead of only processing the first line of a buffered read.
func (s *Server) handleConn(conn net.Conn) {
	reader := bufio.NewScanner(conn)
	reader.Buffer(make([]byte, 0, 4096), MaxLineBytes)
	writer := bufio.NewWriter(conn)
	defer writer.Flush()

	for reader.Scan() {
		line := reader.Text()

		if isCloseCommand(line) {
			fmt.Fprintf(writer, "%s\n", closingReply)
			writer.Flush()
			halfClose(conn)
			return
		}

		reply := s.dispatchLine(line)
		s.logger.Tracef("server: %s: %q -> %q", conn.RemoteAddr(), line, reply)
		fmt.Fprintf(writer, "%s\n", reply)
		writer.Flush()
	}

	if err := reader.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			fmt.Fprintf(writer, "%s\n", command.InvalidCommandReply)
			writer.Flush()
		}
	}
}

// dispatchLine parses and executes a single line, translating parse
// failures into the exact textual tokens clients expect on a bad request.
func (s *Server) dispatchLine(line string) string {
	parsed, err := command.Parse(line)
	if err != nil {
		switch {
		case errors.Is(err, command.ErrUnknownVerb):
			return command.InvalidCommandReply
		default:
			return command.InvalidArgumentsReply
		}
	}
	return s.dispatcher.Dispatch(parsed, s.now())
}

func isCloseCommand(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "close")
}

// halfClose shuts down the write side so the client sees EOF after the
// closing reply, without tearing down reads already in flight.
func halfClose(conn net.Conn) {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := conn.(writeCloser); ok {
		wc.CloseWrite()
	}
}
