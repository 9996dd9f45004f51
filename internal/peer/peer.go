// Package peer implements a reference remote generation service: the inverse
// side of the handoff protocol. It consumes one embeddings+mask request frame
// per connection and answers with one raw-text response frame.
//
// The production peer is a separate, more powerful system; this one exists so
// the exchange can be exercised end to end in tests and from `edgectl peer`.
package peer

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"edged/internal/wire"
)

// Generator produces response text for a decoded request. seqLen and dim
// describe the tensor that arrived; a real peer would run the tail of the
// model here.
type Generator func(seqLen, dim int) string

// EchoGenerator reports the received shape. Useful as a protocol probe.
func EchoGenerator(seqLen, dim int) string {
	return fmt.Sprintf("received %d positions x %d channels", seqLen, dim)
}

// ServeConn performs one request/response exchange on conn and closes it.
// Malformed requests get no response; the connection is simply closed.
func ServeConn(conn net.Conn, gen Generator) error {
	defer conn.Close()
	body, err := wire.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	tensor, _, err := wire.DecodePayload(body)
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	text := gen(tensor.SeqLen(), tensor.Dim())
	if err := wire.WriteFrame(conn, []byte(text)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Server accepts connections and serves one exchange each.
type Server struct {
	gen Generator
	log zerolog.Logger
}

// New constructs a Server with the given generator, EchoGenerator if nil.
func New(gen Generator, log zerolog.Logger) *Server {
	if gen == nil {
		gen = EchoGenerator
	}
	return &Server{gen: gen, log: log}
}

// Serve blocks accepting connections on ln until the listener is closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go func(c net.Conn) {
			if err := ServeConn(c, s.gen); err != nil {
				s.log.Warn().Err(err).Str("remote", c.RemoteAddr().String()).Msg("exchange failed")
				return
			}
			s.log.Debug().Str("remote", c.RemoteAddr().String()).Msg("exchange complete")
		}(conn)
	}
}
