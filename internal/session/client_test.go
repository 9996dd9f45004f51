package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"edged/internal/head"
	"edged/internal/peer"
	"edged/internal/vocab"
	"edged/internal/wire"
	"edged/pkg/types"
)

// fakeAdapter is a deterministic in-process head model for tests.
type fakeAdapter struct {
	dim   int
	err   error
	gate  chan struct{} // when non-nil, Run blocks until closed
	mu    sync.Mutex
	calls int
}

func (f *fakeAdapter) Ready() bool { return true }

func (f *fakeAdapter) Run(ctx context.Context, ids []int) (types.Tensor, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	t := types.NewTensor(len(ids), f.dim)
	for i, id := range ids {
		for j := range t[0][i] {
			t[0][i][j] = float32(id) + float32(j)*0.25
		}
	}
	return t, nil
}

func testVocab(t *testing.T) *vocab.Table {
	t.Helper()
	tab, err := vocab.New(map[string]int{
		"Hello": 1, "world": 2, "<|endoftext|>": 0,
	}, "")
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	return tab
}

// pipeDialer hands out one side of a fresh in-memory pipe per dial and runs
// serve on the other side.
func pipeDialer(serve func(net.Conn)) DialFunc {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		client, server := net.Pipe()
		go serve(server)
		return client, nil
	}
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().State == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state never reached %q, last %q", want, c.Snapshot().State)
}

func TestInferEndToEnd(t *testing.T) {
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
	pub := NewMemoryPublisher()
	c.SetPublisher(pub)
	c.SetDialFunc(pipeDialer(func(conn net.Conn) {
		_ = peer.ServeConn(conn, func(seqLen, dim int) string {
			if seqLen != 2 || dim != 4 {
				return "bad shape"
			}
			return "a haiku"
		})
	}))

	text, err := c.Infer(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if text != "a haiku" {
		t.Fatalf("text = %q", text)
	}

	want := []State{StateTokenizing, StateEmbedding, StateSending, StateAwaitingResponse, StateDecoding, StateComplete}
	snaps := pub.Snapshots()
	if len(snaps) != len(want) {
		t.Fatalf("published %d snapshots, want %d: %+v", len(snaps), len(want), snaps)
	}
	for i, s := range snaps {
		if s.State != want[i] {
			t.Fatalf("transition %d = %q, want %q", i, s.State, want[i])
		}
	}

	st := c.Status()
	if st.SessionsOK != 1 || st.SessionsFailed != 0 {
		t.Fatalf("status counters: %+v", st)
	}
}

func TestInferAdapterFailureNeverDials(t *testing.T) {
	fa := &fakeAdapter{dim: 4, err: errors.New("head exploded")}
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), fa)
	dialed := false
	c.SetDialFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		dialed = true
		return nil, errors.New("should not be reached")
	})

	_, err := c.Infer(context.Background(), "Hello world")
	if !IsAdapter(err) {
		t.Fatalf("expected adapter error, got %v", err)
	}
	if dialed {
		t.Fatalf("connection was opened despite adapter failure")
	}
	if c.Snapshot().State != StateFailed {
		t.Fatalf("state = %q, want failed", c.Snapshot().State)
	}
}

func TestInferUnavailableHeadStaysClassifiable(t *testing.T) {
	fa := &fakeAdapter{dim: 4, err: head.ErrUnavailable("head inference requires a binary built with -tags=llama")}
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), fa)

	_, err := c.Infer(context.Background(), "Hello world")
	if !IsAdapter(err) {
		t.Fatalf("expected adapter error, got %v", err)
	}
	if !head.IsUnavailable(err) {
		t.Fatalf("dependency-unavailable lost through wrapping: %v", err)
	}
}

func TestInferPreconditions(t *testing.T) {
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
	for _, prompt := range []string{"", "   "} {
		_, err := c.Infer(context.Background(), prompt)
		if !IsPrecondition(err) {
			t.Fatalf("prompt %q: expected precondition error, got %v", prompt, err)
		}
		if c.Snapshot().State != StateIdle {
			t.Fatalf("prompt %q: state left idle: %q", prompt, c.Snapshot().State)
		}
	}

	noVocab := New(Config{PeerAddr: "test:0"}, nil, &fakeAdapter{dim: 4})
	if _, err := noVocab.Infer(context.Background(), "Hello"); !IsPrecondition(err) {
		t.Fatalf("expected precondition error without vocabulary, got %v", err)
	}
	if noVocab.Ready() {
		t.Fatalf("client without vocabulary reported ready")
	}
}

func TestInferRejectsConcurrentSession(t *testing.T) {
	gate := make(chan struct{})
	fa := &fakeAdapter{dim: 4, gate: gate}
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), fa)
	c.SetDialFunc(pipeDialer(func(conn net.Conn) {
		_ = peer.ServeConn(conn, func(int, int) string { return "ok" })
	}))

	done := make(chan error, 1)
	go func() {
		_, err := c.Infer(context.Background(), "Hello world")
		done <- err
	}()
	waitForState(t, c, StateEmbedding)

	if _, err := c.Infer(context.Background(), "Hello"); !IsBusy(err) {
		t.Fatalf("expected busy rejection, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first session failed: %v", err)
	}
}

func TestInferIncompleteResponse(t *testing.T) {
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
	c.SetDialFunc(pipeDialer(func(conn net.Conn) {
		defer conn.Close()
		if _, err := wire.ReadFrame(conn); err != nil {
			return
		}
		// Claim 10 body bytes, deliver 3, hang up.
		conn.Write([]byte{0, 0, 0, 10, 'a', 'b', 'c'})
	}))

	_, err := c.Infer(context.Background(), "Hello world")
	if !wire.IsIncompleteFrame(err) {
		t.Fatalf("expected incomplete frame error, got %v", err)
	}
	if c.Snapshot().State != StateFailed {
		t.Fatalf("state = %q, want failed", c.Snapshot().State)
	}
}

func TestInferDecodeFailure(t *testing.T) {
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
	c.SetDialFunc(pipeDialer(func(conn net.Conn) {
		defer conn.Close()
		if _, err := wire.ReadFrame(conn); err != nil {
			return
		}
		_ = wire.WriteFrame(conn, []byte{0xff, 0xfe})
	}))

	_, err := c.Infer(context.Background(), "Hello world")
	if !wire.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestInferDialFailure(t *testing.T) {
	c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
	c.SetDialFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.Infer(context.Background(), "Hello world")
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}

	st := c.Status()
	if st.SessionsFailed != 1 {
		t.Fatalf("failed counter = %d, want 1", st.SessionsFailed)
	}
}

// closeConn records whether Close was called.
type closeConn struct {
	net.Conn
	mu     sync.Mutex
	closed bool
}

func (c *closeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.Conn.Close()
}

func (c *closeConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestConnectionAlwaysReleased(t *testing.T) {
	cases := []struct {
		name  string
		serve func(net.Conn)
	}{
		{"success", func(conn net.Conn) {
			_ = peer.ServeConn(conn, func(int, int) string { return "ok" })
		}},
		{"peer hangs up", func(conn net.Conn) {
			conn.Close()
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cc *closeConn
			c := New(Config{PeerAddr: "test:0"}, testVocab(t), &fakeAdapter{dim: 4})
			c.SetDialFunc(func(ctx context.Context, addr string) (net.Conn, error) {
				client, server := net.Pipe()
				go tc.serve(server)
				cc = &closeConn{Conn: client}
				return cc, nil
			})
			_, _ = c.Infer(context.Background(), "Hello world")
			if cc == nil || !cc.wasClosed() {
				t.Fatalf("connection was not closed")
			}
		})
	}
}

func TestInferReceiveTimeout(t *testing.T) {
	c := New(Config{PeerAddr: "test:0", ReceiveTimeout: 50 * time.Millisecond}, testVocab(t), &fakeAdapter{dim: 4})
	c.SetDialFunc(pipeDialer(func(conn net.Conn) {
		// Swallow the request and never answer.
		_, _ = wire.ReadFrame(conn)
	}))

	_, err := c.Infer(context.Background(), "Hello world")
	if !IsConnection(err) {
		t.Fatalf("expected connection error on receive timeout, got %v", err)
	}
}

func TestInferOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go peer.ServeConn(conn, peer.EchoGenerator)
		}
	}()

	c := New(Config{PeerAddr: ln.Addr().String(), ConnectTimeout: 2 * time.Second}, testVocab(t), &fakeAdapter{dim: 3})
	text, err := c.Infer(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if text != "received 2 positions x 3 channels" {
		t.Fatalf("text = %q", text)
	}
}
