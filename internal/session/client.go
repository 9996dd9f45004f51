// Package session orchestrates one split-inference exchange: tokenize the
// prompt locally, run the head model, ship the embeddings to the remote peer
// in a length-prefixed frame, and decode the generated text that comes back.
package session

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"edged/internal/head"
	"edged/internal/tokenizer"
	"edged/internal/vocab"
	"edged/internal/wire"
	"edged/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultMaxTokens      = 128
	DefaultEmbedDim       = 768
)

// Config holds the per-client tunables for the exchange.
type Config struct {
	// PeerAddr is the remote generation service, host:port.
	PeerAddr string
	// ConnectTimeout bounds the dial only.
	ConnectTimeout time.Duration
	// ReceiveTimeout, when non-zero, bounds the whole response accumulation
	// as a read deadline on the connection. Zero preserves the historical
	// behavior: the receive loop waits indefinitely.
	ReceiveTimeout time.Duration
	// MaxTokens caps the token sequence; longer prompts are truncated.
	MaxTokens int
}

// DialFunc opens the byte-stream connection to the peer. Tests substitute
// in-memory pipes here.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Client runs split-inference sessions against one peer. At most one session
// is in flight at a time; concurrent requests are rejected, never queued.
type Client struct {
	cfg   Config
	vocab *vocab.Table
	head  head.Adapter
	pub   StatusPublisher
	dial  DialFunc

	slot chan struct{} // size 1: single in-flight session

	mu   sync.RWMutex
	last Snapshot

	okTotal   atomic.Uint64
	failTotal atomic.Uint64
	startTime time.Time
}

// New constructs a Client. tab may be nil when no vocabulary is available
// yet; every request will then fail its precondition check.
func New(cfg Config, tab *vocab.Table, h head.Adapter) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	c := &Client{
		cfg:       cfg,
		vocab:     tab,
		head:      h,
		pub:       noopPublisher{},
		slot:      make(chan struct{}, 1),
		last:      Snapshot{State: StateIdle},
		startTime: time.Now(),
	}
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: c.cfg.ConnectTimeout}
		return d.DialContext(ctx, "tcp", addr)
	}
	return c
}

// SetPublisher installs a status observer. Call before the first Infer.
func (c *Client) SetPublisher(p StatusPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	c.pub = p
}

// SetDialFunc overrides how the peer connection is opened.
func (c *Client) SetDialFunc(d DialFunc) {
	if d != nil {
		c.dial = d
	}
}

// Infer runs one complete session and returns the generated text. Errors are
// classified by the IsXxx predicates in this package and in wire/head.
func (c *Client) Infer(ctx context.Context, prompt string) (string, error) {
	if c.vocab == nil {
		return "", c.precondition("no vocabulary loaded")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", c.precondition("prompt is required")
	}

	select {
	case c.slot <- struct{}{}:
	default:
		return "", busyError{}
	}
	defer func() { <-c.slot }()

	start := time.Now()
	text, err := c.run(ctx, prompt)
	if err != nil {
		c.failTotal.Add(1)
		sessionsTotal.WithLabelValues("failed").Inc()
		c.setState(StateFailed, err.Error())
		return "", err
	}
	c.okTotal.Add(1)
	sessionsTotal.WithLabelValues("complete").Inc()
	sessionDuration.Observe(time.Since(start).Seconds())
	c.setState(StateComplete, "")
	return text, nil
}

// run executes the state machine body. The caller owns the in-flight slot
// and the terminal transition.
func (c *Client) run(ctx context.Context, prompt string) (string, error) {
	c.setState(StateTokenizing, "")
	ids := tokenizer.Encode(c.vocab, prompt, c.cfg.MaxTokens)
	if len(ids) == 0 {
		return "", ErrPrecondition("prompt produced no tokens")
	}

	c.setState(StateEmbedding, "")
	tensor, err := c.head.Run(ctx, ids)
	if err != nil {
		return "", adapterError{cause: err}
	}
	body, err := wire.EncodePayload(tensor, types.OnesMask(len(ids)))
	if err != nil {
		// The adapter handed back a malformed tensor; same fate as a failed run.
		return "", adapterError{cause: err}
	}

	c.setState(StateSending, "")
	conn, err := c.dial(ctx, c.cfg.PeerAddr)
	if err != nil {
		return "", connectionError{cause: err}
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, body); err != nil {
		return "", connectionError{cause: err}
	}
	frameBytes.WithLabelValues("sent").Add(float64(len(body)))

	c.setState(StateAwaitingResponse, "")
	if c.cfg.ReceiveTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReceiveTimeout))
	}
	resp, err := wire.ReadFrame(conn)
	if err != nil {
		if wire.IsIncompleteFrame(err) {
			return "", err
		}
		return "", connectionError{cause: err}
	}
	frameBytes.WithLabelValues("received").Add(float64(len(resp)))

	c.setState(StateDecoding, "")
	return wire.DecodeText(resp)
}

// precondition publishes the message without leaving idle: the session never
// started, so there is nothing to fail.
func (c *Client) precondition(msg string) error {
	c.setState(StateIdle, msg)
	return ErrPrecondition(msg)
}

func (c *Client) setState(s State, msg string) {
	snap := Snapshot{State: s, Message: msg}
	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()
	c.pub.Publish(snap)
}

// Snapshot returns the last published session state.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Ready reports whether the client can accept requests at all.
func (c *Client) Ready() bool { return c.vocab != nil }

// Status builds the detailed status response for GET /status.
func (c *Client) Status() types.StatusResponse {
	snap := c.Snapshot()
	resp := types.StatusResponse{
		Session: types.SessionStatus{
			State:   string(snap.State),
			Message: snap.Message,
		},
		PeerAddr:       c.cfg.PeerAddr,
		HeadReady:      c.head != nil && c.head.Ready(),
		SessionsOK:     c.okTotal.Load(),
		SessionsFailed: c.failTotal.Load(),
		UptimeSeconds:  int64(time.Since(c.startTime).Seconds()),
	}
	if c.vocab != nil {
		resp.VocabSize = c.vocab.Size()
	}
	return resp
}
