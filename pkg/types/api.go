package types

// InferRequest is the body of POST /infer.
type InferRequest struct {
	// Required prompt text to run split inference for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
}

// InferResponse is returned by POST /infer on success.
type InferResponse struct {
	// Generated text returned by the remote peer.
	// example: Salt wind over waves.
	Text string `json:"text" example:"Salt wind over waves."`
	// Wall-clock duration of the full exchange in milliseconds.
	// example: 412
	DurationMS int64 `json:"duration_ms" example:"412"`
}

// SessionStatus summarizes the current (or last) session for GET /status.
type SessionStatus struct {
	// Current session state (idle, tokenizing, embedding, sending,
	// awaiting_response, decoding, complete, failed).
	// example: idle
	State string `json:"state" example:"idle"`
	// Human-readable message for the last transition (error text on failure).
	Message string `json:"message,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Current or last session.
	Session SessionStatus `json:"session"`
	// Remote peer address (host:port).
	// example: 192.168.1.20:5000
	PeerAddr string `json:"peer_addr" example:"192.168.1.20:5000"`
	// Number of vocabulary entries loaded.
	// example: 50257
	VocabSize int `json:"vocab_size" example:"50257"`
	// Whether a head-model adapter is available in this build.
	// example: true
	HeadReady bool `json:"head_ready" example:"true"`
	// Total sessions completed successfully since start.
	// example: 12
	SessionsOK uint64 `json:"sessions_ok" example:"12"`
	// Total sessions that ended in failure since start.
	// example: 2
	SessionsFailed uint64 `json:"sessions_failed" example:"2"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: prompt is required
	Error string `json:"error" example:"prompt is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
