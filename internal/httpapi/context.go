package httpapi

import (
	"context"
)

// serverBaseCtx is the daemon-lifetime context. cmd/edged cancels it when
// shutdown begins so an in-flight split-inference exchange is abandoned
// instead of holding the peer connection open past the drain window.
// Defaults to Background if never set.
var serverBaseCtx = context.Background()

// SetBaseContext installs the daemon-lifetime context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled when either the daemon shuts down
// or the HTTP client disconnects, whichever comes first. The returned cancel
// func must be called when the handler ends to release the goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
