package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is canceled on shutdown so waiting handlers return early.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context canceled when either a or b is done.
// The returned cancel func must be called when the handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// waitContext bounds a handler that blocks on an engine by readyTimeout,
// the client connection and server shutdown.
func waitContext(r *http.Request) (context.Context, context.CancelFunc) {
	joined, cancelJoin := joinContexts(serverBaseCtx, r.Context())
	ctx, cancel := context.WithTimeout(joined, readyTimeout)
	return ctx, func() {
		cancel()
		cancelJoin()
	}
}
