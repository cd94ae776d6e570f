package httpapi

import (
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// readyTimeout bounds POST /engines/{id}/load?wait=true.
var readyTimeout = 10 * time.Second

// SetReadyTimeout sets how long a waiting load may block for the handshake.
// Non-positive values restore the default.
func SetReadyTimeout(d time.Duration) {
	if d <= 0 {
		d = 10 * time.Second
	}
	readyTimeout = d
}

// Think throttling. A zero rate disables the limiter.
var (
	thinkRate  rate.Limit = 2
	thinkBurst            = 4
)

// SetThinkRate configures the POST /think/start limiter for muxes built afterwards.
func SetThinkRate(perSecond float64, burst int) {
	if perSecond <= 0 {
		thinkRate = rate.Inf
	} else {
		thinkRate = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	thinkBurst = burst
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
