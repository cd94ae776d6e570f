package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"ucid/pkg/types"
)

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	thinkLimiter := rate.NewLimiter(thinkRate, thinkBurst)

	r.Get("/engines", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Engines())
	})

	r.Post("/engines/stop", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		svc.StopAll()
		logRequest(r, "stop all", http.StatusOK, start, nil)
		writeJSON(w, http.StatusOK, svc.Engines())
	})

	r.Route("/engines/{id}", func(r chi.Router) {
		r.Put("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := slotParam(w, r)
			if !ok {
				return
			}
			var e types.Engine
			if !decodeJSON(w, r, &e) {
				return
			}
			if strings.TrimSpace(e.Path) == "" {
				writeJSONError(w, http.StatusBadRequest, "path is required")
				return
			}
			if err := svc.Configure(id, e); err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/load", func(w http.ResponseWriter, r *http.Request) {
			id, ok := slotParam(w, r)
			if !ok {
				return
			}
			start := time.Now()
			st, err := svc.Load(r.Context(), id)
			if err != nil {
				code := statusFor(err)
				logRequest(r, "engine load", code, start, err)
				writeJSONError(w, code, err.Error())
				return
			}
			if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
				logRequest(r, "engine load", http.StatusAccepted, start, nil)
				writeJSON(w, http.StatusAccepted, st)
				return
			}
			ctx, cancel := waitContext(r)
			defer cancel()
			st, err = svc.WaitReady(ctx, id)
			if err != nil {
				if r.Context().Err() != nil {
					return
				}
				code := statusFor(err)
				logRequest(r, "engine load", code, start, err)
				writeJSONError(w, code, err.Error())
				return
			}
			logRequest(r, "engine load", http.StatusOK, start, nil)
			writeJSON(w, http.StatusOK, st)
		})

		r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
			id, ok := slotParam(w, r)
			if !ok {
				return
			}
			start := time.Now()
			if err := svc.Stop(id); err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			logRequest(r, "engine stop", http.StatusOK, start, nil)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/output", func(w http.ResponseWriter, r *http.Request) {
			id, ok := slotParam(w, r)
			if !ok {
				return
			}
			out, err := svc.Output(id)
			if err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(out))
		})
	})

	r.Put("/active", func(w http.ResponseWriter, r *http.Request) {
		var req types.ActiveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.SetActive(req.AutoPlay); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, svc.Engines())
	})

	r.Post("/think/start", func(w http.ResponseWriter, r *http.Request) {
		if !thinkLimiter.Allow() {
			IncrementBackpressure("think_rate")
			writeJSONError(w, http.StatusTooManyRequests, "think rate exceeded")
			return
		}
		start := time.Now()
		resp := types.ThinkResponse{Dispatched: svc.StartThinking()}
		logRequest(r, "think start", http.StatusOK, start, nil)
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/think/stop", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		svc.StopThinking()
		logRequest(r, "think stop", http.StatusNoContent, start, nil)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// slotParam parses the {id} URL parameter. Range checks are left to the
// service so out-of-range ids map to 404.
func slotParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid slot id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

// decodeJSON enforces the content type and body limit and decodes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
