package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"blog-api/internal/obs"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(requestIDHeader) == "" {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware must sit directly above the mux so that r.Pattern is
// populated by the time the handler returns.
func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		d := time.Since(start)
		obs.ObserveRequest(r.Method, r.Pattern, rec.status, d)
		obs.WithTrace(r.Context(), log).Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("request_id", r.Header.Get(requestIDHeader)),
			zap.Duration("duration", d),
		)
	})
}

// recoverMiddleware turns a handler panic into a 500 when nothing has been
// written yet. http.ErrAbortHandler is re-raised for net/http to handle.
func recoverMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusRecorder{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error("panic in handler",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path),
				zap.Bool("headers_sent", sw.status != 0),
				zap.ByteString("stack", debug.Stack()),
			)
			if sw.status == 0 {
				writeInternal(w)
			}
		}()
		next.ServeHTTP(sw, r)
	})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
	}).Handler(next)
}
