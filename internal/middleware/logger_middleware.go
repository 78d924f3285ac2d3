package middleware

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"time"
)

// principal is a mutable slot the logger seeds into the context before the
// rest of the chain runs. Context values only flow inward, so the auth
// middleware fills the slot in place for the logger to read afterwards.
type principal struct {
	username string
}

type principalKey struct{}

func notePrincipal(r *http.Request, username string) {
	if p, ok := r.Context().Value(principalKey{}).(*principal); ok {
		p.username = username
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func LoggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			p := &principal{}
			r = r.WithContext(context.WithValue(r.Context(), principalKey{}, p))

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			username := p.username
			if username == "" {
				username = "anonymous"
			}

			log.Printf("[%s] %s %s - Status: %d - Duration: %v - User: %s",
				r.Method,
				r.URL.Path,
				r.RemoteAddr,
				rw.statusCode,
				duration,
				username,
			)
		})
	}
}
