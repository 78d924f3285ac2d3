package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/jwt"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestLoggerMiddlewareLogsAuthenticatedUsername(t *testing.T) {
	buf := captureLog(t)

	token, err := jwt.GenerateAccessToken("user-1", "alice", 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	// The logger wraps the auth guard, mirroring the router's middleware
	// order, so the log line must still carry the name auth extracted.
	handler := LoggerMiddleware()(AuthMiddleware(testSecret)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	req := httptest.NewRequest("GET", "/api/v1/posts", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessTokenCookie, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	line := buf.String()
	if !strings.Contains(line, "User: alice") {
		t.Errorf("log line %q does not name the authenticated user", line)
	}
	if strings.Contains(line, "anonymous") {
		t.Errorf("log line %q reports an authenticated request as anonymous", line)
	}
}

func TestLoggerMiddlewareLogsAnonymousWithoutSession(t *testing.T) {
	buf := captureLog(t)

	handler := LoggerMiddleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if line := buf.String(); !strings.Contains(line, "User: anonymous") {
		t.Errorf("log line %q does not fall back to anonymous", line)
	}
}

func TestLoggerMiddlewareRecordsStatus(t *testing.T) {
	buf := captureLog(t)

	handler := LoggerMiddleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)

	req := httptest.NewRequest("GET", "/api/v1/posts/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if line := buf.String(); !strings.Contains(line, "Status: 404") {
		t.Errorf("log line %q does not carry the response status", line)
	}
}
