package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/jwt"
)

const testSecret = "middleware-test-secret"

func protectedHandler(t *testing.T, called *bool, wantUserID, wantUsername string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if got := GetUserID(r); got != wantUserID {
			t.Errorf("GetUserID() = %s, want %s", got, wantUserID)
		}
		if got := GetUsername(r); got != wantUsername {
			t.Errorf("GetUsername() = %s, want %s", got, wantUsername)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	validToken, err := jwt.GenerateAccessToken("user-1", "alice", 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	expiredToken, _ := jwt.GenerateAccessToken("user-1", "alice", -1*time.Minute, testSecret)
	forgedToken, _ := jwt.GenerateAccessToken("user-1", "alice", 15*time.Minute, "other-secret")

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "no cookie",
			cookie:     nil,
			wantStatus: http.StatusForbidden,
			wantCalled: false,
		},
		{
			name:       "empty cookie",
			cookie:     &http.Cookie{Name: cookies.AccessTokenCookie, Value: ""},
			wantStatus: http.StatusForbidden,
			wantCalled: false,
		},
		{
			name:       "expired token",
			cookie:     &http.Cookie{Name: cookies.AccessTokenCookie, Value: expiredToken},
			wantStatus: http.StatusForbidden,
			wantCalled: false,
		},
		{
			name:       "forged token",
			cookie:     &http.Cookie{Name: cookies.AccessTokenCookie, Value: forgedToken},
			wantStatus: http.StatusForbidden,
			wantCalled: false,
		},
		{
			name:       "valid token",
			cookie:     &http.Cookie{Name: cookies.AccessTokenCookie, Value: validToken},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			guard := AuthMiddleware(testSecret)
			handler := guard(protectedHandler(t, &called, "user-1", "alice"))

			req := httptest.NewRequest("GET", "/api/v1/posts", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestAuthMiddlewareTokenInHeaderIsIgnored(t *testing.T) {
	validToken, _ := jwt.GenerateAccessToken("user-1", "alice", 15*time.Minute, testSecret)

	called := false
	guard := AuthMiddleware(testSecret)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Session lives in the cookie only; a bearer header must not authenticate.
	req := httptest.NewRequest("GET", "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if called {
		t.Error("handler must not run without the access-token cookie")
	}
}
