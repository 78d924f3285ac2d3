package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill-blog-server/internal/domain"
	"quill-blog-server/internal/repository"
	"quill-blog-server/internal/service"
	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/hash"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (s *stubUserRepo) Create(user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) FindByID(id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) FindByIdentifier(identifier string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) FindByUsernameOrEmail(username, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestAuthHandler(repo repository.UserRepository) *AuthHandler {
	authService := service.NewAuthService(repo, "access-secret", "refresh-secret", 15*time.Minute, 30*24*time.Hour)
	cookieManager := cookies.NewManager(false, 15*time.Minute, 30*24*time.Hour)
	return NewAuthHandler(authService, cookieManager)
}

func sessionCookies(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case cookies.AccessTokenCookie:
			access = c
		case cookies.RefreshTokenCookie:
			refresh = c
		}
	}
	return access, refresh
}

func TestAuthHandler_RegisterSetsSessionCookies(t *testing.T) {
	h := newTestAuthHandler(newStubUserRepo())

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "Password123!",
	})

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	access, refresh := sessionCookies(t, rec)
	if access == nil || access.Value == "" {
		t.Error("register must set the access-token cookie")
	}
	if refresh == nil || refresh.Value == "" {
		t.Error("register must set the refresh-token cookie")
	}
	if refresh != nil && refresh.Path != cookies.RefreshCookiePath {
		t.Errorf("refresh cookie path = %s", refresh.Path)
	}

	if bytes.Contains(rec.Body.Bytes(), []byte("Password123!")) {
		t.Error("response body must not echo the password")
	}
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{
			name: "missing fields",
			body: map[string]string{"username": "alice"},
		},
		{
			name: "bad email",
			body: map[string]string{
				"username": "alice",
				"name":     "Alice",
				"email":    "not-an-email",
				"password": "Password123!",
			},
		},
		{
			name: "short password",
			body: map[string]string{
				"username": "alice",
				"name":     "Alice",
				"email":    "alice@example.com",
				"password": "short",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAuthHandler(newStubUserRepo())

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	repo := newStubUserRepo()
	hashedPw, _ := hash.Hash("CorrectPass123!")
	repo.Create(&domain.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: hashedPw,
	})
	h := newTestAuthHandler(repo)

	doLogin := func(username, password string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"username": username, "password": password})
		req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		return rec
	}

	wrongPass := doLogin("alice", "wrong-password")
	noUser := doLogin("nonexistent", "anything123")

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want both 401", wrongPass.Code, noUser.Code)
	}

	if wrongPass.Body.String() != noUser.Body.String() {
		t.Errorf("failure bodies differ: %s vs %s", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestAuthHandler_LogoutClearsCookies(t *testing.T) {
	h := newTestAuthHandler(newStubUserRepo())

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	access, refresh := sessionCookies(t, rec)
	if access == nil || refresh == nil {
		t.Fatal("logout must rewrite both session cookies")
	}
	if access.Value != "" || access.MaxAge >= 0 {
		t.Errorf("access cookie not cleared: value=%q maxage=%d", access.Value, access.MaxAge)
	}
	if refresh.Value != "" || refresh.MaxAge >= 0 {
		t.Errorf("refresh cookie not cleared: value=%q maxage=%d", refresh.Value, refresh.MaxAge)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	repo := newStubUserRepo()
	user := &domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}
	repo.Create(user)
	h := newTestAuthHandler(repo)

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/refresh-token", nil)
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: cookies.RefreshTokenCookie, Value: "garbage"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("valid token rotates cookies", func(t *testing.T) {
		authService := service.NewAuthService(repo, "access-secret", "refresh-secret", 15*time.Minute, 30*24*time.Hour)
		_, refreshToken, err := authService.IssueTokens(user)
		if err != nil {
			t.Fatalf("IssueTokens() error = %v", err)
		}

		req := httptest.NewRequest("POST", "/api/v1/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: cookies.RefreshTokenCookie, Value: refreshToken})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}

		access, refresh := sessionCookies(t, rec)
		if access == nil || access.Value == "" || refresh == nil || refresh.Value == "" {
			t.Error("refresh must reset both session cookies")
		}
	})
}
