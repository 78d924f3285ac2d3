package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"quill-blog-server/internal/domain"
	"quill-blog-server/internal/service"
	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService *service.AuthService
	cookies     *cookies.Manager
	validator   *validator.Validate
}

func NewAuthHandler(authService *service.AuthService, cookieManager *cookies.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookieManager,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	auth, err := h.authService.Register(&req)
	if err != nil {
		var dup *service.DuplicateFieldError
		if errors.As(err, &dup) {
			response.BadRequest(w, dup.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	h.cookies.SetSession(w, auth.AccessToken, auth.RefreshToken)

	response.Message(w, http.StatusCreated, "User registered successfully", auth.User)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	auth, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	h.cookies.SetSession(w, auth.AccessToken, auth.RefreshToken)

	response.Message(w, http.StatusOK, "User logged in successfully", auth.User)
}

// Refresh rotates the full token pair off the refresh cookie. The cookie is
// path-scoped to this endpoint, so it only ever arrives here.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cookies.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		response.Unauthorized(w, service.ErrNoRefreshToken.Error())
		return
	}

	auth, err := h.authService.Refresh(cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) || errors.Is(err, service.ErrUserNotFound) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	h.cookies.SetSession(w, auth.AccessToken, auth.RefreshToken)

	response.Message(w, http.StatusOK, "Token refreshed successfully", nil)
}

// Logout clears the session cookies. Issued tokens stay valid until natural
// expiry; there is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSession(w)

	response.Message(w, http.StatusOK, "Logged out successfully", nil)
}
