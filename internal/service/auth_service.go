package service

import (
	"errors"
	"fmt"
	"time"

	"quill-blog-server/internal/domain"
	"quill-blog-server/internal/repository"
	"quill-blog-server/pkg/hash"
	"quill-blog-server/pkg/jwt"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo          repository.UserRepository
	accessSecret      string
	refreshSecret     string
	accessExpiration  time.Duration
	refreshExpiration time.Duration
}

func NewAuthService(userRepo repository.UserRepository, accessSecret, refreshSecret string, accessExp, refreshExp time.Duration) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		accessSecret:      accessSecret,
		refreshSecret:     refreshSecret,
		accessExpiration:  accessExp,
		refreshExpiration: refreshExp,
	}
}

// IssueTokens mints the access/refresh pair for a user. The two tokens are
// signed with distinct secrets so one leaking verifier cannot validate both.
func (s *AuthService) IssueTokens(user *domain.User) (accessToken, refreshToken string, err error) {
	accessToken, err = jwt.GenerateAccessToken(user.ID, user.Username, s.accessExpiration, s.accessSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = jwt.GenerateRefreshToken(user.ID, s.refreshExpiration, s.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) Register(req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	existing, err := s.userRepo.FindByUsernameOrEmail(req.Username, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.Username == req.Username {
			return nil, &DuplicateFieldError{Field: "Username"}
		}
		return nil, &DuplicateFieldError{Field: "Email"}
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, refreshToken, err := s.IssueTokens(user)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         sanitize(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) Login(req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.userRepo.FindByIdentifier(req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := hash.Compare(user.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.IssueTokens(user)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         sanitize(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh verifies the long-lived token, re-reads the user and rotates the
// whole pair. The old refresh token stays cryptographically valid until its
// natural expiry; there is no server-side revocation list.
func (s *AuthService) Refresh(refreshToken string) (*domain.AuthResponse, error) {
	claims, err := jwt.ValidateToken(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	newAccess, newRefresh, err := s.IssueTokens(user)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         sanitize(user),
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
	}, nil
}

// sanitize returns a copy safe to hand to clients: no password hash.
func sanitize(user *domain.User) *domain.User {
	clean := *user
	clean.Password = ""
	return &clean
}
