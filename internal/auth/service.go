package auth

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidCredentials is returned for any login failure. Unknown email
// and wrong password are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service handles login and token refresh.
type Service struct {
	users   UserStore
	manager *Manager
	clock   func() time.Time
}

func NewService(users UserStore, manager *Manager) *Service {
	return &Service{users: users, manager: manager, clock: time.Now}
}

func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, User, error) {
	if email == "" || password == "" {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, User{}, ErrInvalidCredentials
		}
		return TokenPair{}, User{}, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}

	pair, err := s.manager.IssuePair(s.clock(), u.ID, u.Role)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	return pair, u, nil
}

// Refresh exchanges a refresh token for a new pair. The role is re-read
// from the user store, not taken from the old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.manager.Verify(refreshToken, TokenTypeRefresh, s.clock())
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	return s.manager.IssuePair(s.clock(), u.ID, u.Role)
}
