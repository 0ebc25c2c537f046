package service

import (
	"errors"
	"fmt"
	"time"

	"groov/config"
	"groov/internal/auth"
	"groov/internal/domain"
	"groov/internal/models"
	"groov/internal/repository"

	"gorm.io/gorm"
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// TokenPair is the issued credential set. The refresh token must only ever
// travel in an HTTP-only cookie, never in a response body.
type TokenPair struct {
	Access  string
	Refresh string
}

// LoginWithProfile upserts the user for a verified identity assertion and
// issues a token pair. Existing users are matched by email; the provider
// subject becomes the user id on first login.
func (s *AuthService) LoginWithProfile(sub, name, email, image string) (*models.User, TokenPair, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TokenPair{}, err
		}
		u = &models.User{
			ID:    sub,
			Name:  name,
			Image: image,
			Email: email,
		}
		if err := s.userRepo.Create(u); err != nil {
			return nil, TokenPair{}, err
		}
	}
	pair, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates a refresh token and issues a fresh access token. The
// subject must still resolve to a user record.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthenticated)
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		return "", err
	}
	return auth.GenerateAccessToken(&s.cfg.JWT, userID)
}

func (s *AuthService) issueTokens(userID string) (TokenPair, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, userID, time.Now())
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
