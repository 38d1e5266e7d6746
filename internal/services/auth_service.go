package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"charity-auction/internal/auth"
	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles email/password login. Attempts run through the rate
// limiter under the login action; a successful login clears the record so a
// user is not penalized for earlier failed attempts.
type AuthService struct {
	repo      *repository.Repository
	rateLimit *RateLimitService
}

func NewAuthService(repo *repository.Repository, rateLimit *RateLimitService) *AuthService {
	return &AuthService{
		repo:      repo,
		rateLimit: rateLimit,
	}
}

// Login verifies credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if err := s.rateLimit.Check(ctx, email, ActionLogin); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ValidationError{Reason: "invalid email or password"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, &ValidationError{Reason: "invalid email or password"}
	}

	if err := s.rateLimit.Clear(ctx, email, ActionLogin); err != nil {
		log.Printf("[Auth] failed to clear rate limit for %s: %v", email, err)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("User logged in: %s (ID: %d)", user.Email, user.ID)
	return &models.LoginResponse{Token: token, User: *user}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}
