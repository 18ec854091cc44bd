package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleOrganizer = "organizer"

	ClaimRole = "role"

	defaultTokenTTL = 24 * time.Hour
)

type AuthService interface {
	// IssueOrganizerToken checks the organizer password and returns a signed
	// token carrying the organizer role.
	IssueOrganizerToken(ctx context.Context, password string) (string, time.Time, error)
}

type authService struct {
	passwordHash []byte
	jwtSecret    []byte
	ttl          time.Duration
	clock        func() time.Time
}

func NewAuthService(passwordHash, jwtSecret string, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &authService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		ttl:          ttl,
		clock:        time.Now,
	}
}

func (s *authService) IssueOrganizerToken(ctx context.Context, password string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, fmt.Errorf("%w: password is required", ErrValidationFailed)
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("failed to compare password hash: %w", err)
	}

	now := s.clock()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		ClaimRole: RoleOrganizer,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}
