package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

const tokenIssuer = "visrabackend"

// Service owns session lifecycle: create on login/register, replace on
// re-login, destroy on logout. It is constructed once in main and injected
// into every handler that needs authentication.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	jwtKey   []byte
	tokenTTL time.Duration
}

func NewService(users repository.UserRepository, sessions repository.SessionRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwtKey:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// Login verifies the credential and establishes a new session, replacing any
// previously live session for the same principal. Tokens are opaque bearer
// strings to callers.
func (s *Service) Login(email, password string) (*models.Session, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}
	if !user.Active || !user.CheckPassword(password) {
		return nil, ErrAuthentication
	}
	return s.establishSession(user)
}

// Register creates the principal and immediately establishes a session for
// it. A duplicate email fails with ErrConflict.
func (s *Service) Register(email, password, displayName string) (*models.Session, error) {
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user %s: %w", email, err)
	}

	user := &models.User{
		Email:       email,
		DisplayName: displayName,
		Role:        models.RoleUser,
		Active:      true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return s.establishSession(user)
}

// Refresh exchanges a refresh token for a fresh access token. An unknown or
// revoked token fails with ErrAuthentication, forcing a re-login.
func (s *Service) Refresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrAuthentication
	}
	session, err := s.sessions.GetByRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAuthentication
		}
		return "", fmt.Errorf("failed to look up refresh token: %w", err)
	}

	accessToken, err := s.issueAccessToken(session.Principal.ID)
	if err != nil {
		return "", err
	}
	if err := s.sessions.UpdateAccessToken(session.ID, accessToken); err != nil {
		return "", fmt.Errorf("failed to store refreshed access token: %w", err)
	}
	return accessToken, nil
}

// Logout destroys the user's session unconditionally. Calling it with no
// live session is a no-op.
func (s *Service) Logout(userID uint) error {
	if err := s.sessions.DeleteByUserID(userID); err != nil {
		return fmt.Errorf("failed to clear session for user %d: %w", userID, err)
	}
	return nil
}

// ParseAccessToken validates a bearer token and returns the principal's user
// ID from its subject claim.
func (s *Service) ParseAccessToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrAuthentication
	}

	var userID uint
	if _, err := fmt.Sscan(claims.Subject, &userID); err != nil {
		log.Printf("auth: malformed token subject %q: %v", claims.Subject, err)
		return 0, ErrAuthentication
	}
	return userID, nil
}

// GetUser loads a principal by ID for middleware use.
func (s *Service) GetUser(userID uint) (*models.User, error) {
	return s.users.GetByID(userID)
}

func (s *Service) establishSession(user *models.User) (*models.Session, error) {
	accessToken, err := s.issueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		Principal:    user.Principal(),
		AccessToken:  accessToken,
		RefreshToken: uuid.NewString(),
	}
	if err := s.sessions.Replace(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) issueAccessToken(userID uint) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(userID),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
