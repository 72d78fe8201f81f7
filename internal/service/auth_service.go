package service

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
)

const (
	SessionDuration = 24 * time.Hour
	operatorSubject = "operator"
)

var (
	ErrInvalidPassword    = errors.New("invalid password")
	ErrLoginNotConfigured = errors.New("operator password is not configured")
)

// AuthService guards the dashboard API behind a single operator password.
type AuthService interface {
	Login(password string) (string, error)
	Validate(token string) (string, error)
}

type authService struct {
	password  string
	secretKey string
}

func NewAuthService(password, secretKey string) AuthService {
	return &authService{password: password, secretKey: secretKey}
}

func (s *authService) Login(password string) (string, error) {
	if s.password == "" {
		return "", ErrLoginNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		slog.Warn("rejected operator login")
		return "", ErrInvalidPassword
	}
	return utils.GenerateToken(s.secretKey, operatorSubject, SessionDuration)
}

// Validate returns the session subject of a valid token.
func (s *authService) Validate(token string) (string, error) {
	claims, err := utils.ValidateToken(s.secretKey, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
