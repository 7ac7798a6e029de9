package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	appErr "github.com/luxequeer/deployer/pkg/errors"
)

// OperatorSubject is the JWT subject of the single operator account.
const OperatorSubject = "operator"

// TokenTTL is how long an issued operator token stays valid.
const TokenTTL = 24 * time.Hour

// MinPasswordLength applies to HashPassword.
const MinPasswordLength = 8

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService interface {
	Login(ctx context.Context, password string) (Token, error)
	Issue(subject string, ttl time.Duration) (Token, error)
}

type authService struct {
	passwordHash []byte
	hmacSecret   []byte
	now          func() time.Time
}

// NewAuthService checks operator passwords against a bcrypt hash. An empty hash
// disables Login; Issue keeps working for the CLI.
func NewAuthService(passwordHash string, secret []byte) AuthService {
	return &authService{passwordHash: []byte(passwordHash), hmacSecret: secret, now: time.Now}
}

var _ AuthService = (*authService)(nil)

func (s *authService) Login(_ context.Context, password string) (Token, error) {
	if len(s.passwordHash) == 0 {
		return Token{}, appErr.New(appErr.CodeUnavailable, "operator login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return Token{}, appErr.New(appErr.CodeUnauthorized, "invalid credentials")
	}
	return s.Issue(OperatorSubject, TokenTTL)
}

func (s *authService) Issue(subject string, ttl time.Duration) (Token, error) {
	if len(s.hmacSecret) == 0 {
		return Token{}, appErr.New(appErr.CodeInvalid, "jwt secret is empty")
	}
	now := s.now()
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return Token{}, appErr.Wrap(err, appErr.CodeInternal, "sign token")
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp}, nil
}

// HashPassword produces the value for OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", appErr.Newf(appErr.CodeInvalid, "password must be at least %d characters", MinPasswordLength)
	}
	ph, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeInternal, "hash password")
	}
	return string(ph), nil
}
