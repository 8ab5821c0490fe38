package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// EventType enumerates the session-change notifications pushed to
// subscribers. Consumers treat all three uniformly as "session changed".
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is the payload delivered on every auth state change. Session is nil
// for EventSignedOut.
type Event struct {
	ID         string
	Type       EventType
	Session    *Session
	OccurredAt time.Time
}

// Session is a live authenticated connection: the token pair plus the
// identity it was issued for.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Account is the auth identity record, distinct from the application profile
// row. Metadata carries sign-up attributes such as the display name.
type Account struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Name returns the display name from sign-up metadata, or the local part of
// the email address when none was recorded.
func (a *Account) Name() string {
	if name, ok := a.Metadata["name"]; ok && name != "" {
		return name
	}
	if at := len(a.Email); at > 0 {
		for i, c := range a.Email {
			if c == '@' {
				return a.Email[:i]
			}
		}
	}
	return a.Email
}

type ServiceAPI interface {
	SignIn(ctx context.Context, dto LoginDTO) (*Session, error)
	SignUp(ctx context.Context, dto SignUpDTO) (*Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	Subscribe(handler EventHandler) (unsubscribe func())
}

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
