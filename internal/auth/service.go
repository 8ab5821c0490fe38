package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service is the auth capability of the backend client: credential
// verification, session issuance, and push notification of session changes.
// It keeps the one live session in memory; everything downstream reacts to
// the events it publishes rather than polling.
type Service struct {
	accounts   AccountRepository
	tokenGen   TokenGeneratorAPI
	bus        *EventBus
	logger     *slog.Logger
	bcryptCost int

	mu      sync.RWMutex
	current *Session
}

func NewService(accounts AccountRepository, tokenGen TokenGeneratorAPI, bus *EventBus, logger *slog.Logger, bcryptCost int) *Service {
	return &Service{
		accounts:   accounts,
		tokenGen:   tokenGen,
		bus:        bus,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// SignIn validates credentials, installs the new session and pushes
// EventSignedIn. The returned session is the caller's raw result; local
// consumers are expected to react to the event instead.
func (s *Service) SignIn(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Warn("sign in: account lookup failed", "email", dto.Email, "error", err)
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.setCurrent(session)
	s.bus.Publish(ctx, EventSignedIn, session)

	s.logger.Info("signed in", "user_id", account.ID)
	return session, nil
}

// SignUp registers the credential and signs the new account in. Profile
// reconciliation is the session layer's concern, not ours.
func (s *Service) SignUp(ctx context.Context, dto SignUpDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        dto.Email,
		PasswordHash: hash,
		Metadata:     map[string]string{},
		CreatedAt:    time.Now(),
	}
	if dto.Name != "" {
		account.Metadata["name"] = dto.Name
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		s.logger.Error("sign up: account creation failed", "email", dto.Email, "error", err)
		return nil, err
	}

	session, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.setCurrent(session)
	s.bus.Publish(ctx, EventSignedIn, session)

	s.logger.Info("signed up", "user_id", account.ID)
	return session, nil
}

// SignOut drops the current session and pushes EventSignedOut. Signing out
// without a session is a no-op, not an error.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.bus.Publish(ctx, EventSignedOut, nil)
		s.logger.Info("signed out")
	}
	return nil
}

// CurrentSession returns the live session, or ErrNoSession when nobody is
// signed in.
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	session := *s.current
	return &session, nil
}

// GetAccount fetches the auth identity record for profile resolution.
func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) Subscribe(handler EventHandler) func() {
	return s.bus.Subscribe(handler)
}

// Refresh reissues the token pair for the current session and pushes
// EventTokenRefreshed. Consumers treat it the same as any session change.
func (s *Service) Refresh(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return nil, ErrNoSession
	}

	claims, err := s.tokenGen.ValidateToken(current.RefreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}
	session.ID = current.ID // refreshing keeps the session identity

	s.setCurrent(session)
	s.bus.Publish(ctx, EventTokenRefreshed, session)

	return session, nil
}

// RunRefresher refreshes the session on a fixed cadence until ctx is done.
// Failures are logged and retried on the next tick; a missing session is
// simply skipped.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrNoSession) {
				s.logger.Error("session refresh failed", "error", err)
			}
		}
	}
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateToken(tokenString)
}

func (s *Service) issueSession(account *Account) (*Session, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	ttl := 15 * time.Minute
	if gen, ok := s.tokenGen.(*JWTTokenGenerator); ok {
		ttl = gen.AccessTokenTTL
	}

	return &Session{
		ID:           uuid.NewString(),
		UserID:       account.ID,
		Email:        account.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(ttl),
	}, nil
}

func (s *Service) setCurrent(session *Session) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.signToken(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.signToken(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) signToken(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Long-lived tokens were signed with the refresh secret.
		if claims, ok := token.Claims.(*Claims); ok {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
