package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/expense-portal/internal"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock account repository for testing
type mockAccountRepository struct {
	byEmail       map[string]*Account
	byID          map[string]*Account
	returnError   bool
	errorToReturn error
}

func newMockAccountRepository() *mockAccountRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	repo := &mockAccountRepository{
		byEmail: make(map[string]*Account),
		byID:    make(map[string]*Account),
	}
	for id, email := range map[string]string{
		"acc-1": "user@example.com",
		"acc-2": "admin@example.com",
	} {
		account := &Account{
			ID:           id,
			Email:        email,
			PasswordHash: string(hash),
			Metadata:     map[string]string{},
			CreatedAt:    time.Now(),
		}
		repo.byEmail[email] = account
		repo.byID[id] = account
	}
	return repo
}

func (m *mockAccountRepository) GetByEmail(_ context.Context, email string) (*Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if account, ok := m.byEmail[email]; ok {
		return account, nil
	}
	return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "account not found", nil)
}

func (m *mockAccountRepository) GetByID(_ context.Context, id string) (*Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if account, ok := m.byID[id]; ok {
		return account, nil
	}
	return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "account not found", nil)
}

func (m *mockAccountRepository) Create(_ context.Context, account *Account) error {
	if m.returnError {
		return m.errorToReturn
	}
	if _, exists := m.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}
	m.byEmail[account.Email] = account
	m.byID[account.ID] = account
	return nil
}

func (m *mockAccountRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockAccountRepository
		bus      *EventBus
		events   []Event
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockAccountRepository()
		bus = NewEventBus(testLogger())
		tokenGen := NewJWTTokenGenerator("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
		service = NewService(mockRepo, tokenGen, bus, testLogger(), bcrypt.MinCost)

		events = nil
		bus.Subscribe(func(_ context.Context, event Event) {
			events = append(events, event)
		})
	})

	ginkgo.Describe("SignIn", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return a session with tokens", func() {
				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "correct_password",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(session).ToNot(gomega.BeNil())
				gomega.Expect(session.UserID).To(gomega.Equal("acc-1"))
				gomega.Expect(session.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(session.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(session.AccessToken).ToNot(gomega.Equal(session.RefreshToken))
			})

			ginkgo.It("should publish a signed-in event carrying the session", func() {
				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "correct_password",
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				gomega.Expect(events).To(gomega.HaveLen(1))
				gomega.Expect(events[0].Type).To(gomega.Equal(EventSignedIn))
				gomega.Expect(events[0].Session.ID).To(gomega.Equal(session.ID))
			})

			ginkgo.It("should install the session as current", func() {
				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "correct_password",
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				current, err := service.CurrentSession(ctx)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(current.ID).To(gomega.Equal(session.ID))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should return ErrInvalidCredentials for unknown email", func() {
				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "nobody@example.com",
					Password: "any_password",
				})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(session).To(gomega.BeNil())
				gomega.Expect(events).To(gomega.BeEmpty())
			})

			ginkgo.It("should return ErrInvalidCredentials for wrong password", func() {
				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "wrong_password",
				})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(session).To(gomega.BeNil())
			})

			ginkgo.It("should mask repository failures as ErrInvalidCredentials", func() {
				mockRepo.setError(errors.New("database down"))

				session, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "correct_password",
				})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(session).To(gomega.BeNil())
			})
		})

		ginkgo.Context("when input validation fails", func() {
			ginkgo.It("should return validation error for empty email", func() {
				_, err := service.SignIn(ctx, LoginDTO{Password: "password"})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("email is required"))
			})

			ginkgo.It("should return validation error for empty password", func() {
				_, err := service.SignIn(ctx, LoginDTO{Email: "user@example.com"})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("password is required"))
			})
		})
	})

	ginkgo.Describe("SignUp", func() {
		ginkgo.It("should create the account and sign it in", func() {
			session, err := service.SignUp(ctx, SignUpDTO{
				Email:    "new@example.com",
				Password: "long_enough_password",
				Name:     "New User",
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(session).ToNot(gomega.BeNil())

			account, err := mockRepo.GetByEmail(ctx, "new@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(account.Metadata["name"]).To(gomega.Equal("New User"))
			gomega.Expect(session.UserID).To(gomega.Equal(account.ID))

			gomega.Expect(events).To(gomega.HaveLen(1))
			gomega.Expect(events[0].Type).To(gomega.Equal(EventSignedIn))
		})

		ginkgo.It("should reject a short password", func() {
			_, err := service.SignUp(ctx, SignUpDTO{
				Email:    "new@example.com",
				Password: "short",
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("at least 8 characters"))
		})

		ginkgo.It("should surface a taken email", func() {
			_, err := service.SignUp(ctx, SignUpDTO{
				Email:    "user@example.com",
				Password: "long_enough_password",
			})

			gomega.Expect(err).To(gomega.Equal(ErrEmailTaken))
			gomega.Expect(events).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("SignOut", func() {
		ginkgo.Context("with an active session", func() {
			ginkgo.BeforeEach(func() {
				_, err := service.SignIn(ctx, LoginDTO{
					Email:    "user@example.com",
					Password: "correct_password",
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				events = nil
			})

			ginkgo.It("should clear the session and publish signed-out", func() {
				err := service.SignOut(ctx)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				_, err = service.CurrentSession(ctx)
				gomega.Expect(err).To(gomega.Equal(ErrNoSession))

				gomega.Expect(events).To(gomega.HaveLen(1))
				gomega.Expect(events[0].Type).To(gomega.Equal(EventSignedOut))
				gomega.Expect(events[0].Session).To(gomega.BeNil())
			})
		})

		ginkgo.Context("without a session", func() {
			ginkgo.It("should succeed without publishing anything", func() {
				err := service.SignOut(ctx)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(events).To(gomega.BeEmpty())
			})
		})
	})

	ginkgo.Describe("CurrentSession", func() {
		ginkgo.It("should return ErrNoSession when nobody is signed in", func() {
			session, err := service.CurrentSession(ctx)
			gomega.Expect(err).To(gomega.Equal(ErrNoSession))
			gomega.Expect(session).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("Refresh", func() {
		ginkgo.It("should return ErrNoSession when nobody is signed in", func() {
			_, err := service.Refresh(ctx)
			gomega.Expect(err).To(gomega.Equal(ErrNoSession))
		})

		ginkgo.It("should keep the session identity across refreshes", func() {
			session, err := service.SignIn(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			events = nil

			refreshed, err := service.Refresh(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.ID).To(gomega.Equal(session.ID))
			gomega.Expect(refreshed.UserID).To(gomega.Equal(session.UserID))

			gomega.Expect(events).To(gomega.HaveLen(1))
			gomega.Expect(events[0].Type).To(gomega.Equal(EventTokenRefreshed))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should return the claims of a valid token", func() {
			session, err := service.SignIn(ctx, LoginDTO{
				Email:    "admin@example.com",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(session.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("acc-2"))
			gomega.Expect(claims.Email).To(gomega.Equal("admin@example.com"))
		})

		ginkgo.It("should return error for a malformed token", func() {
			claims, err := service.ValidateAccessToken("not.a.token")
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(claims).To(gomega.BeNil())
		})
	})
})

var _ = ginkgo.Describe("EventBus", func() {
	var bus *EventBus

	ginkgo.BeforeEach(func() {
		bus = NewEventBus(testLogger())
	})

	ginkgo.It("should deliver events to subscribers in subscription order", func() {
		var order []string
		bus.Subscribe(func(_ context.Context, _ Event) { order = append(order, "first") })
		bus.Subscribe(func(_ context.Context, _ Event) { order = append(order, "second") })

		bus.Publish(context.Background(), EventSignedOut, nil)

		gomega.Expect(order).To(gomega.Equal([]string{"first", "second"}))
	})

	ginkgo.It("should stop delivering after unsubscribe", func() {
		count := 0
		unsubscribe := bus.Subscribe(func(_ context.Context, _ Event) { count++ })

		bus.Publish(context.Background(), EventSignedOut, nil)
		unsubscribe()
		bus.Publish(context.Background(), EventSignedOut, nil)

		gomega.Expect(count).To(gomega.Equal(1))
	})
})

var _ = ginkgo.Describe("JWTTokenGenerator", func() {
	var tokenGen *JWTTokenGenerator

	ginkgo.BeforeEach(func() {
		tokenGen = NewJWTTokenGenerator("access-secret-key", "refresh-secret-key", 15*time.Minute, 24*time.Hour)
	})

	ginkgo.It("should round-trip access token claims", func() {
		token, err := tokenGen.GenerateAccessToken("123", "test@example.com")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		claims, err := tokenGen.ValidateToken(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal("123"))
		gomega.Expect(claims.Email).To(gomega.Equal("test@example.com"))
		gomega.Expect(claims.ExpiresAt.Time).To(gomega.BeTemporally("~", time.Now().Add(15*time.Minute), time.Minute))
	})

	ginkgo.It("should round-trip refresh token claims", func() {
		token, err := tokenGen.GenerateRefreshToken("456", "refresh@example.com")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		claims, err := tokenGen.ValidateToken(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal("456"))
		gomega.Expect(claims.ExpiresAt.Time).To(gomega.BeTemporally("~", time.Now().Add(24*time.Hour), time.Minute))
	})

	ginkgo.It("should return ErrTokenExpired for an expired token", func() {
		expiredGen := NewJWTTokenGenerator("access-secret-key", "refresh-secret-key", -1*time.Hour, -1*time.Hour)
		token, err := expiredGen.GenerateAccessToken("123", "expired@example.com")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		claims, err := tokenGen.ValidateToken(token)
		gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		gomega.Expect(claims).To(gomega.BeNil())
	})

	ginkgo.It("should return error for an empty token", func() {
		claims, err := tokenGen.ValidateToken("")
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(claims).To(gomega.BeNil())
	})
})

var _ = ginkgo.Describe("Account", func() {
	ginkgo.Describe("Name", func() {
		ginkgo.It("should prefer the metadata name", func() {
			account := &Account{Email: "sari@example.com", Metadata: map[string]string{"name": "Sari"}}
			gomega.Expect(account.Name()).To(gomega.Equal("Sari"))
		})

		ginkgo.It("should fall back to the email local part", func() {
			account := &Account{Email: "sari@example.com"}
			gomega.Expect(account.Name()).To(gomega.Equal("sari"))
		})
	})
})
