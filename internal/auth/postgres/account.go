package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/auth"
)

// accountModel is the persistence shape of an auth identity. Metadata is
// stored as a JSON document so sign-up attributes stay schema-free.
type accountModel struct {
	ID           string            `gorm:"primaryKey"`
	Email        string            `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	Metadata     map[string]string `gorm:"column:metadata;serializer:json"`
	CreatedAt    time.Time         `gorm:"column:created_at;default:now()"`
}

func (accountModel) TableName() string {
	return "auth_accounts"
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) auth.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "account not found", err)
		}
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "account lookup failed", err)
	}
	return toDomain(&m), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "account not found", err)
		}
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "account lookup failed", err)
	}
	return toDomain(&m), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	m := &accountModel{
		ID:           account.ID,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Metadata:     account.Metadata,
		CreatedAt:    account.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "account creation failed", err)
	}
	return nil
}

func toDomain(m *accountModel) *auth.Account {
	return &auth.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
	}
}
