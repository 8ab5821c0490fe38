package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/profile"
)

// userModel maps the users relation. Role is the legacy singular column kept
// for rows predating the roles collection; new writes only touch Roles.
type userModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	Role      string    `gorm:"column:role"`
	Roles     []string  `gorm:"column:roles;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (userModel) TableName() string {
	return "users"
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) profile.Repository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "profile not found", err)
		}
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "profile lookup failed", err)
	}
	return toDomain(&m), nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	m := &userModel{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Roles:     p.Roles,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "profile creation failed", err)
	}
	return nil
}

func (r *ProfileRepository) UpdateRoles(ctx context.Context, id string, roles []string) error {
	// struct-based Updates so the roles serializer applies
	err := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", id).
		Select("roles", "updated_at").
		Updates(userModel{Roles: roles, UpdatedAt: time.Now()}).Error
	if err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "role update failed", err)
	}
	return nil
}

// toDomain reconciles the legacy singular role into the canonical
// collection: the collection wins when present, the singular value is
// wrapped otherwise, and absence defaults to the plain user role.
func toDomain(m *userModel) *profile.Profile {
	roles := m.Roles
	if len(roles) == 0 {
		if m.Role != "" {
			roles = []string{m.Role}
		} else {
			roles = profile.DefaultRoles()
		}
	}
	return &profile.Profile{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Roles:     roles,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
