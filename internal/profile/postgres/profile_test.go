package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/profile"
)

func TestProfileRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ProfileRepository Suite")
}

type sqliteProfile struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role"`
	Roles     []string  `gorm:"column:roles;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sqliteProfile) TableName() string { return "users" }

var _ = Describe("ProfileRepository", func() {
	var (
		db   *gorm.DB
		repo profile.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.AutoMigrate(&sqliteProfile{})).To(Succeed())

		repo = NewProfileRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("GetByID role reconciliation", func() {
		It("should prefer the roles collection when both columns are set", func() {
			Expect(db.Create(&sqliteProfile{
				ID: "u-1", Name: "Sari", Email: "sari@example.com",
				Role:  "submitter",
				Roles: []string{"approver", "rejector"},
			}).Error).NotTo(HaveOccurred())

			p, err := repo.GetByID(ctx, "u-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Roles).To(Equal([]string{"approver", "rejector"}))
		})

		It("should wrap the legacy singular role when the collection is empty", func() {
			Expect(db.Create(&sqliteProfile{
				ID: "u-2", Name: "Agus", Email: "agus@example.com",
				Role: "approver",
			}).Error).NotTo(HaveOccurred())

			p, err := repo.GetByID(ctx, "u-2")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Roles).To(Equal([]string{"approver"}))
		})

		It("should default to the user role when neither column is set", func() {
			Expect(db.Create(&sqliteProfile{
				ID: "u-3", Name: "Rina", Email: "rina@example.com",
			}).Error).NotTo(HaveOccurred())

			p, err := repo.GetByID(ctx, "u-3")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Roles).To(Equal([]string{profile.RoleUser}))
		})

		It("should signal row-not-found for an unknown id", func() {
			p, err := repo.GetByID(ctx, "nope")

			Expect(err).To(HaveOccurred())
			Expect(internal.IsRowNotFound(err)).To(BeTrue())
			Expect(p).To(BeNil())
		})
	})

	Describe("Create", func() {
		It("should persist the profile with its role collection", func() {
			now := time.Now()
			Expect(repo.Create(ctx, &profile.Profile{
				ID:        "u-1",
				Name:      "Sari",
				Email:     "sari@example.com",
				Roles:     []string{"user", "submitter"},
				CreatedAt: now,
				UpdatedAt: now,
			})).To(Succeed())

			p, err := repo.GetByID(ctx, "u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(Equal("Sari"))
			Expect(p.Roles).To(Equal([]string{"user", "submitter"}))
		})
	})

	Describe("UpdateRoles", func() {
		BeforeEach(func() {
			Expect(db.Create(&sqliteProfile{
				ID: "u-1", Name: "Sari", Email: "sari@example.com",
				Roles: []string{"user"},
			}).Error).NotTo(HaveOccurred())
		})

		It("should replace the role collection", func() {
			Expect(repo.UpdateRoles(ctx, "u-1", []string{"user", "approver"})).To(Succeed())

			p, err := repo.GetByID(ctx, "u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Roles).To(Equal([]string{"user", "approver"}))
		})

		It("should leave other profiles untouched", func() {
			Expect(db.Create(&sqliteProfile{
				ID: "u-2", Name: "Agus", Email: "agus@example.com",
				Roles: []string{"user"},
			}).Error).NotTo(HaveOccurred())

			Expect(repo.UpdateRoles(ctx, "u-1", []string{"admin"})).To(Succeed())

			other, err := repo.GetByID(ctx, "u-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Roles).To(Equal([]string{"user"}))
		})
	})
})
