package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-portal/internal/profile"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := sqlx.Connect("pgx", cfg.Backend.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"receipts", "expenses", "users", "auth_accounts", "categories", "cost_centers"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			Email string
			Name  string
			Roles []string
		}{
			{"submitter@mail.com", "Sari Submitter", []string{profile.RoleUser, profile.RoleSubmitter}},
			{"approver@mail.com", "Agus Approver", []string{profile.RoleUser, profile.RoleApprover, profile.RoleRejector}},
			{"admin@mail.com", "Padil Admin", []string{profile.RoleAdmin}},
		}

		for _, u := range users {
			var exists int
			if err := db.Raw("SELECT 1 FROM auth_accounts WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Println("account already exists, skipping:", u.Email)
				continue
			}

			id := uuid.NewString()
			metadata, _ := json.Marshal(map[string]string{"name": u.Name})
			if err := db.Exec(
				"INSERT INTO auth_accounts (id, email, password_hash, metadata, created_at) VALUES (?, ?, ?, ?, now())",
				id, u.Email, string(hash), string(metadata),
			).Error; err != nil {
				log.Fatalf("failed to insert account %s: %v", u.Email, err)
			}

			roles, _ := json.Marshal(u.Roles)
			if err := db.Exec(
				"INSERT INTO users (id, name, email, roles, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
				id, u.Name, u.Email, string(roles),
			).Error; err != nil {
				log.Fatalf("failed to insert profile %s: %v", u.Email, err)
			}

			fmt.Println("Seeded user:", u.Email)
		}

		categories := []string{
			"perjalanan",
			"makan",
			"kantor",
			"liburan",
			"lain_lain",
		}

		for _, name := range categories {
			var exists int
			if err := db.Raw("SELECT 1 FROM categories WHERE name = ?", name).Row().Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO categories (id, name) VALUES (?, ?)", uuid.NewString(), name).Error; err != nil {
					log.Fatalf("failed to insert category %s: %v", name, err)
				}
				fmt.Printf("Seeded category: %s\n", name)
			}
		}

		costCenters := []string{
			"engineering",
			"finance",
			"operations",
			"sales",
		}

		for _, name := range costCenters {
			var exists int
			if err := db.Raw("SELECT 1 FROM cost_centers WHERE name = ?", name).Row().Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO cost_centers (id, name) VALUES (?, ?)", uuid.NewString(), name).Error; err != nil {
					log.Fatalf("failed to insert cost center %s: %v", name, err)
				}
				fmt.Printf("Seeded cost center: %s\n", name)
			}
		}

		fmt.Println("Seeding completed successfully")
	},
}
