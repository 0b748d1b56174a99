package main

import (
	"log"
	"os"
	"strings"

	"sushida/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	shouldMigrate := autoMigrateEnabled()
	// roles first so the users FK can be applied safely
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// one table at a time so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Score{}); err != nil {
			log.Printf("migration warning (scores): %v", err)
		}
		if err := db.AutoMigrate(&models.Screenshot{}); err != nil {
			log.Printf("migration warning (screenshots): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := ensureScreenshotScoreFK(); err != nil {
			log.Printf("warning: ensuring screenshots->scores FK failed: %v", err)
		}
	}
	seedDB()
}

// autoMigrateEnabled reads DB_AUTO_MIGRATE (default true).
func autoMigrateEnabled() bool {
	v := strings.ToLower(os.Getenv("DB_AUTO_MIGRATE"))
	return v != "false" && v != "0" && v != "no"
}

// ensureScreenshotScoreFK adds the FK from screenshots.score_id to scores if it is missing.
// ScoreID is a plain nullable column on the model, so AutoMigrate never creates it.
func ensureScreenshotScoreFK() error {
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'screenshots' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%score_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%scores%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N > 0 {
		return nil
	}
	return db.Exec(`ALTER TABLE screenshots
		ADD CONSTRAINT fk_screenshots_scores
		FOREIGN KEY (score_id) REFERENCES scores(id)
		ON UPDATE CASCADE ON DELETE SET NULL`).Error
}

func seedRoles() {
	for _, r := range models.DefaultRoles() {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", models.RoleAdministrator).First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
