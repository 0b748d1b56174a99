package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"sushida/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	role := flag.String("role", models.RoleUser, "role for a new user (user or administrator)")
	reset := flag.Bool("reset", false, "reset the password when the user already exists")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-role administrator] [-reset] <username> <password>")
		os.Exit(2)
	}
	username := strings.TrimSpace(flag.Arg(0))
	password := flag.Arg(1)
	if len(password) < 6 {
		log.Fatal("password too short (min 6)")
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		if !*reset {
			fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
			os.Exit(0)
		}
		if err := db.Model(&existing).Update("hashed_password", hpw).Error; err != nil {
			log.Fatalf("update failed: %v", err)
		}
		fmt.Printf("password reset for user %s\n", username)
		return
	}

	var r models.Role
	if err := db.Where(models.Role{Name: *role}).Attrs(models.Role{Description: *role + " role"}).FirstOrCreate(&r).Error; err != nil {
		log.Fatalf("failed to ensure role %s: %v", *role, err)
	}
	rid := r.ID
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, r.Name)
}
