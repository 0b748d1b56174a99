package main

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sushida/models"
)

var errDuplicateScore = errors.New("score already recorded")

// store is the persistence the processor needs.
type store interface {
	Screenshots(userID uint) ([]models.Screenshot, error)
	ScoreFiles(userID uint) ([]string, error)
	// CreateScreenshot inserts s or loads the existing row for the same user and file.
	CreateScreenshot(s *models.Screenshot) error
	// CreateScore returns errDuplicateScore when the file is already recorded.
	CreateScore(s *models.Score) error
	LinkScore(screenshotID, scoreID uint) error
	MarkFailed(screenshotID uint, reason string) error
}

type gormStore struct {
	db *gorm.DB
}

func (g *gormStore) Screenshots(userID uint) ([]models.Screenshot, error) {
	var shots []models.Screenshot
	err := g.db.Where("user_id = ?", userID).Find(&shots).Error
	return shots, err
}

func (g *gormStore) ScoreFiles(userID uint) ([]string, error) {
	var names []string
	err := g.db.Model(&models.Score{}).Where("user_id = ?", userID).Pluck("file_name", &names).Error
	return names, err
}

func (g *gormStore) CreateScreenshot(s *models.Screenshot) error {
	err := g.db.Create(s).Error
	if err != nil && isUniqueConstraintError(err) { // race: someone else created
		return g.db.Where("user_id = ? AND file_name = ?", s.UserID, s.FileName).First(s).Error
	}
	return err
}

func (g *gormStore) CreateScore(s *models.Score) error {
	err := g.db.Create(s).Error
	if err != nil && isUniqueConstraintError(err) {
		return errDuplicateScore
	}
	return err
}

func (g *gormStore) LinkScore(screenshotID, scoreID uint) error {
	return g.db.Model(&models.Screenshot{}).Where("id = ?", screenshotID).
		Updates(map[string]any{"score_id": scoreID, "failed": false, "failed_reason": ""}).Error
}

func (g *gormStore) MarkFailed(screenshotID uint, reason string) error {
	return g.db.Model(&models.Screenshot{}).Where("id = ?", screenshotID).
		Updates(map[string]any{"failed": true, "failed_reason": reason}).Error
}

// preloadState caches what is already recorded to minimize per-file queries.
type preloadState struct {
	shotsByFile map[string]*models.Screenshot
	scored      map[string]bool
	mu          sync.RWMutex
}

func newPreloadState() *preloadState {
	return &preloadState{
		shotsByFile: make(map[string]*models.Screenshot, 1024),
		scored:      make(map[string]bool, 1024),
	}
}

func preloadAll(st store, userID uint) (*preloadState, error) {
	ps := newPreloadState()
	shots, err := st.Screenshots(userID)
	if err != nil {
		return nil, err
	}
	for i := range shots {
		s := shots[i]
		ps.shotsByFile[s.FileName] = &s
	}
	names, err := st.ScoreFiles(userID)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		ps.scored[n] = true
	}
	return ps, nil
}

func (ps *preloadState) getShot(name string) (*models.Screenshot, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	s, ok := ps.shotsByFile[name]
	return s, ok
}

func (ps *preloadState) putShot(s *models.Screenshot) {
	ps.mu.Lock()
	ps.shotsByFile[s.FileName] = s
	ps.mu.Unlock()
}

func (ps *preloadState) hasScore(name string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.scored[name]
}

func (ps *preloadState) putScore(name string) {
	ps.mu.Lock()
	ps.scored[name] = true
	ps.mu.Unlock()
}

func (ps *preloadState) screenshotCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.shotsByFile)
}

func (ps *preloadState) scoreCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.scored)
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func resolveUser(gdb *gorm.DB, username string) models.User {
	var u models.User
	if err := gdb.Where("username = ?", username).First(&u).Error; err != nil {
		log.Fatalf("user %q not found: %v", username, err)
	}
	return u
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
