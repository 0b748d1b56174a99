package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sushida/models"
	"sushida/pkg/ocr"
	"sushida/pkg/output"
	"sushida/pkg/score"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxUploadSize = 5 * 1024 * 1024

type scoreExtractor interface {
	ExtractScore(ctx context.Context, path string) (ocr.Extraction, error)
}

// extractor reads uploaded screenshots; replaced in tests.
var extractor scoreExtractor = ocr.NewAcquirer()

var parser = score.NewParser(nil)

func scoreJSON(s models.Score) gin.H {
	return gin.H{
		"id":        s.ID,
		"file_name": s.FileName,
		"played_at": s.PlayedAt,
		"valid":     s.Valid,
		"score":     s.Result(),
	}
}

func problemsOf(r score.Result) []string {
	p := score.Problems(r)
	if p == nil {
		return []string{}
	}
	return p
}

// parseHandler parses a transcript posted as JSON; no account needed.
func parseHandler(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, valid, err := parser.Parse(req.Text)
	if errors.Is(err, score.ErrEmptyInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "parse failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "valid": valid, "problems": problemsOf(res)})
}

// uploadScoreHandler stores a result screenshot for the current user and records its score.
func uploadScoreHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	name := filepath.Base(file.Filename)
	if !output.HasImageExt(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}
	var existing models.Score
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, name).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"duplicate": true, "score": scoreJSON(existing)})
		return
	}

	dir := filepath.Join(uploadBaseDir(), user.Username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	fullPath := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	// the screenshot row may survive from an earlier failed attempt
	shot := models.Screenshot{UserID: user.ID, FileName: name}
	err = db.Where("user_id = ? AND file_name = ?", user.ID, name).
		Assign(map[string]any{
			"store_path":    "public/" + user.Username + "/" + name,
			"content_type":  file.Header.Get("Content-Type"),
			"failed":        false,
			"failed_reason": "",
		}).
		FirstOrCreate(&shot).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	ext, err := extractor.ExtractScore(c.Request.Context(), fullPath)
	if err != nil {
		markScreenshotFailed(shot.ID, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ocr failed: " + err.Error(), "screenshot_id": shot.ID})
		return
	}

	sc := models.NewScore(user.ID, name, ext.Result, ext.Valid, ext.Text, time.Now())
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sc).Error; err != nil {
			return err
		}
		return tx.Model(&models.Screenshot{}).Where("id = ?", shot.ID).Update("score_id", sc.ID).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			if err := db.Where("user_id = ? AND file_name = ?", user.ID, name).First(&existing).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{"duplicate": true, "score": scoreJSON(existing)})
				return
			}
		}
		log.Printf("save score user=%s file=%s: %v", user.Username, name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"duplicate":     false,
		"screenshot_id": shot.ID,
		"pass":          ext.Pass,
		"problems":      problemsOf(ext.Result),
		"score":         scoreJSON(sc),
	})
}

func markScreenshotFailed(id uint, cause error) {
	reason := []rune(cause.Error())
	if len(reason) > 255 {
		reason = reason[:255]
	}
	err := db.Model(&models.Screenshot{}).Where("id = ?", id).Updates(map[string]any{"failed": true, "failed_reason": string(reason)}).Error
	if err != nil {
		log.Printf("mark screenshot failed id=%d: %v", id, err)
	}
}

// listScoresHandler returns recent scores; admin sees all, users only their own.
func listScoresHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.Score{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if v := c.Query("course"); v != "" {
		course, ok := score.ParseCourse(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown course"})
			return
		}
		q = q.Where("course = ?", string(course))
	}
	var items []models.Score
	if err := q.Order("played_at desc, id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, s := range items {
		out = append(out, scoreJSON(s))
	}
	c.JSON(http.StatusOK, out)
}

// getScoreHandler returns a single score if admin or owner.
func getScoreHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var s models.Score
	if err := db.First(&s, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !isAdmin(c) && s.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	resp := scoreJSON(s)
	resp["raw_text"] = s.RawText
	c.JSON(http.StatusOK, resp)
}

type monthlySummary struct {
	Month    string  `json:"month"`
	Course   string  `json:"course"`
	Count    int64   `json:"count"`
	TotalNet int64   `json:"total_net"`
	AvgTPS   float64 `json:"avg_tps"`
}

// scoreSummaryHandler groups scores per month and course.
func scoreSummaryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.Score{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	results := []monthlySummary{}
	err := q.Select("to_char(played_at, 'YYYY-MM') AS month, course, count(*) AS count, sum(net) AS total_net, avg(average_tps) AS avg_tps").
		Group("month, course").
		Order("month, course").
		Scan(&results).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, results)
}
