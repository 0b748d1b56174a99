package models

import (
	"time"
)

// Screenshot is an uploaded result screen. Kept even when OCR fails so the
// image can be reviewed and reparsed later.
type Screenshot struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint   `gorm:"index;not null;uniqueIndex:idx_screenshot_user_file"`
	User        User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FileName    string `gorm:"size:255;not null;uniqueIndex:idx_screenshot_user_file"`
	StorePath   string `gorm:"column:store_path;size:512"` // public relative path (e.g. public/alice/result.png)
	ContentType string `gorm:"size:128"`
	ScoreID     *uint  `gorm:"index"` // FK to scores.id (nullable until OCR succeeds)
	// Mark screenshot as failed for OCR processing (do not delete record so admin can review)
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
