package models

import (
	"time"

	"sushida/pkg/score"
)

// Score is one parsed result belonging to a user. A file name is recorded at
// most once per user.
type Score struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint      `gorm:"index;not null;uniqueIndex:idx_score_user_file"`
	FileName   string    `gorm:"size:255;not null;uniqueIndex:idx_score_user_file"`
	Course     string    `gorm:"size:16;not null;index"`
	Net        int       `gorm:"not null"`
	Paid       int       `gorm:"not null"`
	Gain       int       `gorm:"not null"`
	Correct    int       `gorm:"not null"`
	Miss       int       `gorm:"not null"`
	AverageTPS float64   `gorm:"column:average_tps;not null"`
	Valid      bool      `gorm:"default:false;index"`
	RawText    string    `gorm:"type:text"`
	PlayedAt   time.Time `gorm:"not null;index"`
}

// NewScore builds a row from a parsed result.
func NewScore(userID uint, fileName string, r score.Result, valid bool, rawText string, playedAt time.Time) Score {
	s := Score{UserID: userID, FileName: fileName, RawText: rawText, PlayedAt: playedAt}
	s.Apply(r, valid)
	return s
}

// Apply overwrites the parsed columns with r.
func (s *Score) Apply(r score.Result, valid bool) {
	s.Course = string(r.Course)
	s.Net = r.Net
	s.Paid = r.Detail.Paid
	s.Gain = r.Detail.Gain
	s.Correct = r.Typing.Correct
	s.Miss = r.Typing.Miss
	s.AverageTPS = r.Typing.AverageTPS
	s.Valid = valid
}

// Result converts the row back into a parsed result.
func (s Score) Result() score.Result {
	return score.Result{
		Course: score.Course(s.Course),
		Net:    s.Net,
		Detail: score.Detail{Paid: s.Paid, Gain: s.Gain},
		Typing: score.Typing{Correct: s.Correct, Miss: s.Miss, AverageTPS: s.AverageTPS},
	}
}
