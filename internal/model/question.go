package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionTrueFalse   QuestionType = "TRUE_FALSE"
	QuestionEssay       QuestionType = "ESSAY"
	QuestionShortAnswer QuestionType = "SHORT_ANSWER"
	QuestionFillInBlank QuestionType = "FILL_IN_BLANK"
	QuestionMatching    QuestionType = "MATCHING"
)

// IsAutoScored reports whether the scoring engine grades this type on
// submission. Everything else waits for a teacher.
func (t QuestionType) IsAutoScored() bool {
	return t == QuestionMCQ || t == QuestionTrueFalse
}

type Question struct {
	ID         uint         `gorm:"primarykey" json:"id"`
	ExamID     uint         `json:"exam_id" gorm:"not null;index"`
	Text       string       `json:"text" gorm:"type:text;not null"`
	Type       QuestionType `json:"type" gorm:"not null"`
	Points     float64      `json:"points" gorm:"not null"`
	Difficulty string       `json:"difficulty,omitempty"`
	Position   int          `json:"position" gorm:"not null"`

	// Options holds the ordered choice texts for MCQ/TRUE_FALSE as a JSON
	// string array. CorrectAnswer is the answer key (option index, boolean or
	// string list depending on Type) and must never reach a student-facing
	// payload.
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `json:"-" gorm:"column:correct_answer"`
	Explanation   string         `json:"-" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
