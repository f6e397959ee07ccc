package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Answer struct {
	ID         uint     `gorm:"primarykey" json:"id"`
	AttemptID  uint     `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	QuestionID uint     `json:"question_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`

	// Response is the raw student payload: option index, boolean, string or
	// string list depending on the question type. Upserted freely while the
	// attempt is IN_PROGRESS, frozen afterwards.
	Response datatypes.JSON `json:"response"`

	IsCorrect     *bool      `json:"is_correct,omitempty"`
	PointsAwarded *float64   `json:"points_awarded,omitempty"`
	Feedback      string     `json:"feedback,omitempty" gorm:"type:text"`
	GradedBy      *uint      `json:"graded_by,omitempty"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
