package model

import (
	"time"

	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptExpired    AttemptStatus = "EXPIRED"
)

type Attempt struct {
	ID            uint `gorm:"primarykey" json:"id"`
	ExamID        uint `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_exam_student_number"`
	Exam          Exam `json:"-" gorm:"foreignKey:ExamID"`
	StudentID     uint `json:"student_id" gorm:"not null;index;uniqueIndex:idx_exam_student_number"`
	AttemptNumber int  `json:"attempt_number" gorm:"not null;uniqueIndex:idx_exam_student_number"`

	Status           AttemptStatus `json:"status" gorm:"not null;default:'IN_PROGRESS';index"`
	StartedAt        time.Time     `json:"started_at" gorm:"not null"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	TimeSpentSeconds *int          `json:"time_spent_seconds,omitempty"`

	Score      *float64 `json:"score,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Deadline is the hard cut-off for the attempt, derived from the server-side
// start time and the exam duration. Client-reported clocks never move it.
func (a *Attempt) Deadline(exam *Exam) time.Time {
	return a.StartedAt.Add(exam.Duration())
}

// TimeRemaining returns the whole seconds left before Deadline, floored at 0.
func (a *Attempt) TimeRemaining(exam *Exam, now time.Time) int {
	remaining := a.Deadline(exam).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
