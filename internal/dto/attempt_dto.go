package dto

import (
	"time"

	"gorm.io/datatypes"
)

// StartAttemptResponseDTO is returned by POST /exams/:id/start for both fresh
// starts and resumes of an IN_PROGRESS attempt.
type StartAttemptResponseDTO struct {
	Exam                 ExamSummaryDTO       `json:"exam"`
	Attempt              AttemptSummaryDTO    `json:"attempt"`
	Questions            []StudentQuestionDTO `json:"questions"`
	TimeRemainingSeconds int                  `json:"time_remaining_seconds"`
	WarningSeconds       int                  `json:"warning_seconds"`
	Resumed              bool                 `json:"resumed"`
}

type SaveAnswerDTO struct {
	AttemptID  uint           `json:"attempt_id" binding:"required"`
	QuestionID uint           `json:"question_id" binding:"required"`
	Response   datatypes.JSON `json:"response" binding:"required"`
}

type SaveAnswerResponseDTO struct {
	Saved bool `json:"saved"`
}

type SubmitAttemptDTO struct {
	AttemptID        uint   `json:"attempt_id" binding:"required"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	Trigger          string `json:"trigger" binding:"omitempty,oneof=manual auto"`
}

// SubmitResultDTO reports the finalized attempt. Score fields are omitted when
// the exam withholds immediate results.
type SubmitResultDTO struct {
	AttemptID   uint      `json:"attempt_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       *float64  `json:"score,omitempty"`
	TotalMarks  *float64  `json:"total_marks,omitempty"`
	Percentage  *float64  `json:"percentage,omitempty"`
	Passed      *bool     `json:"passed,omitempty"`
}

type AttemptSummaryDTO struct {
	ID               uint       `json:"id"`
	ExamID           uint       `json:"exam_id"`
	StudentID        uint       `json:"student_id"`
	AttemptNumber    int        `json:"attempt_number"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	TimeSpentSeconds *int       `json:"time_spent_seconds,omitempty"`
	Score            *float64   `json:"score,omitempty"`
	Percentage       *float64   `json:"percentage,omitempty"`
	Passed           *bool      `json:"passed,omitempty"`
}

type AnswerDetailDTO struct {
	QuestionID    uint                `json:"question_id"`
	Question      *StudentQuestionDTO `json:"question,omitempty"`
	Response      datatypes.JSON      `json:"response"`
	IsCorrect     *bool               `json:"is_correct,omitempty"`
	PointsAwarded *float64            `json:"points_awarded,omitempty"`
	Feedback      string              `json:"feedback,omitempty"`
}

type AttemptDetailDTO struct {
	AttemptSummaryDTO
	ExamTitle string            `json:"exam_title,omitempty"`
	Answers   []AnswerDetailDTO `json:"answers,omitempty"`
}

type GradeAnswerDTO struct {
	Points   float64 `json:"points"`
	Feedback string  `json:"feedback"`
}
