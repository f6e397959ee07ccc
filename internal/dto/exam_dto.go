package dto

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionCreateDTO carries one question inside an exam create/update request.
// CorrectAnswer is accepted here and only here; responses never echo it.
type QuestionCreateDTO struct {
	Text          string         `json:"text" binding:"required"`
	Type          string         `json:"type" binding:"required,oneof=MCQ TRUE_FALSE ESSAY SHORT_ANSWER FILL_IN_BLANK MATCHING"`
	Points        float64        `json:"points" binding:"required,gt=0"`
	Difficulty    string         `json:"difficulty"`
	Position      int            `json:"position"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `json:"correct_answer,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
}

type ExamCreateDTO struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	Subject         string    `json:"subject"`
	ClassName       string    `json:"class_name"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,gt=0"`
	PassingMarks    float64   `json:"passing_marks"`
	NegativeMarking bool      `json:"negative_marking"`

	ShuffleQuestions       bool `json:"shuffle_questions"`
	MaxAttempts            int  `json:"max_attempts" binding:"omitempty,gte=1"`
	ShowResultsImmediately bool `json:"show_results_immediately"`
	AllowPreview           bool `json:"allow_preview"`

	Questions []QuestionCreateDTO `json:"questions" binding:"omitempty,dive"`
}

type ExamUpdateDTO struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Subject         *string    `json:"subject,omitempty"`
	ClassName       *string    `json:"class_name,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	PassingMarks    *float64   `json:"passing_marks,omitempty"`
	NegativeMarking *bool      `json:"negative_marking,omitempty"`

	ShuffleQuestions       *bool `json:"shuffle_questions,omitempty"`
	MaxAttempts            *int  `json:"max_attempts,omitempty"`
	ShowResultsImmediately *bool `json:"show_results_immediately,omitempty"`
	AllowPreview           *bool `json:"allow_preview,omitempty"`

	// Questions, when present, replaces the full question set.
	Questions []QuestionCreateDTO `json:"questions,omitempty" binding:"omitempty,dive"`
}

type RejectExamDTO struct {
	Reason string `json:"reason" binding:"required"`
}

// QuestionResponseDTO is the teacher-facing question view, answer key included.
type QuestionResponseDTO struct {
	ID            uint           `json:"id"`
	ExamID        uint           `json:"exam_id"`
	Text          string         `json:"text"`
	Type          string         `json:"type"`
	Points        float64        `json:"points"`
	Difficulty    string         `json:"difficulty,omitempty"`
	Position      int            `json:"position"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `json:"correct_answer,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
}

// StudentQuestionDTO is the attempt-time question view. No answer key, no
// explanation, options already in the per-attempt presentation order.
type StudentQuestionDTO struct {
	ID         uint           `json:"id"`
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Points     float64        `json:"points"`
	Difficulty string         `json:"difficulty,omitempty"`
	Position   int            `json:"position"`
	Options    datatypes.JSON `json:"options,omitempty"`
}

type ExamResponseDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	ClassName       string    `json:"class_name,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      float64   `json:"total_marks"`
	PassingMarks    float64   `json:"passing_marks"`
	NegativeMarking bool      `json:"negative_marking"`

	ShuffleQuestions       bool `json:"shuffle_questions"`
	MaxAttempts            int  `json:"max_attempts"`
	ShowResultsImmediately bool `json:"show_results_immediately"`
	AllowPreview           bool `json:"allow_preview"`

	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
	TeacherID       uint   `json:"teacher_id"`
	ApproverID      *uint  `json:"approver_id,omitempty"`
	RejectReason    string `json:"reject_reason,omitempty"`

	Questions []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// ExamSummaryDTO is the student listing row.
type ExamSummaryDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      float64   `json:"total_marks"`
	MaxAttempts     int       `json:"max_attempts"`
	EffectiveStatus string    `json:"effective_status"`
}

type ErrorResponse struct {
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
