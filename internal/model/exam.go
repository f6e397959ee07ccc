package model

import (
	"time"

	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft           ExamStatus = "DRAFT"
	ExamPendingApproval ExamStatus = "PENDING_APPROVAL"
	ExamApproved        ExamStatus = "APPROVED"
	ExamRejected        ExamStatus = "REJECTED"
	ExamPublished       ExamStatus = "PUBLISHED"
	ExamScheduled       ExamStatus = "SCHEDULED"
	ExamActive          ExamStatus = "ACTIVE"
	ExamCompleted       ExamStatus = "COMPLETED"
	ExamCancelled       ExamStatus = "CANCELLED"
)

type Exam struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description,omitempty"`
	Subject     string `json:"subject,omitempty"`
	ClassName   string `json:"class_name,omitempty"`

	StartTime       time.Time `json:"start_time" gorm:"not null;index"`
	EndTime         time.Time `json:"end_time" gorm:"not null;index"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`

	TotalMarks      float64 `json:"total_marks"`
	PassingMarks    float64 `json:"passing_marks"`
	NegativeMarking bool    `json:"negative_marking"`

	ShuffleQuestions       bool `json:"shuffle_questions"`
	MaxAttempts            int  `json:"max_attempts" gorm:"default:1"`
	ShowResultsImmediately bool `json:"show_results_immediately" gorm:"default:true"`
	AllowPreview           bool `json:"allow_preview"`

	Status       ExamStatus `json:"status" gorm:"not null;default:'DRAFT';index"`
	TeacherID    uint       `json:"teacher_id" gorm:"not null;index"`
	Teacher      User       `json:"-" gorm:"foreignKey:TeacherID"`
	ApproverID   *uint      `json:"approver_id,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty" gorm:"type:text"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:ExamID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectiveStatus derives the exam state visible to readers from the stored
// status plus the wall clock. APPROVED and PUBLISHED rows move through
// SCHEDULED/ACTIVE/COMPLETED purely by time; nothing is written back, so two
// reads at different instants may legitimately disagree.
func (e *Exam) EffectiveStatus(now time.Time) ExamStatus {
	switch e.Status {
	case ExamApproved, ExamPublished, ExamScheduled, ExamActive:
		switch {
		case now.Before(e.StartTime):
			return ExamScheduled
		case now.Before(e.EndTime):
			return ExamActive
		default:
			return ExamCompleted
		}
	default:
		return e.Status
	}
}

// Duration returns the per-attempt time limit.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}
