package service

import (
	"encoding/json"

	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/model"
)

// CanModify is the single authoring gate: exam definitions are editable only
// while DRAFT or REJECTED. Every endpoint that mutates a definition goes
// through this predicate instead of re-checking statuses ad hoc.
func CanModify(exam *model.Exam) bool {
	return exam.Status == model.ExamDraft || exam.Status == model.ExamRejected
}

// CanDelete additionally requires that no student has ever attempted the exam.
func CanDelete(exam *model.Exam, attemptCount int64) bool {
	return CanModify(exam) && attemptCount == 0
}

// computeTotalMarks keeps the derived invariant totalMarks == sum(points).
func computeTotalMarks(questions []model.Question) float64 {
	total := 0.0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// validateExamDefinition checks the invariants submit-for-approval depends on:
// a sane schedule, at least one question, positive points, and well-formed
// objective questions (>=2 non-empty options, a key resolving to an option).
func validateExamDefinition(exam *model.Exam) error {
	if exam.StartTime.IsZero() || exam.EndTime.IsZero() {
		return apperr.Validation("exam %d is missing its schedule", exam.ID)
	}
	if !exam.EndTime.After(exam.StartTime) {
		return apperr.Validation("exam end time must be after start time")
	}
	if exam.DurationMinutes <= 0 {
		return apperr.Validation("exam duration must be positive")
	}
	if exam.MaxAttempts < 1 {
		return apperr.Validation("max attempts must be at least 1")
	}
	if len(exam.Questions) == 0 {
		return apperr.Validation("exam must have at least one question")
	}
	for i := range exam.Questions {
		if err := validateQuestion(&exam.Questions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(q *model.Question) error {
	if q.Text == "" {
		return apperr.Validation("question at position %d has no text", q.Position)
	}
	if q.Points <= 0 {
		return apperr.Validation("question %q must have positive points", q.Text)
	}
	switch q.Type {
	case model.QuestionMCQ:
		options, err := decodeOptions(q.Options)
		if err != nil || len(options) < 2 {
			return apperr.Validation("MCQ question %q needs at least 2 options", q.Text)
		}
		for _, opt := range options {
			if opt == "" {
				return apperr.Validation("MCQ question %q has an empty option", q.Text)
			}
		}
		if _, ok := normalizeChoice(q.CorrectAnswer, options); !ok {
			return apperr.Validation("MCQ question %q has no valid answer key", q.Text)
		}
	case model.QuestionTrueFalse:
		if len(q.Options) == 0 {
			q.Options, _ = json.Marshal([]string{"True", "False"})
		}
		if _, ok := normalizeBool(q.CorrectAnswer); !ok {
			return apperr.Validation("TRUE_FALSE question %q has no valid answer key", q.Text)
		}
	case model.QuestionEssay, model.QuestionShortAnswer, model.QuestionFillInBlank, model.QuestionMatching:
		// Manually graded types carry no structural key requirements.
	default:
		return apperr.Validation("question %q has unknown type %s", q.Text, q.Type)
	}
	return nil
}
