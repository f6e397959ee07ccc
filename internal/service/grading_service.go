package service

import (
	"errors"
	"time"

	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GradingService is the manual half of scoring: teachers grade essay-style
// answers on finalized attempts, and the attempt totals are recomputed.
type GradingService interface {
	GradeAnswer(teacherID, attemptID, questionID uint, req dto.GradeAnswerDTO, now time.Time) (*dto.AttemptSummaryDTO, error)
}

type gradingService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	db           *gorm.DB
}

func NewGradingService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	db *gorm.DB,
) GradingService {
	return &gradingService{examRepo: examRepo, questionRepo: questionRepo, attemptRepo: attemptRepo, db: db}
}

func (s *gradingService) GradeAnswer(teacherID, attemptID, questionID uint, req dto.GradeAnswerDTO, now time.Time) (*dto.AttemptSummaryDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attempt %d not found", attemptID)
		}
		return nil, err
	}
	if attempt.Status == model.AttemptInProgress {
		return nil, apperr.InvalidTransition(string(attempt.Status), "manual grade")
	}

	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, apperr.Forbidden("exam %d is not owned by teacher %d", exam.ID, teacherID)
	}

	question, err := s.questionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question %d not found", questionID)
		}
		return nil, err
	}
	if question.ExamID != exam.ID {
		return nil, apperr.Validation("question %d is not part of exam %d", questionID, exam.ID)
	}
	if question.Type.IsAutoScored() {
		return nil, apperr.Validation("question %d is auto-scored and cannot be graded manually", questionID)
	}

	points := req.Points
	if points < 0 {
		points = 0
	}
	if points > question.Points {
		points = question.Points
	}
	correct := points >= question.Points

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Answer{}).
			Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
			Updates(map[string]interface{}{
				"points_awarded": points,
				"is_correct":     correct,
				"feedback":       req.Feedback,
				"graded_by":      teacherID,
				"graded_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("no answer for question %d on attempt %d", questionID, attemptID)
		}

		var answers []model.Answer
		if err := tx.Where("attempt_id = ?", attemptID).Find(&answers).Error; err != nil {
			return err
		}
		total := 0.0
		for i := range answers {
			if answers[i].PointsAwarded != nil {
				total += *answers[i].PointsAwarded
			}
		}
		percentage := 0.0
		if exam.TotalMarks > 0 {
			percentage = total / exam.TotalMarks * 100
		}
		passed := total >= exam.PassingMarks

		attempt.Score = &total
		attempt.Percentage = &percentage
		attempt.Passed = &passed
		return tx.Model(&model.Attempt{}).Where("id = ?", attemptID).
			Updates(map[string]interface{}{
				"score":      total,
				"percentage": percentage,
				"passed":     passed,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("attemptID", attemptID).Uint("questionID", questionID).Float64("points", points).Msg("Answer graded manually")
	summary := attemptSummary(attempt, false)
	return &summary, nil
}
