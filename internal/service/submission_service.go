package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmissionService finalizes attempts exactly once and computes scores from
// the stored answers and answer keys.
type SubmissionService interface {
	SubmitAttempt(studentID uint, req dto.SubmitAttemptDTO, now time.Time) (*dto.SubmitResultDTO, error)
}

// txRunner is the slice of *gorm.DB the submission path needs; tests swap in
// a pass-through runner.
type txRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type submissionService struct {
	examRepo    repository.ExamRepository
	attemptRepo repository.AttemptRepository
	answerRepo  repository.AnswerRepository
	feedback    EssayFeedbackService
	db          txRunner
}

func NewSubmissionService(
	examRepo repository.ExamRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	feedback EssayFeedbackService,
	db *gorm.DB,
) SubmissionService {
	return &submissionService{
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		feedback:    feedback,
		db:          db,
	}
}

func (s *submissionService) SubmitAttempt(studentID uint, req dto.SubmitAttemptDTO, now time.Time) (*dto.SubmitResultDTO, error) {
	attempt, err := s.attemptRepo.FindByID(req.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attempt %d not found", req.AttemptID)
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, apperr.Forbidden("attempt %d does not belong to student %d", req.AttemptID, studentID)
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, apperr.AlreadySubmitted("attempt %d is already %s", attempt.ID, attempt.Status)
	}

	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return nil, err
	}

	finalStatus := finalizeStatus(attempt, exam, now)
	timeSpent := clampTimeSpent(req.TimeSpentSeconds, attempt.StartedAt, now)

	var scored scoredAttempt
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional flip on status=IN_PROGRESS is the serialization point:
		// the first writer wins, every concurrent submit loses here.
		won, err := s.attemptRepo.Finalize(tx, attempt.ID, finalStatus, now, timeSpent)
		if err != nil {
			return err
		}
		if !won {
			return apperr.AlreadySubmitted("attempt %d was finalized concurrently", attempt.ID)
		}

		answers, err := s.answerRepo.FindByAttemptID(tx, attempt.ID)
		if err != nil {
			return err
		}

		scored = scoreAttempt(exam, attempt.ID, answers)
		if err := s.answerRepo.ApplyScores(tx, scored.answers); err != nil {
			return err
		}
		return s.attemptRepo.StoreResult(tx, attempt.ID, scored.score, scored.percentage, scored.passed)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Str("status", string(finalStatus)).
		Str("trigger", req.Trigger).
		Float64("score", scored.score).
		Msg("Attempt finalized")

	if s.feedback != nil && s.feedback.Enabled() {
		go s.feedback.AnnotateAttempt(attempt.ID)
	}

	result := &dto.SubmitResultDTO{
		AttemptID:   attempt.ID,
		Status:      string(finalStatus),
		SubmittedAt: now,
	}
	if exam.ShowResultsImmediately {
		score := scored.score
		total := exam.TotalMarks
		pct := scored.percentage
		passed := scored.passed
		result.Score = &score
		result.TotalMarks = &total
		result.Percentage = &pct
		result.Passed = &passed
	}
	return result, nil
}

// finalizeStatus decides how an attempt closes. The deadline boundary itself
// counts as expired: a submit landing at exactly startedAt+duration is an
// EXPIRED finalization.
func finalizeStatus(attempt *model.Attempt, exam *model.Exam, now time.Time) model.AttemptStatus {
	if !now.Before(attempt.Deadline(exam)) {
		return model.AttemptExpired
	}
	return model.AttemptSubmitted
}

// clampTimeSpent caps whatever elapsed time the client claims by the
// server-observed wall clock.
func clampTimeSpent(reported int, startedAt, now time.Time) int {
	serverElapsed := int(now.Sub(startedAt).Seconds())
	if reported <= 0 || reported > serverElapsed {
		return serverElapsed
	}
	return reported
}

type scoredAttempt struct {
	answers    []model.Answer
	score      float64
	percentage float64
	passed     bool
}

// scoreAttempt grades every question of the exam against the answer snapshot.
// A question whose key or response cannot be interpreted is left unscored
// rather than failing the submission.
func scoreAttempt(exam *model.Exam, attemptID uint, answers []model.Answer) scoredAttempt {
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	total := 0.0
	for i := range exam.Questions {
		q := &exam.Questions[i]
		ans, answered := byQuestion[q.ID]
		if !answered {
			continue
		}

		response := []byte(ans.Response)
		if exam.ShuffleQuestions {
			response = unshuffleResponse(q, attemptID, response)
		}
		outcome := ScoreQuestion(q, response, exam.NegativeMarking)
		if outcome.Reason == reasonMalformedKey {
			log.Warn().Uint("questionID", q.ID).Uint("attemptID", attemptID).Msg("Skipping auto-score: malformed answer key")
			continue
		}
		ans.IsCorrect = outcome.IsCorrect
		ans.PointsAwarded = outcome.Awarded
		if outcome.Awarded != nil {
			total += *outcome.Awarded
		}
	}

	percentage := 0.0
	if exam.TotalMarks > 0 {
		percentage = total / exam.TotalMarks * 100
	}
	return scoredAttempt{
		answers:    answers,
		score:      total,
		percentage: percentage,
		passed:     total >= exam.PassingMarks,
	}
}
