package service

import (
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"github.com/ptdat2/examcore/config"
	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService creates and resumes timed attempts and persists in-progress
// answers. Submission and scoring live in SubmissionService.
type AttemptService interface {
	StartOrResumeAttempt(studentID, examID uint, now time.Time) (*dto.StartAttemptResponseDTO, error)
	SaveAnswer(studentID uint, req dto.SaveAnswerDTO, now time.Time) error
	ListExams(now time.Time) ([]dto.ExamSummaryDTO, error)
	GetAttemptDetail(studentID, attemptID uint, now time.Time) (*dto.AttemptDetailDTO, error)
	GetAttemptsForExam(teacherID, examID uint) ([]dto.AttemptSummaryDTO, error)
}

type attemptService struct {
	examRepo       repository.ExamRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	userRepo       repository.UserRepository
	warningSeconds int
}

func NewAttemptService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		examRepo:       examRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		userRepo:       userRepo,
		warningSeconds: cfg.Exam.WarningSeconds,
	}
}

func (s *attemptService) StartOrResumeAttempt(studentID, examID uint, now time.Time) (*dto.StartAttemptResponseDTO, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("exam %d not found", examID)
		}
		return nil, err
	}
	if effective := exam.EffectiveStatus(now); effective != model.ExamActive {
		return nil, apperr.ExamNotActive("exam %d is %s, not ACTIVE", examID, effective)
	}

	// Resume wins over the attempt cap: an open attempt is always returnable.
	inProgress, err := s.attemptRepo.FindInProgress(examID, studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if inProgress != nil {
		log.Info().Uint("attemptID", inProgress.ID).Uint("studentID", studentID).Msg("Resuming in-progress attempt")
		return s.startResponse(exam, inProgress, now, true), nil
	}

	count, err := s.attemptRepo.CountByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, err
	}
	if count >= int64(exam.MaxAttempts) {
		return nil, apperr.MaxAttemptsExceeded("student %d has used %d of %d attempts for exam %d", studentID, count, exam.MaxAttempts, examID)
	}

	attempt := model.Attempt{
		ExamID:        examID,
		StudentID:     studentID,
		AttemptNumber: int(count) + 1,
		Status:        model.AttemptInProgress,
		StartedAt:     now,
	}
	if err := s.attemptRepo.Create(&attempt); err != nil {
		return nil, err
	}
	log.Info().Uint("attemptID", attempt.ID).Uint("examID", examID).Uint("studentID", studentID).Int("number", attempt.AttemptNumber).Msg("Attempt started")
	return s.startResponse(exam, &attempt, now, false), nil
}

func (s *attemptService) startResponse(exam *model.Exam, attempt *model.Attempt, now time.Time, resumed bool) *dto.StartAttemptResponseDTO {
	questions := exam.Questions
	if exam.ShuffleQuestions {
		questions = shuffledQuestions(questions, attempt.ID)
	}

	questionDTOs := make([]dto.StudentQuestionDTO, 0, len(questions))
	for i := range questions {
		q := questions[i]
		qDto := dto.StudentQuestionDTO{
			ID:         q.ID,
			Text:       q.Text,
			Type:       string(q.Type),
			Points:     q.Points,
			Difficulty: q.Difficulty,
			Position:   q.Position,
			Options:    q.Options,
		}
		if exam.ShuffleQuestions {
			qDto.Options = shuffledOptions(&q, attempt.ID)
		}
		questionDTOs = append(questionDTOs, qDto)
	}

	return &dto.StartAttemptResponseDTO{
		Exam:                 examSummary(exam, now),
		Attempt:              attemptSummary(attempt, false),
		Questions:            questionDTOs,
		TimeRemainingSeconds: attempt.TimeRemaining(exam, now),
		WarningSeconds:       s.warningSeconds,
		Resumed:              resumed,
	}
}

func (s *attemptService) SaveAnswer(studentID uint, req dto.SaveAnswerDTO, now time.Time) error {
	attempt, err := s.attemptRepo.FindByID(req.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("attempt %d not found", req.AttemptID)
		}
		return err
	}
	if attempt.StudentID != studentID {
		return apperr.Forbidden("attempt %d does not belong to student %d", req.AttemptID, studentID)
	}
	if attempt.Status != model.AttemptInProgress {
		return apperr.AttemptNotActive("attempt %d is %s", attempt.ID, attempt.Status)
	}

	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return err
	}
	// Fail closed: saves after the hard deadline or against a cancelled or
	// ended exam are rejected, never silently accepted.
	if !now.Before(attempt.Deadline(exam)) {
		return apperr.AttemptNotActive("attempt %d deadline has passed", attempt.ID)
	}
	if effective := exam.EffectiveStatus(now); effective != model.ExamActive {
		return apperr.AttemptNotActive("exam %d is %s", exam.ID, effective)
	}

	question, err := s.questionRepo.FindByID(req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("question %d not found", req.QuestionID)
		}
		return err
	}
	if question.ExamID != attempt.ExamID {
		return apperr.Validation("question %d is not part of exam %d", req.QuestionID, attempt.ExamID)
	}

	if err := s.answerRepo.Upsert(attempt.ID, question.ID, req.Response); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("questionID", question.ID).Msg("SaveAnswer: upsert failed")
		return err
	}
	return nil
}

func (s *attemptService) ListExams(now time.Time) ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindVisibleToStudents()
	if err != nil {
		return nil, err
	}
	dtos := make([]dto.ExamSummaryDTO, 0, len(exams))
	for i := range exams {
		dtos = append(dtos, examSummary(&exams[i], now))
	}
	return dtos, nil
}

func (s *attemptService) GetAttemptDetail(studentID, attemptID uint, now time.Time) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attempt %d not found", attemptID)
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, apperr.Forbidden("attempt %d does not belong to student %d", attemptID, studentID)
	}
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}

	withheld := attempt.Status == model.AttemptInProgress || !exam.ShowResultsImmediately
	detail := dto.AttemptDetailDTO{
		AttemptSummaryDTO: attemptSummary(attempt, withheld),
		ExamTitle:         exam.Title,
	}
	for i := range attempt.Answers {
		ans := attempt.Answers[i]
		ansDTO := dto.AnswerDetailDTO{
			QuestionID: ans.QuestionID,
			Response:   ans.Response,
		}
		if ans.Question.ID != 0 {
			var qDTO dto.StudentQuestionDTO
			if err := copier.Copy(&qDTO, &ans.Question); err == nil {
				qDTO.Type = string(ans.Question.Type)
				ansDTO.Question = &qDTO
			}
		}
		if !withheld {
			ansDTO.IsCorrect = ans.IsCorrect
			ansDTO.PointsAwarded = ans.PointsAwarded
			ansDTO.Feedback = ans.Feedback
		}
		detail.Answers = append(detail.Answers, ansDTO)
	}
	return &detail, nil
}

func (s *attemptService) GetAttemptsForExam(teacherID, examID uint) ([]dto.AttemptSummaryDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("exam %d not found", examID)
		}
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, apperr.Forbidden("exam %d is not owned by teacher %d", examID, teacherID)
	}
	attempts, err := s.attemptRepo.FindAllByExam(examID)
	if err != nil {
		return nil, err
	}
	dtos := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		dtos = append(dtos, attemptSummary(&attempts[i], false))
	}
	return dtos, nil
}

func examSummary(exam *model.Exam, now time.Time) dto.ExamSummaryDTO {
	return dto.ExamSummaryDTO{
		ID:              exam.ID,
		Title:           exam.Title,
		Description:     exam.Description,
		Subject:         exam.Subject,
		StartTime:       exam.StartTime,
		EndTime:         exam.EndTime,
		DurationMinutes: exam.DurationMinutes,
		TotalMarks:      exam.TotalMarks,
		MaxAttempts:     exam.MaxAttempts,
		EffectiveStatus: string(exam.EffectiveStatus(now)),
	}
}

// attemptSummary maps an attempt row; withheld drops score fields for reads
// that must not leak results yet.
func attemptSummary(attempt *model.Attempt, withheld bool) dto.AttemptSummaryDTO {
	summary := dto.AttemptSummaryDTO{
		ID:               attempt.ID,
		ExamID:           attempt.ExamID,
		StudentID:        attempt.StudentID,
		AttemptNumber:    attempt.AttemptNumber,
		Status:           string(attempt.Status),
		StartedAt:        attempt.StartedAt,
		SubmittedAt:      attempt.SubmittedAt,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
	}
	if !withheld {
		summary.Score = attempt.Score
		summary.Percentage = attempt.Percentage
		summary.Passed = attempt.Passed
	}
	return summary
}
