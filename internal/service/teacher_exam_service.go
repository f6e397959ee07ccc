package service

import (
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TeacherExamService covers the authoring side of the exam lifecycle: CRUD
// while the definition is mutable, plus the teacher's approval transition.
type TeacherExamService interface {
	CreateExam(teacherID uint, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error)
	UpdateExam(teacherID, examID uint, req dto.ExamUpdateDTO) (*dto.ExamResponseDTO, error)
	DeleteExam(teacherID, examID uint) error
	SubmitForApproval(teacherID, examID uint) (*dto.ExamResponseDTO, error)
	GetOwnExams(teacherID uint, now time.Time) ([]dto.ExamResponseDTO, error)
	GetExam(teacherID, examID uint, now time.Time) (*dto.ExamResponseDTO, error)
}

type teacherExamService struct {
	examRepo    repository.ExamRepository
	attemptRepo repository.AttemptRepository
	userRepo    repository.UserRepository
}

func NewTeacherExamService(examRepo repository.ExamRepository, attemptRepo repository.AttemptRepository, userRepo repository.UserRepository) TeacherExamService {
	return &teacherExamService{examRepo: examRepo, attemptRepo: attemptRepo, userRepo: userRepo}
}

func (s *teacherExamService) requireTeacher(teacherID uint) error {
	user, err := s.userRepo.FindByID(teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Forbidden("unknown actor %d", teacherID)
		}
		return err
	}
	if user.Role != model.RoleTeacher {
		return apperr.Forbidden("actor %d is not a teacher", teacherID)
	}
	return nil
}

// loadOwned fetches the exam and enforces ownership.
func (s *teacherExamService) loadOwned(teacherID, examID uint) (*model.Exam, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("exam %d not found", examID)
		}
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, apperr.Forbidden("exam %d is not owned by teacher %d", examID, teacherID)
	}
	return exam, nil
}

func (s *teacherExamService) CreateExam(teacherID uint, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error) {
	if err := s.requireTeacher(teacherID); err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.Validation("exam end time must be after start time")
	}

	exam := model.Exam{
		Title:                  req.Title,
		Description:            req.Description,
		Subject:                req.Subject,
		ClassName:              req.ClassName,
		StartTime:              req.StartTime,
		EndTime:                req.EndTime,
		DurationMinutes:        req.DurationMinutes,
		PassingMarks:           req.PassingMarks,
		NegativeMarking:        req.NegativeMarking,
		ShuffleQuestions:       req.ShuffleQuestions,
		MaxAttempts:            req.MaxAttempts,
		ShowResultsImmediately: req.ShowResultsImmediately,
		AllowPreview:           req.AllowPreview,
		Status:                 model.ExamDraft,
		TeacherID:              teacherID,
	}
	if exam.MaxAttempts < 1 {
		exam.MaxAttempts = 1
	}

	for i, qDto := range req.Questions {
		question := model.Question{
			Text:          qDto.Text,
			Type:          model.QuestionType(qDto.Type),
			Points:        qDto.Points,
			Difficulty:    qDto.Difficulty,
			Position:      qDto.Position,
			Options:       qDto.Options,
			CorrectAnswer: qDto.CorrectAnswer,
			Explanation:   qDto.Explanation,
		}
		if question.Position == 0 {
			question.Position = i + 1
		}
		if err := validateQuestion(&question); err != nil {
			return nil, err
		}
		exam.Questions = append(exam.Questions, question)
	}
	exam.TotalMarks = computeTotalMarks(exam.Questions)

	if err := s.examRepo.Create(&exam); err != nil {
		log.Error().Err(err).Msg("CreateExam: failed to persist exam")
		return nil, err
	}
	log.Info().Uint("examID", exam.ID).Uint("teacherID", teacherID).Int("questions", len(exam.Questions)).Msg("Exam created as draft")
	return s.toResponse(&exam, time.Now()), nil
}

func (s *teacherExamService) UpdateExam(teacherID, examID uint, req dto.ExamUpdateDTO) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwned(teacherID, examID)
	if err != nil {
		return nil, err
	}
	if !CanModify(exam) {
		return nil, apperr.InvalidTransition(string(exam.Status), "edit")
	}

	applyExamUpdate(exam, req)
	if !exam.EndTime.After(exam.StartTime) {
		return nil, apperr.Validation("exam end time must be after start time")
	}

	// The whole merged update is validated before anything is written, and the
	// exam row and its question set go down in one transaction: totalMarks can
	// never diverge from the stored questions.
	if req.Questions != nil {
		questions := make([]model.Question, 0, len(req.Questions))
		for i, qDto := range req.Questions {
			question := model.Question{
				ExamID:        exam.ID,
				Text:          qDto.Text,
				Type:          model.QuestionType(qDto.Type),
				Points:        qDto.Points,
				Difficulty:    qDto.Difficulty,
				Position:      qDto.Position,
				Options:       qDto.Options,
				CorrectAnswer: qDto.CorrectAnswer,
				Explanation:   qDto.Explanation,
			}
			if question.Position == 0 {
				question.Position = i + 1
			}
			if err := validateQuestion(&question); err != nil {
				return nil, err
			}
			questions = append(questions, question)
		}
		exam.TotalMarks = computeTotalMarks(questions)
		if err := s.examRepo.SaveWithQuestions(exam, questions); err != nil {
			log.Error().Err(err).Uint("examID", exam.ID).Msg("UpdateExam: failed to save exam with questions")
			return nil, err
		}
		return s.toResponse(exam, time.Now()), nil
	}

	exam.TotalMarks = computeTotalMarks(exam.Questions)
	if err := s.examRepo.Save(exam); err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("UpdateExam: failed to save exam")
		return nil, err
	}
	return s.toResponse(exam, time.Now()), nil
}

func (s *teacherExamService) DeleteExam(teacherID, examID uint) error {
	exam, err := s.loadOwned(teacherID, examID)
	if err != nil {
		return err
	}
	attemptCount, err := s.attemptRepo.CountByExam(examID)
	if err != nil {
		return err
	}
	if !CanDelete(exam, attemptCount) {
		if attemptCount > 0 {
			return apperr.InvalidTransition(string(exam.Status), "delete with existing attempts")
		}
		return apperr.InvalidTransition(string(exam.Status), "delete")
	}
	if err := s.examRepo.Delete(examID); err != nil {
		return err
	}
	log.Info().Uint("examID", examID).Uint("teacherID", teacherID).Msg("Exam deleted")
	return nil
}

func (s *teacherExamService) SubmitForApproval(teacherID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwned(teacherID, examID)
	if err != nil {
		return nil, err
	}
	if !CanModify(exam) {
		return nil, apperr.InvalidTransition(string(exam.Status), string(model.ExamPendingApproval))
	}
	if err := validateExamDefinition(exam); err != nil {
		return nil, err
	}

	exam.Status = model.ExamPendingApproval
	exam.RejectReason = ""
	exam.TotalMarks = computeTotalMarks(exam.Questions)
	if err := s.examRepo.Save(exam); err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("SubmitForApproval: failed to save exam")
		return nil, err
	}
	log.Info().Uint("examID", exam.ID).Msg("Exam submitted for approval")
	return s.toResponse(exam, time.Now()), nil
}

func (s *teacherExamService) GetOwnExams(teacherID uint, now time.Time) ([]dto.ExamResponseDTO, error) {
	if err := s.requireTeacher(teacherID); err != nil {
		return nil, err
	}
	exams, err := s.examRepo.FindByTeacherID(teacherID)
	if err != nil {
		return nil, err
	}
	dtos := make([]dto.ExamResponseDTO, 0, len(exams))
	for i := range exams {
		dtos = append(dtos, *s.toResponse(&exams[i], now))
	}
	return dtos, nil
}

func (s *teacherExamService) GetExam(teacherID, examID uint, now time.Time) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwned(teacherID, examID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(exam, now), nil
}

func (s *teacherExamService) toResponse(exam *model.Exam, now time.Time) *dto.ExamResponseDTO {
	var resp dto.ExamResponseDTO
	if err := copier.Copy(&resp, exam); err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("Failed to copy exam to DTO")
	}
	resp.Status = string(exam.Status)
	resp.EffectiveStatus = string(exam.EffectiveStatus(now))
	for i := range exam.Questions {
		if i < len(resp.Questions) {
			resp.Questions[i].CorrectAnswer = exam.Questions[i].CorrectAnswer
			resp.Questions[i].Explanation = exam.Questions[i].Explanation
		}
	}
	return &resp
}

func applyExamUpdate(exam *model.Exam, req dto.ExamUpdateDTO) {
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.ClassName != nil {
		exam.ClassName = *req.ClassName
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.NegativeMarking != nil {
		exam.NegativeMarking = *req.NegativeMarking
	}
	if req.ShuffleQuestions != nil {
		exam.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.MaxAttempts != nil && *req.MaxAttempts >= 1 {
		exam.MaxAttempts = *req.MaxAttempts
	}
	if req.ShowResultsImmediately != nil {
		exam.ShowResultsImmediately = *req.ShowResultsImmediately
	}
	if req.AllowPreview != nil {
		exam.AllowPreview = *req.AllowPreview
	}
}
