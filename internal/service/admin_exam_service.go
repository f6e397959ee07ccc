package service

import (
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminExamService holds the admin half of the approval workflow.
type AdminExamService interface {
	Approve(adminID, examID uint) (*dto.ExamResponseDTO, error)
	Reject(adminID, examID uint, reason string) (*dto.ExamResponseDTO, error)
	// Cancel withdraws an approved or published exam; in-flight attempts fail
	// closed on their next save or submit.
	Cancel(adminID, examID uint) (*dto.ExamResponseDTO, error)
}

type adminExamService struct {
	examRepo repository.ExamRepository
	userRepo repository.UserRepository
}

func NewAdminExamService(examRepo repository.ExamRepository, userRepo repository.UserRepository) AdminExamService {
	return &adminExamService{examRepo: examRepo, userRepo: userRepo}
}

func (s *adminExamService) loadAsAdmin(adminID, examID uint) (*model.Exam, error) {
	user, err := s.userRepo.FindByID(adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("unknown actor %d", adminID)
		}
		return nil, err
	}
	if user.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("actor %d is not an admin", adminID)
	}
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("exam %d not found", examID)
		}
		return nil, err
	}
	return exam, nil
}

func (s *adminExamService) Approve(adminID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadAsAdmin(adminID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamPendingApproval {
		return nil, apperr.InvalidTransition(string(exam.Status), string(model.ExamApproved))
	}

	exam.Status = model.ExamApproved
	exam.ApproverID = &adminID
	exam.RejectReason = ""
	if err := s.examRepo.Save(exam); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("Approve: failed to save exam")
		return nil, err
	}
	log.Info().Uint("examID", examID).Uint("adminID", adminID).Msg("Exam approved")
	return adminExamResponse(exam), nil
}

func (s *adminExamService) Reject(adminID, examID uint, reason string) (*dto.ExamResponseDTO, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("a rejection reason is required")
	}
	exam, err := s.loadAsAdmin(adminID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamPendingApproval {
		return nil, apperr.InvalidTransition(string(exam.Status), string(model.ExamRejected))
	}

	exam.Status = model.ExamRejected
	exam.ApproverID = &adminID
	exam.RejectReason = reason
	if err := s.examRepo.Save(exam); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("Reject: failed to save exam")
		return nil, err
	}
	log.Info().Uint("examID", examID).Uint("adminID", adminID).Str("reason", reason).Msg("Exam rejected")
	return adminExamResponse(exam), nil
}

func (s *adminExamService) Cancel(adminID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadAsAdmin(adminID, examID)
	if err != nil {
		return nil, err
	}
	switch exam.Status {
	case model.ExamApproved, model.ExamPublished, model.ExamScheduled, model.ExamActive:
	default:
		return nil, apperr.InvalidTransition(string(exam.Status), string(model.ExamCancelled))
	}

	exam.Status = model.ExamCancelled
	if err := s.examRepo.Save(exam); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("Cancel: failed to save exam")
		return nil, err
	}
	log.Warn().Uint("examID", examID).Uint("adminID", adminID).Msg("Exam cancelled")
	return adminExamResponse(exam), nil
}

func adminExamResponse(exam *model.Exam) *dto.ExamResponseDTO {
	var resp dto.ExamResponseDTO
	if err := copier.Copy(&resp, exam); err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("Failed to copy exam to DTO")
	}
	resp.Status = string(exam.Status)
	resp.EffectiveStatus = string(exam.EffectiveStatus(time.Now()))
	return &resp
}
