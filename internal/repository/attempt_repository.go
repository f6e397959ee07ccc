package repository

import (
	"time"

	"github.com/ptdat2/examcore/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	Update(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithAnswers(id uint) (*model.Attempt, error)
	FindInProgress(examID, studentID uint) (*model.Attempt, error)
	CountByExamAndStudent(examID, studentID uint) (int64, error)
	FindAllByExamAndStudent(examID, studentID uint) ([]model.Attempt, error)
	FindAllByExam(examID uint) ([]model.Attempt, error)
	CountByExam(examID uint) (int64, error)
	// Finalize flips an IN_PROGRESS attempt to the given terminal status with a
	// single conditional update. It reports false when another writer got there
	// first, which is how concurrent submits are serialized.
	Finalize(tx *gorm.DB, attemptID uint, status model.AttemptStatus, submittedAt time.Time, timeSpentSeconds int) (bool, error)
	// StoreResult writes the computed totals onto a finalized attempt.
	StoreResult(tx *gorm.DB, attemptID uint, score, percentage float64, passed bool) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) Update(attempt *model.Attempt) error {
	return r.db.Save(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Preload("Answers").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindInProgress(examID, studentID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Where("exam_id = ? AND student_id = ? AND status = ?", examID, studentID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) CountByExamAndStudent(examID, studentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) FindAllByExamAndStudent(examID, studentID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindAllByExam(examID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("exam_id = ?", examID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) CountByExam(examID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

func (r *attemptRepository) Finalize(tx *gorm.DB, attemptID uint, status model.AttemptStatus, submittedAt time.Time, timeSpentSeconds int) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":             status,
			"submitted_at":       submittedAt,
			"time_spent_seconds": timeSpentSeconds,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attemptRepository) StoreResult(tx *gorm.DB, attemptID uint, score, percentage float64, passed bool) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.Model(&model.Attempt{}).Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"score":      score,
			"percentage": percentage,
			"passed":     passed,
		}).Error
}
