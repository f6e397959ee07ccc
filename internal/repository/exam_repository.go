package repository

import (
	"github.com/ptdat2/examcore/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	Save(exam *model.Exam) error
	Delete(id uint) error
	FindByID(id uint) (*model.Exam, error)
	FindByIDWithQuestions(id uint) (*model.Exam, error)
	FindByTeacherID(teacherID uint) ([]model.Exam, error)
	// SaveWithQuestions persists the exam row and swaps its full question set
	// in one transaction, so a failure leaves both untouched. Refreshes
	// exam.Questions in place on success.
	SaveWithQuestions(exam *model.Exam, questions []model.Question) error
	// FindVisibleToStudents returns exams whose stored status can become
	// SCHEDULED/ACTIVE/COMPLETED on read; drafts and rejected rows stay hidden.
	FindVisibleToStudents() ([]model.Exam, error)
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	// GORM creates the associated questions when exam.Questions is populated.
	return r.db.Create(exam).Error
}

func (r *examRepository) Save(exam *model.Exam) error {
	return r.db.Save(exam).Error
}

func (r *examRepository) Delete(id uint) error {
	return r.db.Select("Questions").Delete(&model.Exam{ID: id}).Error
}

func (r *examRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.position ASC")
	}).First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByTeacherID(teacherID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Where("teacher_id = ?", teacherID).Order("created_at DESC").Find(&exams).Error
	return exams, err
}

func (r *examRepository) SaveWithQuestions(exam *model.Exam, questions []model.Question) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", exam.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].ExamID = exam.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Save(exam).Error
	})
	if err != nil {
		return err
	}
	exam.Questions = questions
	return nil
}

func (r *examRepository) FindVisibleToStudents() ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.
		Where("status IN ?", []model.ExamStatus{
			model.ExamApproved, model.ExamPublished,
			model.ExamScheduled, model.ExamActive, model.ExamCompleted,
		}).
		Order("start_time ASC").
		Find(&exams).Error
	return exams, err
}
