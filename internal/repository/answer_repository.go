package repository

import (
	"github.com/ptdat2/examcore/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert writes the response for (attempt, question), overwriting any
	// earlier save. The unique index makes retries and duplicate debounce
	// fires idempotent; last write wins in arrival order.
	Upsert(attemptID, questionID uint, response datatypes.JSON) error
	Update(answer *model.Answer) error
	// FindByAttemptID reads within tx when one is given, so scoring sees the
	// same snapshot it writes back to.
	FindByAttemptID(tx *gorm.DB, attemptID uint) ([]model.Answer, error)
	FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error)
	// ApplyScores writes is_correct and points_awarded for every scored
	// answer; unscored ones (nil/nil) are skipped.
	ApplyScores(tx *gorm.DB, answers []model.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(attemptID, questionID uint, response datatypes.JSON) error {
	answer := model.Answer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Response:   response,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"response", "updated_at"}),
	}).Create(&answer).Error
}

func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}

func (r *answerRepository) FindByAttemptID(tx *gorm.DB, attemptID uint) ([]model.Answer, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var answers []model.Answer
	err := db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

func (r *answerRepository) ApplyScores(tx *gorm.DB, answers []model.Answer) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	for i := range answers {
		ans := &answers[i]
		if ans.IsCorrect == nil && ans.PointsAwarded == nil {
			continue
		}
		err := db.Model(&model.Answer{}).Where("id = ?", ans.ID).
			Updates(map[string]interface{}{
				"is_correct":     ans.IsCorrect,
				"points_awarded": ans.PointsAwarded,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *answerRepository) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
