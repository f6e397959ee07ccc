package service

import (
	"database/sql"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ptdat2/examcore/internal/model"
)

// In-memory repository fakes. They mimic just enough of the gorm-backed
// implementations, including ErrRecordNotFound, for service tests to run
// without a database.

type fakeUserRepo struct {
	users map[uint]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*model.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeExamRepo struct {
	exams  map[uint]*model.Exam
	nextID uint
	writes int
}

func newFakeExamRepo(exams ...*model.Exam) *fakeExamRepo {
	repo := &fakeExamRepo{exams: make(map[uint]*model.Exam), nextID: 1}
	for _, e := range exams {
		if e.ID >= repo.nextID {
			repo.nextID = e.ID + 1
		}
		repo.exams[e.ID] = e
	}
	return repo
}

func (r *fakeExamRepo) Create(exam *model.Exam) error {
	exam.ID = r.nextID
	r.nextID++
	for i := range exam.Questions {
		exam.Questions[i].ID = exam.ID*100 + uint(i) + 1
		exam.Questions[i].ExamID = exam.ID
	}
	r.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) Save(exam *model.Exam) error {
	r.writes++
	r.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) Delete(id uint) error {
	delete(r.exams, id)
	return nil
}

func (r *fakeExamRepo) FindByID(id uint) (*model.Exam, error) {
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (r *fakeExamRepo) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	return r.FindByID(id)
}

func (r *fakeExamRepo) FindByTeacherID(teacherID uint) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range r.exams {
		if e.TeacherID == teacherID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeExamRepo) SaveWithQuestions(exam *model.Exam, questions []model.Question) error {
	r.writes++
	for i := range questions {
		questions[i].ID = exam.ID*100 + uint(i) + 1
		questions[i].ExamID = exam.ID
	}
	exam.Questions = questions
	r.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) FindVisibleToStudents() ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range r.exams {
		switch e.Status {
		case model.ExamApproved, model.ExamPublished, model.ExamScheduled, model.ExamActive, model.ExamCompleted:
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

type fakeQuestionRepo struct {
	exams *fakeExamRepo
}

func newFakeQuestionRepo(exams *fakeExamRepo) *fakeQuestionRepo {
	return &fakeQuestionRepo{exams: exams}
}

func (r *fakeQuestionRepo) Create(question *model.Question) error { return nil }

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	for _, e := range r.exams.exams {
		for i := range e.Questions {
			if e.Questions[i].ID == id {
				return &e.Questions[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) FindByExamID(examID uint) ([]model.Question, error) {
	exam, ok := r.exams.exams[examID]
	if !ok {
		return nil, nil
	}
	return exam.Questions, nil
}

func (r *fakeQuestionRepo) Update(question *model.Question) error { return nil }
func (r *fakeQuestionRepo) Delete(id uint) error                  { return nil }

type fakeAttemptRepo struct {
	attempts map[uint]*model.Attempt
	answers  *fakeAnswerRepo
	nextID   uint
}

func newFakeAttemptRepo(answers *fakeAnswerRepo) *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uint]*model.Attempt), answers: answers, nextID: 1}
}

func (r *fakeAttemptRepo) Create(attempt *model.Attempt) error {
	attempt.ID = r.nextID
	r.nextID++
	r.attempts[attempt.ID] = attempt
	return nil
}

func (r *fakeAttemptRepo) Update(attempt *model.Attempt) error {
	r.attempts[attempt.ID] = attempt
	return nil
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (r *fakeAttemptRepo) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	attempt, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if r.answers != nil {
		attempt.Answers, _ = r.answers.FindByAttemptID(nil, id)
	}
	return attempt, nil
}

func (r *fakeAttemptRepo) FindInProgress(examID, studentID uint) (*model.Attempt, error) {
	for _, a := range r.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status == model.AttemptInProgress {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) CountByExamAndStudent(examID, studentID uint) (int64, error) {
	var count int64
	for _, a := range r.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) FindAllByExamAndStudent(examID, studentID uint) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (r *fakeAttemptRepo) FindAllByExam(examID uint) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.ExamID == examID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttemptRepo) CountByExam(examID uint) (int64, error) {
	var count int64
	for _, a := range r.attempts {
		if a.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) Finalize(tx *gorm.DB, attemptID uint, status model.AttemptStatus, submittedAt time.Time, timeSpentSeconds int) (bool, error) {
	attempt, ok := r.attempts[attemptID]
	if !ok || attempt.Status != model.AttemptInProgress {
		return false, nil
	}
	attempt.Status = status
	attempt.SubmittedAt = &submittedAt
	attempt.TimeSpentSeconds = &timeSpentSeconds
	return true, nil
}

func (r *fakeAttemptRepo) StoreResult(tx *gorm.DB, attemptID uint, score, percentage float64, passed bool) error {
	attempt, ok := r.attempts[attemptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	attempt.Score = &score
	attempt.Percentage = &percentage
	attempt.Passed = &passed
	return nil
}

type answerKey struct {
	attemptID  uint
	questionID uint
}

type fakeAnswerRepo struct {
	answers map[answerKey]*model.Answer
	nextID  uint
	upserts int
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[answerKey]*model.Answer), nextID: 1}
}

func (r *fakeAnswerRepo) Upsert(attemptID, questionID uint, response datatypes.JSON) error {
	r.upserts++
	key := answerKey{attemptID, questionID}
	if existing, ok := r.answers[key]; ok {
		existing.Response = response
		return nil
	}
	r.answers[key] = &model.Answer{
		ID:         r.nextID,
		AttemptID:  attemptID,
		QuestionID: questionID,
		Response:   response,
	}
	r.nextID++
	return nil
}

func (r *fakeAnswerRepo) Update(answer *model.Answer) error {
	r.answers[answerKey{answer.AttemptID, answer.QuestionID}] = answer
	return nil
}

func (r *fakeAnswerRepo) FindByAttemptID(tx *gorm.DB, attemptID uint) ([]model.Answer, error) {
	var out []model.Answer
	for _, a := range r.answers {
		if a.AttemptID == attemptID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (r *fakeAnswerRepo) ApplyScores(tx *gorm.DB, answers []model.Answer) error {
	for i := range answers {
		scored := &answers[i]
		if scored.IsCorrect == nil && scored.PointsAwarded == nil {
			continue
		}
		stored, ok := r.answers[answerKey{scored.AttemptID, scored.QuestionID}]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		stored.IsCorrect = scored.IsCorrect
		stored.PointsAwarded = scored.PointsAwarded
	}
	return nil
}

func (r *fakeAnswerRepo) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error) {
	answer, ok := r.answers[answerKey{attemptID, questionID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return answer, nil
}

// fakeTxRunner runs the transaction body directly; the fakes below ignore the
// nil tx the same way the gorm repositories fall back to their base handle.
type fakeTxRunner struct{}

func (fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}
