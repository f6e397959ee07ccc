package service

import (
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/ptdat2/examcore/config"
	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/model"
)

type attemptFixture struct {
	svc      AttemptService
	exams    *fakeExamRepo
	attempts *fakeAttemptRepo
	answers  *fakeAnswerRepo
	exam     *model.Exam
	now      time.Time
}

// newAttemptFixture seeds an approved exam whose window contains now, with one
// MCQ and one TRUE_FALSE question.
func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	exam := &model.Exam{
		ID:                     1,
		Title:                  "Algebra Midterm",
		Status:                 model.ExamApproved,
		TeacherID:              10,
		StartTime:              now.Add(-time.Hour),
		EndTime:                now.Add(time.Hour),
		DurationMinutes:        30,
		MaxAttempts:            2,
		TotalMarks:             6,
		PassingMarks:           3,
		ShowResultsImmediately: true,
		Questions: []model.Question{
			{ID: 101, ExamID: 1, Type: model.QuestionMCQ, Points: 4, Position: 1, Text: "2+2?",
				Options: datatypes.JSON(`["3","4","5"]`), CorrectAnswer: datatypes.JSON(`1`)},
			{ID: 102, ExamID: 1, Type: model.QuestionTrueFalse, Points: 2, Position: 2, Text: "0 is even.",
				Options: datatypes.JSON(`["True","False"]`), CorrectAnswer: datatypes.JSON(`true`)},
		},
	}

	exams := newFakeExamRepo(exam)
	answers := newFakeAnswerRepo()
	attempts := newFakeAttemptRepo(answers)
	cfg := &config.Config{Exam: config.Exam{WarningSeconds: 300}}
	svc := NewAttemptService(exams, newFakeQuestionRepo(exams), attempts, answers, newFakeUserRepo(), cfg)
	return &attemptFixture{svc: svc, exams: exams, attempts: attempts, answers: answers, exam: exam, now: now}
}

func TestStartAttempt(t *testing.T) {
	f := newAttemptFixture(t)

	resp, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Resumed {
		t.Error("fresh start reported as resumed")
	}
	if resp.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", resp.Attempt.AttemptNumber)
	}
	if resp.Attempt.Status != string(model.AttemptInProgress) {
		t.Errorf("status = %s, want IN_PROGRESS", resp.Attempt.Status)
	}
	if resp.TimeRemainingSeconds != 30*60 {
		t.Errorf("time remaining = %d, want %d", resp.TimeRemainingSeconds, 30*60)
	}
	if resp.WarningSeconds != 300 {
		t.Errorf("warning seconds = %d, want configured 300", resp.WarningSeconds)
	}
	if len(resp.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(resp.Questions))
	}
}

func TestStartAttemptOutsideWindow(t *testing.T) {
	f := newAttemptFixture(t)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"before start", f.exam.StartTime.Add(-time.Minute)},
		{"after end", f.exam.EndTime.Add(time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StartOrResumeAttempt(20, 1, tt.now)
			if !apperr.Is(err, apperr.KindExamNotActive) {
				t.Errorf("error = %v, want EXAM_NOT_ACTIVE", err)
			}
		})
	}
}

func TestStartAttemptUnapprovedExamHidden(t *testing.T) {
	f := newAttemptFixture(t)
	f.exam.Status = model.ExamPendingApproval

	_, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if !apperr.Is(err, apperr.KindExamNotActive) {
		t.Errorf("error = %v, want EXAM_NOT_ACTIVE", err)
	}
}

func TestStartAttemptResumes(t *testing.T) {
	f := newAttemptFixture(t)

	first, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	later := f.now.Add(10 * time.Minute)
	second, err := f.svc.StartOrResumeAttempt(20, 1, later)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Resumed {
		t.Error("second start should resume, not create")
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Errorf("resumed attempt %d, want %d", second.Attempt.ID, first.Attempt.ID)
	}
	if second.TimeRemainingSeconds != 20*60 {
		t.Errorf("time remaining = %d, want %d (clock keeps running)", second.TimeRemainingSeconds, 20*60)
	}
	if len(f.attempts.attempts) != 1 {
		t.Errorf("attempt rows = %d, want 1", len(f.attempts.attempts))
	}
}

func TestStartAttemptMaxAttemptsExceeded(t *testing.T) {
	f := newAttemptFixture(t)

	// Two finished attempts exhaust MaxAttempts=2.
	for n := 1; n <= 2; n++ {
		f.attempts.Create(&model.Attempt{
			ExamID: 1, StudentID: 20, AttemptNumber: n,
			Status: model.AttemptSubmitted, StartedAt: f.now.Add(-time.Hour),
		})
	}

	_, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if !apperr.Is(err, apperr.KindMaxAttemptsExceeded) {
		t.Errorf("error = %v, want MAX_ATTEMPTS_EXCEEDED", err)
	}
}

func TestStartAttemptResumeWinsOverCap(t *testing.T) {
	f := newAttemptFixture(t)
	f.exam.MaxAttempts = 1

	f.attempts.Create(&model.Attempt{
		ExamID: 1, StudentID: 20, AttemptNumber: 1,
		Status: model.AttemptInProgress, StartedAt: f.now.Add(-5 * time.Minute),
	})

	resp, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Resumed {
		t.Error("open attempt must be returnable even at the cap")
	}
}

func TestSaveAnswerUpsert(t *testing.T) {
	f := newAttemptFixture(t)
	start, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	attemptID := start.Attempt.ID

	save := func(response string) error {
		return f.svc.SaveAnswer(20, dto.SaveAnswerDTO{
			AttemptID:  attemptID,
			QuestionID: 101,
			Response:   datatypes.JSON(response),
		}, f.now.Add(time.Minute))
	}

	if err := save(`0`); err != nil {
		t.Fatal(err)
	}
	if err := save(`1`); err != nil {
		t.Fatal(err)
	}

	stored, err := f.answers.FindByAttemptAndQuestion(attemptID, 101)
	if err != nil {
		t.Fatal(err)
	}
	if string(stored.Response) != `1` {
		t.Errorf("stored response = %s, want the later write", stored.Response)
	}
	if rows, _ := f.answers.FindByAttemptID(nil, attemptID); len(rows) != 1 {
		t.Errorf("answer rows = %d, want 1 (upsert, not append)", len(rows))
	}
}

func TestSaveAnswerRejections(t *testing.T) {
	f := newAttemptFixture(t)
	start, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	attemptID := start.Attempt.ID
	req := dto.SaveAnswerDTO{AttemptID: attemptID, QuestionID: 101, Response: datatypes.JSON(`0`)}

	tests := []struct {
		name     string
		setup    func()
		student  uint
		req      dto.SaveAnswerDTO
		now      time.Time
		wantKind apperr.Kind
	}{
		{
			name: "other student", student: 99, req: req,
			now: f.now.Add(time.Minute), wantKind: apperr.KindForbidden,
		},
		{
			name: "after hard deadline", student: 20, req: req,
			now: f.now.Add(30 * time.Minute), wantKind: apperr.KindAttemptNotActive,
		},
		{
			name:    "exam cancelled mid-attempt",
			setup:   func() { f.exam.Status = model.ExamCancelled },
			student: 20, req: req,
			now: f.now.Add(time.Minute), wantKind: apperr.KindAttemptNotActive,
		},
		{
			name:    "question from another exam",
			setup:   func() { f.exam.Status = model.ExamApproved },
			student: 20,
			req:     dto.SaveAnswerDTO{AttemptID: attemptID, QuestionID: 999, Response: datatypes.JSON(`0`)},
			now:     f.now.Add(time.Minute), wantKind: apperr.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			err := f.svc.SaveAnswer(tt.student, tt.req, tt.now)
			if !apperr.Is(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}

	// A finalized attempt rejects further saves.
	f.attempts.attempts[attemptID].Status = model.AttemptSubmitted
	err = f.svc.SaveAnswer(20, req, f.now.Add(time.Minute))
	if !apperr.Is(err, apperr.KindAttemptNotActive) {
		t.Errorf("save against submitted attempt = %v, want ATTEMPT_NOT_ACTIVE", err)
	}
}

func TestGetAttemptDetailWithholdsResults(t *testing.T) {
	f := newAttemptFixture(t)
	start, err := f.svc.StartOrResumeAttempt(20, 1, f.now)
	if err != nil {
		t.Fatal(err)
	}
	attemptID := start.Attempt.ID

	// In progress: no scores regardless of exam policy.
	detail, err := f.svc.GetAttemptDetail(20, attemptID, f.now)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Score != nil || detail.Percentage != nil || detail.Passed != nil {
		t.Error("in-progress attempt must not expose scores")
	}

	// Finalized with results withheld by the exam.
	score := 4.0
	attempt := f.attempts.attempts[attemptID]
	attempt.Status = model.AttemptSubmitted
	attempt.Score = &score
	f.exam.ShowResultsImmediately = false

	detail, err = f.svc.GetAttemptDetail(20, attemptID, f.now)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Score != nil {
		t.Error("exam withholding results must hide the score")
	}

	// Policy flipped back: score visible.
	f.exam.ShowResultsImmediately = true
	detail, err = f.svc.GetAttemptDetail(20, attemptID, f.now)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Score == nil || *detail.Score != score {
		t.Errorf("score = %v, want %v", detail.Score, score)
	}

	// Another student cannot read it at all.
	if _, err := f.svc.GetAttemptDetail(99, attemptID, f.now); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("cross-student read = %v, want FORBIDDEN", err)
	}
}

func TestListExamsHidesDrafts(t *testing.T) {
	f := newAttemptFixture(t)
	f.exams.Create(&model.Exam{Title: "Draft quiz", Status: model.ExamDraft, TeacherID: 10,
		StartTime: f.now, EndTime: f.now.Add(time.Hour)})

	list, err := f.svc.ListExams(f.now)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("visible exams = %d, want 1", len(list))
	}
	if list[0].EffectiveStatus != string(model.ExamActive) {
		t.Errorf("effective status = %s, want ACTIVE", list[0].EffectiveStatus)
	}
}
