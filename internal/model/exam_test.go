package model

import (
	"testing"
	"time"
)

func TestExamEffectiveStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name   string
		stored ExamStatus
		now    time.Time
		want   ExamStatus
	}{
		{"approved before window", ExamApproved, start.Add(-time.Minute), ExamScheduled},
		{"approved at start", ExamApproved, start, ExamActive},
		{"approved inside window", ExamApproved, start.Add(time.Hour), ExamActive},
		{"approved at end", ExamApproved, end, ExamCompleted},
		{"approved after window", ExamApproved, end.Add(time.Minute), ExamCompleted},
		{"published inside window", ExamPublished, start.Add(time.Hour), ExamActive},
		{"stored scheduled past end", ExamScheduled, end.Add(time.Hour), ExamCompleted},
		{"stored active before start", ExamActive, start.Add(-time.Hour), ExamScheduled},
		{"draft ignores clock", ExamDraft, start.Add(time.Hour), ExamDraft},
		{"pending approval ignores clock", ExamPendingApproval, start.Add(time.Hour), ExamPendingApproval},
		{"rejected ignores clock", ExamRejected, start.Add(time.Hour), ExamRejected},
		{"cancelled ignores clock", ExamCancelled, start.Add(time.Hour), ExamCancelled},
		{"completed stays completed", ExamCompleted, start.Add(-time.Hour), ExamCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam := &Exam{Status: tt.stored, StartTime: start, EndTime: end}
			if got := exam.EffectiveStatus(tt.now); got != tt.want {
				t.Errorf("EffectiveStatus(%v) with stored %s = %s, want %s", tt.now, tt.stored, got, tt.want)
			}
		})
	}
}

func TestAttemptDeadlineAndRemaining(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exam := &Exam{DurationMinutes: 30}
	attempt := &Attempt{StartedAt: started}

	wantDeadline := started.Add(30 * time.Minute)
	if got := attempt.Deadline(exam); !got.Equal(wantDeadline) {
		t.Fatalf("Deadline = %v, want %v", got, wantDeadline)
	}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at start", started, 1800},
		{"mid attempt", started.Add(10 * time.Minute), 1200},
		{"at deadline", wantDeadline, 0},
		{"past deadline", wantDeadline.Add(5 * time.Minute), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attempt.TimeRemaining(exam, tt.now); got != tt.want {
				t.Errorf("TimeRemaining(%v) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}
