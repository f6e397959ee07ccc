package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"gorm.io/datatypes"

	"github.com/ptdat2/examcore/internal/model"
)

func TestShuffledQuestionsDeterministic(t *testing.T) {
	questions := make([]model.Question, 20)
	for i := range questions {
		questions[i] = model.Question{ID: uint(i + 1), Position: i}
	}

	first := shuffledQuestions(questions, 42)
	second := shuffledQuestions(questions, 42)
	if len(first) != len(questions) {
		t.Fatalf("shuffled length = %d, want %d", len(first), len(questions))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("same attempt must see the same order: position %d got %d then %d", i, first[i].ID, second[i].ID)
		}
	}

	// Every question appears exactly once.
	seen := make(map[uint]bool, len(first))
	for _, q := range first {
		if seen[q.ID] {
			t.Fatalf("question %d appears twice", q.ID)
		}
		seen[q.ID] = true
	}

	// Input order is preserved.
	for i, q := range questions {
		if q.ID != uint(i+1) {
			t.Fatalf("input slice mutated at %d", i)
		}
	}
}

func TestShuffledQuestionsVaryByAttempt(t *testing.T) {
	questions := make([]model.Question, 20)
	for i := range questions {
		questions[i] = model.Question{ID: uint(i + 1)}
	}

	a := shuffledQuestions(questions, 1)
	b := shuffledQuestions(questions, 2)
	same := true
	for i := range a {
		if a[i].ID != b[i].ID {
			same = false
			break
		}
	}
	if same {
		t.Error("consecutive attempt IDs produced identical orders")
	}
}

func TestUnshuffleResponseRoundTrip(t *testing.T) {
	q := &model.Question{
		ID:      7,
		Type:    model.QuestionMCQ,
		Options: datatypes.JSON(`["Alpha","Beta","Gamma","Delta"]`),
	}
	const attemptID = 99

	var stored []string
	if err := json.Unmarshal(q.Options, &stored); err != nil {
		t.Fatal(err)
	}
	var presented []string
	if err := json.Unmarshal(shuffledOptions(q, attemptID), &presented); err != nil {
		t.Fatal(err)
	}
	if len(presented) != len(stored) {
		t.Fatalf("presented %d options, want %d", len(presented), len(stored))
	}

	// Picking presented slot i must map back to the stored index of the same
	// option text, whether the client sends the index as a number or as a
	// numeric string.
	for i, text := range presented {
		for _, response := range []string{fmt.Sprintf("%d", i), fmt.Sprintf("%q", fmt.Sprint(i))} {
			raw := unshuffleResponse(q, attemptID, []byte(response))
			var storedIdx int
			if err := json.Unmarshal(raw, &storedIdx); err != nil {
				t.Fatalf("slot %d response %s: %v", i, response, err)
			}
			if stored[storedIdx] != text {
				t.Errorf("slot %d response %s (%q) mapped to stored index %d (%q)", i, response, text, storedIdx, stored[storedIdx])
			}
		}
	}
}

func TestUnshuffleResponsePassThrough(t *testing.T) {
	q := &model.Question{
		ID:      3,
		Type:    model.QuestionMCQ,
		Options: datatypes.JSON(`["A","B","C"]`),
	}

	tests := []struct {
		name     string
		q        *model.Question
		response string
	}{
		{"option text untouched", q, `"B"`},
		{"out of range untouched", q, `11`},
		{"empty untouched", q, ``},
		{"true/false untouched", &model.Question{ID: 4, Type: model.QuestionTrueFalse}, `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unshuffleResponse(tt.q, 5, []byte(tt.response))
			if string(got) != tt.response {
				t.Errorf("unshuffleResponse(%q) = %q, want it unchanged", tt.response, got)
			}
		})
	}
}
