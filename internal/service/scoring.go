package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ptdat2/examcore/internal/model"
)

// Scoring reasons recorded per question during finalization.
const (
	reasonCorrect         = "correct"
	reasonWrong           = "wrong"
	reasonUnanswered      = "unanswered"
	reasonManualGrading   = "pending_manual_grading"
	reasonMalformedKey    = "malformed_answer_key"
	reasonMalformedAnswer = "malformed_response"
)

// ScoreOutcome is the result of auto-scoring a single question. Nil IsCorrect
// and Awarded mean the question stays unscored (unanswered, manual type, or a
// malformed key that must not abort the submission).
type ScoreOutcome struct {
	Answered  bool
	IsCorrect *bool
	Awarded   *float64
	Reason    string
}

// ScoreQuestion grades one response against one question's answer key.
//
// Negative-marking policy: a wrong MCQ or TRUE_FALSE answer deducts
// Points/len(options) (TRUE_FALSE counts as 2 options). Unanswered questions
// never incur a penalty. Non-objective types are left for manual grading.
func ScoreQuestion(q *model.Question, response []byte, negativeMarking bool) ScoreOutcome {
	if !q.Type.IsAutoScored() {
		return ScoreOutcome{Answered: len(response) > 0, Reason: reasonManualGrading}
	}

	switch q.Type {
	case model.QuestionMCQ:
		return scoreMCQ(q, response, negativeMarking)
	case model.QuestionTrueFalse:
		return scoreTrueFalse(q, response, negativeMarking)
	default:
		return ScoreOutcome{Reason: reasonManualGrading}
	}
}

func scoreMCQ(q *model.Question, response []byte, negativeMarking bool) ScoreOutcome {
	options, err := decodeOptions(q.Options)
	if err != nil || len(options) < 2 {
		return ScoreOutcome{Reason: reasonMalformedKey}
	}

	keyIdx, ok := normalizeChoice(q.CorrectAnswer, options)
	if !ok {
		return ScoreOutcome{Reason: reasonMalformedKey}
	}

	if isBlank(response) {
		return ScoreOutcome{Reason: reasonUnanswered}
	}
	respIdx, ok := normalizeChoice(response, options)
	if !ok {
		return wrongOutcome(q.Points, len(options), negativeMarking, reasonMalformedAnswer)
	}

	if respIdx == keyIdx {
		return correctOutcome(q.Points)
	}
	return wrongOutcome(q.Points, len(options), negativeMarking, reasonWrong)
}

func scoreTrueFalse(q *model.Question, response []byte, negativeMarking bool) ScoreOutcome {
	keyVal, ok := normalizeBool(q.CorrectAnswer)
	if !ok {
		return ScoreOutcome{Reason: reasonMalformedKey}
	}

	if isBlank(response) {
		return ScoreOutcome{Reason: reasonUnanswered}
	}
	respVal, ok := normalizeBool(response)
	if !ok {
		return wrongOutcome(q.Points, 2, negativeMarking, reasonMalformedAnswer)
	}

	if respVal == keyVal {
		return correctOutcome(q.Points)
	}
	return wrongOutcome(q.Points, 2, negativeMarking, reasonWrong)
}

func correctOutcome(points float64) ScoreOutcome {
	t := true
	return ScoreOutcome{Answered: true, IsCorrect: &t, Awarded: &points, Reason: reasonCorrect}
}

func wrongOutcome(points float64, optionCount int, negativeMarking bool, reason string) ScoreOutcome {
	f := false
	awarded := 0.0
	if negativeMarking && optionCount > 0 {
		awarded = -points / float64(optionCount)
	}
	return ScoreOutcome{Answered: true, IsCorrect: &f, Awarded: &awarded, Reason: reason}
}

func decodeOptions(raw []byte) ([]string, error) {
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// normalizeChoice resolves an MCQ value (option index as number or numeric
// string, or the option text itself) to an option index.
func normalizeChoice(raw []byte, options []string) (int, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		idx := int(t)
		if float64(idx) == t && idx >= 0 && idx < len(options) {
			return idx, true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if idx, err := strconv.Atoi(s); err == nil && idx >= 0 && idx < len(options) {
			return idx, true
		}
		for i, opt := range options {
			if strings.EqualFold(strings.TrimSpace(opt), s) {
				return i, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// normalizeBool accepts JSON booleans and common string spellings.
func normalizeBool(raw []byte) (bool, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "1":
			return true, true
		case "false", "f", "0":
			return false, true
		}
		return false, false
	case float64:
		if t == 1 {
			return true, true
		}
		if t == 0 {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// isBlank treats missing, null, empty-string and empty-array payloads as
// unanswered.
func isBlank(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}
