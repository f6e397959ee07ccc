package service

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"

	"github.com/ptdat2/examcore/internal/model"
)

// Per-attempt presentation order is derived from the attempt ID rather than
// persisted: the same seed always yields the same permutation, so repeated
// reads within one attempt agree, and the answer key keeps its stored
// positions. Index responses are mapped back through the same permutation at
// scoring time.

func shuffleSeed(attemptID uint) int64 {
	// splitmix-style scramble so consecutive attempt IDs diverge.
	z := uint64(attemptID) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

func seededPerm(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	return rng.Perm(n)
}

// shuffledQuestions returns a stable per-attempt permutation of the exam's
// questions without mutating the input slice.
func shuffledQuestions(questions []model.Question, attemptID uint) []model.Question {
	perm := seededPerm(len(questions), shuffleSeed(attemptID))
	out := make([]model.Question, len(questions))
	for i, p := range perm {
		out[i] = questions[p]
	}
	return out
}

// optionPermutation gives the per-attempt option order for one question:
// presented slot i shows stored option perm[i].
func optionPermutation(q *model.Question, attemptID uint) []int {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}
	return seededPerm(len(options), shuffleSeed(attemptID)^int64(q.ID)*0x9e3779b9)
}

// shuffledOptions reorders one MCQ question's options for presentation.
// Returns the original payload when the options cannot be decoded.
func shuffledOptions(q *model.Question, attemptID uint) []byte {
	if q.Type != model.QuestionMCQ || len(q.Options) == 0 {
		return q.Options
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return q.Options
	}
	perm := seededPerm(len(options), shuffleSeed(attemptID)^int64(q.ID)*0x9e3779b9)
	presented := make([]string, len(options))
	for i, p := range perm {
		presented[i] = options[p]
	}
	raw, err := json.Marshal(presented)
	if err != nil {
		return q.Options
	}
	return raw
}

// unshuffleResponse converts an index response given against the presented
// option order back to the stored order. Both serializations the scorer
// accepts as an index are remapped: JSON numbers and numeric strings.
// Non-index responses (option text, booleans) pass through untouched since
// they are order-independent.
func unshuffleResponse(q *model.Question, attemptID uint, response []byte) []byte {
	if q.Type != model.QuestionMCQ || len(response) == 0 {
		return response
	}
	var v interface{}
	if err := json.Unmarshal(response, &v); err != nil {
		return response
	}
	var i int
	switch t := v.(type) {
	case float64:
		i = int(t)
		if float64(i) != t {
			return response
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return response
		}
		i = n
	default:
		return response
	}
	perm := optionPermutation(q, attemptID)
	if perm == nil || i < 0 || i >= len(perm) {
		return response
	}
	raw, err := json.Marshal(perm[i])
	if err != nil {
		return response
	}
	return raw
}
