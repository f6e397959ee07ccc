package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/ptdat2/examcore/config"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// EssayFeedbackService generates advisory feedback for essay-style answers on
// finalized attempts. It never assigns points and never blocks submission;
// teachers remain the grading authority.
type EssayFeedbackService interface {
	Enabled() bool
	AnnotateAttempt(attemptID uint)
}

type essayFeedbackService struct {
	client       *genai.GenerativeModel
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

func NewEssayFeedbackService(cfg *config.Config, questionRepo repository.QuestionRepository, answerRepo repository.AnswerRepository) (EssayFeedbackService, error) {
	svc := &essayFeedbackService{questionRepo: questionRepo, answerRepo: answerRepo}
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; essay feedback is disabled")
		return svc, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	svc.client = client.GenerativeModel("gemini-1.5-flash")
	return svc, nil
}

func (s *essayFeedbackService) Enabled() bool {
	return s.client != nil
}

// AnnotateAttempt walks the attempt's answers and attaches feedback to the
// manually graded types that have none yet. Errors are logged and skipped; a
// missing annotation is not a failure of the attempt.
func (s *essayFeedbackService) AnnotateAttempt(attemptID uint) {
	if !s.Enabled() {
		return
	}
	answers, err := s.answerRepo.FindByAttemptID(nil, attemptID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Essay feedback: failed to load answers")
		return
	}

	for i := range answers {
		ans := &answers[i]
		if ans.Feedback != "" {
			continue
		}
		question, err := s.questionRepo.FindByID(ans.QuestionID)
		if err != nil {
			continue
		}
		if question.Type != model.QuestionEssay && question.Type != model.QuestionShortAnswer {
			continue
		}

		text := responseText(ans.Response)
		if text == "" {
			continue
		}
		feedback, err := s.generate(question, text)
		if err != nil {
			log.Warn().Err(err).Uint("answerID", ans.ID).Msg("Essay feedback: generation failed")
			continue
		}
		ans.Feedback = feedback
		if err := s.answerRepo.Update(ans); err != nil {
			log.Error().Err(err).Uint("answerID", ans.ID).Msg("Essay feedback: failed to store feedback")
		}
	}
}

func (s *essayFeedbackService) generate(question *model.Question, answerText string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(
		"You are a teaching assistant. Give concise, constructive feedback (3-5 sentences) on a student's answer.\n"+
			"Do not assign a score or a grade.\n\nQuestion:\n%s\n\nStudent answer:\n%s",
		question.Text, answerText,
	)

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	feedback := strings.TrimSpace(sb.String())
	if feedback == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return feedback, nil
}

func responseText(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(s)
}
