package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"quizgen-backend/internal/config"
	"quizgen-backend/internal/models"
)

// OptionsPerQuestion is the number of options every generated question must carry.
const OptionsPerQuestion = 4

var (
	ErrMissingCredential = errors.New("Gemini API key is not configured")
	ErrEmptyResponse     = errors.New("Gemini returned no candidate text")
	ErrMalformedResponse = errors.New("Gemini returned malformed questions")
)

// contentGenerator is the part of *genai.GenerativeModel the service uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiService struct {
	client        *genai.Client
	model         contentGenerator
	questionCount int
	initErr       error
}

// NewGeminiService never fails: a client that cannot be built (for example
// because the API key is empty) makes every request fail instead.
func NewGeminiService(apiKey, modelName string, questionCount int) *GeminiService {
	s := &GeminiService{questionCount: questionCount}

	if apiKey == "" {
		s.initErr = ErrMissingCredential
		return s
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		s.initErr = fmt.Errorf("failed to create Gemini client: %w", err)
		return s
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = QuestionListSchema()

	s.client = client
	s.model = model
	return s
}

func newGeminiServiceWithModel(model contentGenerator, questionCount int) *GeminiService {
	return &GeminiService{model: model, questionCount: questionCount}
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Ready reports whether requests can reach Gemini at all.
func (s *GeminiService) Ready() error {
	return s.initErr
}

// GenerateQuestions makes exactly one generateContent call for topic.
func (s *GeminiService) GenerateQuestions(ctx context.Context, topic string) ([]models.Question, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}

	log := config.WithContext(ctx)
	prompt := buildQuestionPrompt(topic, s.questionCount)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	questions, err := parseQuestions(resp)
	if err != nil {
		return nil, err
	}

	for i, cand := range resp.Candidates {
		if cand != nil && cand.FinishReason != genai.FinishReasonStop {
			log.Warnf("Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	log.Debugf("Gemini generated %d questions", len(questions))
	return questions, nil
}

// QuestionListSchema declares the response shape: an array of
// {question, options, correctOption} objects.
func QuestionListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {Type: genai.TypeString},
				"options": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"correctOption": {Type: genai.TypeNumber},
			},
			Required: []string{"question", "options", "correctOption"},
		},
	}
}

func buildQuestionPrompt(topic string, count int) string {
	return fmt.Sprintf(
		"Generate a list of %d multiple choice questions about: %s. Each question should have %d options.",
		count, topic, OptionsPerQuestion,
	)
}

// firstPartText returns candidates[0].content.parts[0] as text.
func firstPartText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("%w: first part is %T, not text", ErrMalformedResponse, cand.Content.Parts[0])
	}
	return string(text), nil
}

type rawQuestion struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectOption *float64 `json:"correctOption"`
}

// parseQuestions validates the whole batch; one bad item rejects all of them.
func parseQuestions(resp *genai.GenerateContentResponse) ([]models.Question, error) {
	text, err := firstPartText(resp)
	if err != nil {
		return nil, err
	}

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected an array, got null", ErrMalformedResponse)
	}

	questions := make([]models.Question, 0, len(raw))
	for i, r := range raw {
		q, err := r.toQuestion()
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %s", ErrMalformedResponse, i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r rawQuestion) toQuestion() (models.Question, error) {
	switch {
	case r.Question == nil || strings.TrimSpace(*r.Question) == "":
		return models.Question{}, errors.New("missing question text")
	case len(r.Options) != OptionsPerQuestion:
		return models.Question{}, fmt.Errorf("expected %d options, got %d", OptionsPerQuestion, len(r.Options))
	case r.CorrectOption == nil:
		return models.Question{}, errors.New("missing correctOption")
	}

	correct := *r.CorrectOption
	if correct != math.Trunc(correct) || correct < 0 || correct >= float64(len(r.Options)) {
		return models.Question{}, fmt.Errorf("correctOption %v is not an option index", correct)
	}

	return models.Question{
		Question:      *r.Question,
		Options:       r.Options,
		CorrectOption: int(correct),
	}, nil
}
