package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

var errGeminiUnavailable = errors.New("gemini client not initialized")

// MaterialContent is one uploaded document handed to the model.
type MaterialContent struct {
	FileName    string
	ContentType string
	Data        []byte
}

type GeminiLLMService interface {
	Evaluate(ctx context.Context, question interview.Question, answer string) (interview.Evaluation, error)
	GenerateQuestions(ctx context.Context, materials []MaterialContent, count int) ([]interview.Question, error)
}

// contentGenerator is the part of *genai.GenerativeModel the service uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiLLMService struct {
	client contentGenerator
}

func NewGeminiLLMService(cfg *config.Config) (GeminiLLMService, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. GeminiLLMService will be non-functional.")
		return &geminiLLMService{client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Gemini.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return &geminiLLMService{client: model}, nil
}

func (s *geminiLLMService) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if s.client == nil {
		return "", errGeminiUnavailable
	}
	resp, err := s.client.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response.")
		return "", fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return sb.String(), nil
}

const evaluationFormatInstruction = `
Respond with a single JSON object and nothing else:
{"score": <integer 0-100>, "feedback": "<two or three sentences>", "strengths": ["..."], "improvements": ["..."]}
`

func (s *geminiLLMService) Evaluate(ctx context.Context, question interview.Question, answer string) (interview.Evaluation, error) {
	var prompt strings.Builder
	prompt.WriteString("You are an examiner running an oral (viva voce) exam.\n")
	prompt.WriteString("The candidate answered the question below out loud; the answer was transcribed automatically, so ignore transcription noise.\n\n")
	fmt.Fprintf(&prompt, "Question (%s, %s difficulty):\n---\n%s\n---\n\n", question.Type, question.Difficulty, question.Text)
	prompt.WriteString("Evaluate the answer on:\n")
	prompt.WriteString("- Correctness: are the statements accurate?\n")
	prompt.WriteString("- Completeness: does it address every part of the question?\n")
	prompt.WriteString("- Depth: does it go beyond a definition, with examples or reasoning?\n")
	prompt.WriteString("- Clarity: is the explanation well structured?\n\n")
	prompt.WriteString("Candidate's answer:\n---\n")
	prompt.WriteString(answer)
	prompt.WriteString("\n---\n")
	prompt.WriteString(evaluationFormatInstruction)

	raw, err := s.generate(ctx, genai.Text(prompt.String()))
	if err != nil {
		log.Error().Err(err).Str("questionID", question.ID).Msg("Gemini evaluation failed")
		return interview.Evaluation{}, err
	}

	ev, err := parseEvaluation(raw)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse evaluation from Gemini response")
		return interview.Evaluation{}, err
	}
	return ev, nil
}

type evaluationPayload struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// scoreFromFloat clamps before converting; NaN scores 0.
func scoreFromFloat(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, x))))
}

// parseEvaluation reads the JSON reply, falling back to a "Score: / Feedback:"
// text reply.
func parseEvaluation(raw string) (interview.Evaluation, error) {
	var payload evaluationPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err == nil {
		return interview.Evaluation{
			Score:        scoreFromFloat(payload.Score),
			Feedback:     strings.TrimSpace(payload.Feedback),
			Strengths:    trimNonEmpty(payload.Strengths),
			Improvements: trimNonEmpty(payload.Improvements),
		}, nil
	}

	scoreStr, feedback, err := parseScoreAndFeedback(raw)
	if err != nil {
		return interview.Evaluation{}, err
	}
	score, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("could not parse score value ('%s') from AI response: %w", scoreStr, err)
	}
	return interview.Evaluation{
		Score:    scoreFromFloat(score),
		Feedback: feedback,
	}, nil
}

func parseScoreAndFeedback(rawResponse string) (scoreStr string, feedbackStr string, err error) {
	const scorePrefix = "Score:"
	const feedbackPrefix = "Feedback:"

	scoreIndex := strings.Index(rawResponse, scorePrefix)
	if scoreIndex == -1 {
		return "", rawResponse, fmt.Errorf("response does not contain 'Score:' prefix")
	}

	rest := rawResponse[scoreIndex+len(scorePrefix):]
	line := rest
	if nl := strings.Index(rest, "\n"); nl != -1 {
		line = rest[:nl]
	}
	if parts := strings.Fields(line); len(parts) > 0 {
		scoreStr = strings.TrimSuffix(parts[0], "/100")
	}

	if feedbackIndex := strings.Index(rawResponse, feedbackPrefix); feedbackIndex > scoreIndex {
		feedbackStr = strings.TrimSpace(rawResponse[feedbackIndex+len(feedbackPrefix):])
	}
	return scoreStr, feedbackStr, nil
}

type generatedQuestion struct {
	Text       string `json:"text"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

func (s *geminiLLMService) GenerateQuestions(ctx context.Context, materials []MaterialContent, count int) ([]interview.Question, error) {
	if len(materials) == 0 {
		return nil, fmt.Errorf("no study material to generate questions from")
	}
	if count <= 0 {
		count = 5
	}

	parts := make([]genai.Part, 0, len(materials)+1)
	for _, m := range materials {
		parts = append(parts, genai.Blob{MIMEType: m.ContentType, Data: m.Data})
	}
	prompt := fmt.Sprintf(`You are preparing an oral (viva voce) exam from the study material above.
Write exactly %d questions that can be answered out loud in under two minutes each.
Mix the question types "conceptual", "analytical", "factual" and "application",
and the difficulties "basic", "intermediate" and "advanced", easiest first.

Respond with a JSON array and nothing else:
[{"text": "...", "type": "conceptual", "difficulty": "basic"}]
`, count)
	parts = append(parts, genai.Text(prompt))

	raw, err := s.generate(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Int("materials", len(materials)).Msg("Gemini question generation failed")
		return nil, err
	}
	return parseGeneratedQuestions(raw, count)
}

// parseGeneratedQuestions keeps well-formed questions only and numbers them
// q1, q2, ... in order.
func parseGeneratedQuestions(raw string, count int) ([]interview.Question, error) {
	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &generated); err != nil {
		return nil, fmt.Errorf("could not parse generated questions: %w", err)
	}

	questions := make([]interview.Question, 0, len(generated))
	for _, g := range generated {
		text := strings.TrimSpace(g.Text)
		qType := interview.QuestionType(strings.ToLower(strings.TrimSpace(g.Type)))
		difficulty := interview.Difficulty(strings.ToLower(strings.TrimSpace(g.Difficulty)))
		if text == "" || !qType.Valid() || !difficulty.Valid() {
			log.Warn().Str("text", text).Str("type", g.Type).Str("difficulty", g.Difficulty).Msg("Dropping malformed generated question")
			continue
		}
		questions = append(questions, interview.Question{
			ID:         fmt.Sprintf("q%d", len(questions)+1),
			Text:       text,
			Type:       qType,
			Difficulty: difficulty,
		})
		if count > 0 && len(questions) == count {
			break
		}
	}
	return questions, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
