package service

import (
	"context"
	"fmt"

	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/objectstore"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/rs/zerolog/log"
)

// QuestionBankService issues the ordered questions of a session.
type QuestionBankService interface {
	GetQuestions(ctx context.Context, sessionID string) ([]interview.Question, error)
}

func NewQuestionBankService(
	cfg *config.Config,
	gemini GeminiLLMService,
	materialRepo repository.MaterialRepository,
	store objectstore.Store,
) (QuestionBankService, error) {
	switch cfg.QuestionBank {
	case "", "static":
		return NewStaticQuestionBank(cfg.Interview.QuestionCount), nil
	case "gemini":
		return &geminiQuestionBank{
			gemini:       gemini,
			materialRepo: materialRepo,
			store:        store,
			count:        cfg.Interview.QuestionCount,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported question bank %q", cfg.QuestionBank)
	}
}

type staticQuestionBank struct {
	count int
}

// NewStaticQuestionBank serves the built-in machine learning questions. A
// count of zero or more than the catalog holds returns all of them.
func NewStaticQuestionBank(count int) QuestionBankService {
	return &staticQuestionBank{count: count}
}

func (b *staticQuestionBank) GetQuestions(_ context.Context, sessionID string) ([]interview.Question, error) {
	questions := catalogQuestions()
	if b.count > 0 && b.count < len(questions) {
		questions = questions[:b.count]
	}
	log.Debug().Str("sessionID", sessionID).Int("questions", len(questions)).Msg("Issued static questions")
	return questions, nil
}

type geminiQuestionBank struct {
	gemini       GeminiLLMService
	materialRepo repository.MaterialRepository
	store        objectstore.Store
	count        int
}

func (b *geminiQuestionBank) GetQuestions(ctx context.Context, sessionID string) ([]interview.Question, error) {
	materials, err := b.materialRepo.FindBySessionID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load study material of session %s: %w", sessionID, err)
	}

	contents := make([]MaterialContent, 0, len(materials))
	for _, m := range materials {
		data, err := b.store.Get(ctx, m.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read study material %s: %w", m.FileName, err)
		}
		contents = append(contents, MaterialContent{FileName: m.FileName, ContentType: m.ContentType, Data: data})
	}

	questions, err := b.gemini.GenerateQuestions(ctx, contents, b.count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions for session %s: %w", sessionID, err)
	}
	if len(questions) == 0 {
		return nil, interview.ErrEmptyQuestionBank
	}
	log.Info().Str("sessionID", sessionID).Int("questions", len(questions)).Msg("Generated questions from study material")
	return questions, nil
}
