package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/summary"
	"github.com/rs/zerolog/log"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NewEvaluator picks the evaluation backend named by EVALUATOR.
func NewEvaluator(cfg *config.Config, gemini GeminiLLMService, bands ScoreBandService) (interview.Evaluator, error) {
	switch cfg.Evaluator {
	case "", "reference":
		return NewReferenceEvaluator(bands), nil
	case "gemini":
		return gemini, nil
	default:
		return nil, fmt.Errorf("unsupported evaluator %q", cfg.Evaluator)
	}
}

// ReferenceEvaluator scores answers deterministically. Questions of the
// built-in catalog are compared with their model answer by word edit
// distance; any other question is scored by how many of its key terms the
// answer covers.
type ReferenceEvaluator struct {
	bands ScoreBandService
}

func NewReferenceEvaluator(bands ScoreBandService) *ReferenceEvaluator {
	return &ReferenceEvaluator{bands: bands}
}

func (e *ReferenceEvaluator) Evaluate(ctx context.Context, question interview.Question, answer string) (interview.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return interview.Evaluation{}, err
	}
	words := tokenize(answer)
	if len(words) == 0 {
		return interview.Evaluation{}, fmt.Errorf("answer to %s has no words", question.ID)
	}

	ref, ok := referenceFor(question)
	if !ok {
		return e.evaluateCoverage(question, words), nil
	}

	similarity := WordSimilarity(tokenize(ref.Answer), words)
	score := interview.ClampScore(summary.RoundHalfUp(similarity * 100))
	ev := interview.Evaluation{
		Score:        score,
		Improvements: append([]string(nil), ref.Improvements...),
	}
	if score >= FairScoreThreshold {
		ev.Feedback = ref.Feedback
		ev.Strengths = append([]string(nil), ref.Strengths...)
	} else {
		ev.Feedback = "Your answer only partly matches what was expected. Revisit the key points of this topic and try to cover them explicitly."
	}
	log.Debug().Str("questionID", question.ID).Float64("similarity", similarity).Int("score", score).Msg("Reference evaluation")
	return ev, nil
}

func (e *ReferenceEvaluator) evaluateCoverage(question interview.Question, answer []string) interview.Evaluation {
	terms := keyTerms(question.Text)
	present := make(map[string]bool, len(answer))
	for _, w := range answer {
		present[w] = true
	}

	var covered, missing []string
	for _, t := range terms {
		if present[t] {
			covered = append(covered, t)
		} else {
			missing = append(missing, t)
		}
	}

	coverage := 1.0
	if len(terms) > 0 {
		coverage = float64(len(covered)) / float64(len(terms))
	}
	score := interview.ClampScore(summary.RoundHalfUp(coverage * 100))

	ev := interview.Evaluation{
		Score:    score,
		Feedback: fmt.Sprintf("%s answer: it addresses %d of %d key terms of the question.", e.bands.LabelFor(score), len(covered), len(terms)),
	}
	if len(covered) > 0 {
		ev.Strengths = []string{"Addressed " + strings.Join(covered, ", ")}
	}
	if len(missing) > 0 {
		ev.Improvements = []string{"Cover " + strings.Join(missing, ", ")}
	}
	return ev
}

// WordSimilarity is 1 minus the word level edit distance between reference
// and answer, normalised by the longer of the two.
func WordSimilarity(reference, answer []string) float64 {
	longest := len(reference)
	if len(answer) > longest {
		longest = len(answer)
	}
	if longest == 0 {
		return 1
	}

	// Each distinct word becomes one rune so the rune based distance
	// counts whole word edits.
	symbols := make(map[string]rune)
	encode := func(words []string) []rune {
		out := make([]rune, len(words))
		for i, w := range words {
			r, ok := symbols[w]
			if !ok {
				r = rune(0xE000 + len(symbols))
				symbols[w] = r
			}
			out[i] = r
		}
		return out
	}
	distance := levenshtein.DistanceForStrings(encode(reference), encode(answer), levenshtein.DefaultOptionsWithSub)
	return 1 - float64(distance)/float64(longest)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var stopWords = map[string]bool{
	"about": true, "and": true, "are": true, "can": true, "describe": true, "does": true,
	"explain": true, "from": true, "how": true, "into": true, "its": true, "key": true,
	"the": true, "their": true, "them": true, "this": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "why": true, "with": true, "would": true,
	"you": true, "your": true, "between": true, "concept": true,
}

func keyTerms(question string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, w := range tokenize(question) {
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
