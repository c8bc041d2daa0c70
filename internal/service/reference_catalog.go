package service

import (
	"strings"

	"github.com/lshigami/vivavoce/internal/interview"
)

// CannedTranscription is returned by the mock transcriber for any non-empty
// recording.
const CannedTranscription = "Machine learning is a subset of artificial intelligence that enables systems to learn and improve from experience without being explicitly programmed. Unlike traditional programming where we write specific rules, machine learning algorithms identify patterns in data to make decisions."

// referenceAnswer is a model answer with the feedback given to answers close to it.
type referenceAnswer struct {
	Answer       string
	Feedback     string
	Strengths    []string
	Improvements []string
}

type catalogEntry struct {
	Question  interview.Question
	Reference referenceAnswer
}

var machineLearningCatalog = []catalogEntry{
	{
		Question: interview.Question{
			ID:         "q1",
			Text:       "Explain the concept of machine learning and how it differs from traditional programming.",
			Type:       interview.TypeConceptual,
			Difficulty: interview.DifficultyBasic,
		},
		Reference: referenceAnswer{
			Answer:       "Machine learning is a subset of artificial intelligence that enables systems to learn and improve from experience without being explicitly programmed. Unlike traditional programming where we write specific rules, machine learning algorithms identify patterns in data to make decisions.",
			Feedback:     "Excellent explanation! You clearly articulated the core concept and highlighted the key distinction from traditional programming.",
			Strengths:    []string{"Clear definition", "Good comparison", "Concise explanation"},
			Improvements: []string{"Could mention specific examples", "Discuss learning algorithms"},
		},
	},
	{
		Question: interview.Question{
			ID:         "q2",
			Text:       "What are the key differences between supervised and unsupervised learning?",
			Type:       interview.TypeAnalytical,
			Difficulty: interview.DifficultyIntermediate,
		},
		Reference: referenceAnswer{
			Answer:       "Supervised learning uses labeled data where the model learns from input-output pairs, while unsupervised learning works with unlabeled data to find patterns.",
			Feedback:     "Good understanding of the fundamental differences. Your answer covers the main distinction well.",
			Strengths:    []string{"Correct distinction", "Clear explanation"},
			Improvements: []string{"Provide examples of each type", "Discuss use cases"},
		},
	},
	{
		Question: interview.Question{
			ID:         "q3",
			Text:       "Describe a real-world application where you would use neural networks and explain why.",
			Type:       interview.TypeApplication,
			Difficulty: interview.DifficultyAdvanced,
		},
		Reference: referenceAnswer{
			Answer:       "Image recognition in medical diagnostics, because neural networks can identify patterns in medical images that might be difficult for humans to detect.",
			Feedback:     "Good application choice with valid reasoning. Consider elaborating on the specific neural network architecture.",
			Strengths:    []string{"Relevant application", "Practical reasoning"},
			Improvements: []string{"Mention specific architecture (CNN)", "Discuss training requirements"},
		},
	},
	{
		Question: interview.Question{
			ID:         "q4",
			Text:       "What is overfitting in machine learning and how can you prevent it?",
			Type:       interview.TypeConceptual,
			Difficulty: interview.DifficultyIntermediate,
		},
		Reference: referenceAnswer{
			Answer:       "Overfitting occurs when a model learns the training data too well, including noise and outliers, leading to poor generalization.",
			Feedback:     "Correct definition of overfitting, but the prevention methods were not fully addressed.",
			Strengths:    []string{"Accurate definition", "Mentioned generalization"},
			Improvements: []string{"Discuss prevention techniques (regularization, cross-validation)", "Provide examples"},
		},
	},
	{
		Question: interview.Question{
			ID:         "q5",
			Text:       "Explain the working principle of a decision tree algorithm.",
			Type:       interview.TypeFactual,
			Difficulty: interview.DifficultyBasic,
		},
		Reference: referenceAnswer{
			Answer:       "A decision tree makes decisions by splitting data based on features, creating a tree-like structure of decisions.",
			Feedback:     "Basic understanding shown but lacks depth in explanation of the splitting criteria and decision-making process.",
			Strengths:    []string{"Basic structure understanding"},
			Improvements: []string{"Explain splitting criteria (Gini, entropy)", "Discuss leaf nodes and predictions"},
		},
	},
}

func catalogQuestions() []interview.Question {
	out := make([]interview.Question, len(machineLearningCatalog))
	for i, e := range machineLearningCatalog {
		out[i] = e.Question
	}
	return out
}

// referenceFor finds the reference answer by question text, so it also
// applies to a question restored from storage.
func referenceFor(q interview.Question) (referenceAnswer, bool) {
	text := normalizeText(q.Text)
	for _, e := range machineLearningCatalog {
		if normalizeText(e.Question.Text) == text {
			return e.Reference, true
		}
	}
	return referenceAnswer{}, false
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TopicLabel is the report heading of a question type.
func TopicLabel(t interview.QuestionType) string {
	switch t {
	case interview.TypeConceptual:
		return "Conceptual Understanding"
	case interview.TypeAnalytical:
		return "Analytical Thinking"
	case interview.TypeApplication:
		return "Application Knowledge"
	case interview.TypeFactual:
		return "Factual Recall"
	default:
		return string(t)
	}
}
