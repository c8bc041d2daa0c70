package service

import (
	"strings"
	"testing"
	"time"

	"github.com/lshigami/vivavoce/internal/model"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedCompletedSession stores the catalog questions with the given scores,
// in catalog order. A negative score stores a skip.
func seedCompletedSession(t *testing.T, db *gorm.DB, sessionID string, scores []int) {
	t.Helper()
	sessions := repository.NewSessionRepository(db)
	require.NoError(t, sessions.Create(&model.Session{SessionID: sessionID, Status: model.SessionStatusInProgress}))

	questions := make([]model.Question, len(scores))
	responses := repository.NewResponseRepository(db)
	for i := range scores {
		e := machineLearningCatalog[i]
		questions[i] = model.Question{
			SessionID:      sessionID,
			QuestionKey:    e.Question.ID,
			Text:           e.Question.Text,
			Type:           string(e.Question.Type),
			Difficulty:     string(e.Question.Difficulty),
			OrderInSession: i,
		}
	}
	require.NoError(t, repository.NewQuestionRepository(db).CreateBatch(questions))

	for i, score := range scores {
		e := machineLearningCatalog[i]
		row := model.Response{SessionID: sessionID, QuestionKey: e.Question.ID, Position: i}
		if score >= 0 {
			row.TranscribedText = "answer " + e.Question.ID
			row.Score = score
			row.Feedback = e.Reference.Feedback
			row.Strengths = strings.Join(e.Reference.Strengths, "\n")
			row.Improvements = strings.Join(e.Reference.Improvements, "\n")
		}
		require.NoError(t, responses.Create(&row))
	}
	require.NoError(t, sessions.MarkCompleted(sessionID, 125, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestReportForSampleSession(t *testing.T) {
	db := newTestDB(t)
	seedCompletedSession(t, db, "session-r1", []int{92, 85, 78, 72, 68})

	report, err := NewReportService(repository.NewSessionRepository(db), NewScoreBandService()).GetReport("session-r1")
	require.NoError(t, err)

	assert.Equal(t, 79, report.OverallAverage)
	assert.Equal(t, BandGood, report.OverallBand)
	assert.Equal(t, 5, report.TotalQuestions)
	assert.Equal(t, 5, report.Answered)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, "2:05", report.Duration)
	require.NotNil(t, report.CompletedAt)

	require.Len(t, report.Topics, 4)
	assert.Equal(t, "conceptual", report.Topics[0].Type)
	assert.Equal(t, "Conceptual Understanding", report.Topics[0].Label)
	assert.Equal(t, 82, report.Topics[0].Average)
	assert.Equal(t, "factual", report.Topics[2].Type)
	assert.Equal(t, BandFair, report.Topics[2].Band)

	require.Len(t, report.Difficulties, 3)
	assert.Equal(t, "basic", report.Difficulties[0].Difficulty)
	assert.Equal(t, 80, report.Difficulties[0].Average)
	assert.Equal(t, 100, report.Difficulties[0].SuccessRate)
	assert.Equal(t, 79, report.Difficulties[1].Average)

	require.Len(t, report.Questions, 5)
	assert.Equal(t, "q1", report.Questions[0].ID)
	assert.Equal(t, BandExcellent, report.Questions[0].Band)
	assert.Equal(t, []string{"Clear definition", "Good comparison", "Concise explanation"}, report.Questions[0].Strengths)

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "Strengthen Factual Recall", report.Recommendations[0].Title)
	assert.Contains(t, report.Recommendations[0].Detail, "Explain splitting criteria (Gini, entropy)")
}

func TestReportRecommendsAttemptingSkippedQuestions(t *testing.T) {
	db := newTestDB(t)
	seedCompletedSession(t, db, "session-r2", []int{95, -1})

	report, err := NewReportService(repository.NewSessionRepository(db), NewScoreBandService()).GetReport("session-r2")
	require.NoError(t, err)

	assert.Equal(t, 48, report.OverallAverage)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.Questions[1].Skipped)
	assert.Equal(t, BandNeedsImprovement, report.Questions[1].Band)

	titles := make([]string, 0, len(report.Recommendations))
	for _, r := range report.Recommendations {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"Strengthen Analytical Thinking", "Attempt every question"}, titles)
	assert.Equal(t, topicAdvice["analytical"], report.Recommendations[0].Detail)
}

func TestReportForStrongSession(t *testing.T) {
	db := newTestDB(t)
	seedCompletedSession(t, db, "session-r3", []int{90, 95})

	report, err := NewReportService(repository.NewSessionRepository(db), NewScoreBandService()).GetReport("session-r3")
	require.NoError(t, err)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "Keep up the momentum", report.Recommendations[0].Title)
}

func TestReportErrors(t *testing.T) {
	db := newTestDB(t)
	sessions := repository.NewSessionRepository(db)
	svc := NewReportService(sessions, NewScoreBandService())

	_, err := svc.GetReport("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, sessions.Create(&model.Session{SessionID: "session-r4", Status: model.SessionStatusInProgress}))
	_, err = svc.GetReport("session-r4")
	assert.ErrorIs(t, err, ErrSessionNotCompleted)
}
