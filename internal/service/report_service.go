package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/model"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/lshigami/vivavoce/internal/summary"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrSessionNotCompleted = errors.New("interview session is not completed")

// ReportService builds the results report of a completed session.
type ReportService interface {
	GetReport(sessionID string) (*dto.ReportDTO, error)
}

type reportService struct {
	sessionRepo repository.SessionRepository
	bands       ScoreBandService
}

func NewReportService(sessionRepo repository.SessionRepository, bands ScoreBandService) ReportService {
	return &reportService{sessionRepo: sessionRepo, bands: bands}
}

func (s *reportService) GetReport(sessionID string) (*dto.ReportDTO, error) {
	session, err := s.sessionRepo.FindBySessionIDWithDetails(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session.Status != model.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotCompleted, sessionID, session.Status)
	}

	questions := make([]interview.Question, len(session.Questions))
	for i, q := range session.Questions {
		questions[i] = interview.Question{
			ID:         q.QuestionKey,
			Text:       q.Text,
			Type:       interview.QuestionType(q.Type),
			Difficulty: interview.Difficulty(q.Difficulty),
		}
	}
	responses := make([]interview.Response, len(session.Responses))
	byQuestion := make(map[string]interview.Response, len(session.Responses))
	for i, r := range session.Responses {
		responses[i] = interview.Response{
			QuestionID:      r.QuestionKey,
			TranscribedText: r.TranscribedText,
			Score:           r.Score,
			Feedback:        r.Feedback,
			Strengths:       splitLines(r.Strengths),
			Improvements:    splitLines(r.Improvements),
		}
		byQuestion[r.QuestionKey] = responses[i]
	}

	sum := summary.Summarize(questions, responses)
	report := &dto.ReportDTO{
		SessionID:      session.SessionID,
		Status:         session.Status,
		CompletedAt:    session.CompletedAt,
		ElapsedSeconds: session.ElapsedSeconds,
		Duration:       FormatClock(session.ElapsedSeconds),
		OverallAverage: sum.OverallAverage,
		OverallBand:    s.bands.BandFor(sum.OverallAverage),
		TotalQuestions: len(questions),
		Answered:       sum.Answered,
		Skipped:        sum.Skipped,
		Topics:         make([]dto.TopicPerformanceDTO, 0, len(sum.Topics)),
		Difficulties:   make([]dto.DifficultyAnalysisDTO, 0, len(sum.Difficulties)),
		Questions:      make([]dto.QuestionResultDTO, 0, len(questions)),
	}
	for _, t := range sum.Topics {
		report.Topics = append(report.Topics, dto.TopicPerformanceDTO{
			Type:    string(t.Type),
			Label:   TopicLabel(t.Type),
			Average: t.Average,
			Count:   t.Count,
			Band:    s.bands.BandFor(t.Average),
		})
	}
	for _, d := range sum.Difficulties {
		report.Difficulties = append(report.Difficulties, dto.DifficultyAnalysisDTO{
			Difficulty:  string(d.Difficulty),
			Answered:    d.Count,
			Average:     d.Average,
			SuccessRate: summary.RoundHalfUp(d.SuccessRate * 100),
		})
	}
	for _, q := range questions {
		r, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		report.Questions = append(report.Questions, dto.QuestionResultDTO{
			ID:           q.ID,
			Question:     q.Text,
			Type:         string(q.Type),
			Difficulty:   string(q.Difficulty),
			Response:     r.TranscribedText,
			Skipped:      r.Skipped(),
			Score:        interview.ClampScore(r.Score),
			Band:         s.bands.BandFor(r.Score),
			Feedback:     r.Feedback,
			Strengths:    r.Strengths,
			Improvements: r.Improvements,
		})
	}
	report.Recommendations = recommendations(sum, questions, byQuestion)

	log.Debug().Str("sessionID", sessionID).Int("overall", sum.OverallAverage).Msg("Report built")
	return report, nil
}

var topicAdvice = map[interview.QuestionType]string{
	interview.TypeConceptual:  "Review the core definitions and explain each idea in your own words before the next session.",
	interview.TypeAnalytical:  "Practise comparing related ideas side by side, naming where they differ and why it matters.",
	interview.TypeFactual:     "Go back over the specific facts and figures in the material.",
	interview.TypeApplication: "Work through concrete examples and describe how each idea is used in practice.",
}

// recommendations suggests study for every topic below the good band,
// using the improvement points of its weak answers where there are any.
func recommendations(sum summary.Summary, questions []interview.Question, responses map[string]interview.Response) []dto.RecommendationDTO {
	var out []dto.RecommendationDTO
	for _, t := range sum.Topics {
		if t.Average >= GoodScoreThreshold {
			continue
		}
		var points []string
		seen := make(map[string]bool)
		for _, q := range questions {
			r, ok := responses[q.ID]
			if !ok || q.Type != t.Type || r.Skipped() || r.Score >= GoodScoreThreshold {
				continue
			}
			for _, p := range r.Improvements {
				if !seen[p] {
					seen[p] = true
					points = append(points, p)
				}
			}
		}
		detail := topicAdvice[t.Type]
		if len(points) > 0 {
			detail = strings.Join(points, "; ")
		}
		out = append(out, dto.RecommendationDTO{
			Title:  "Strengthen " + TopicLabel(t.Type),
			Detail: detail,
		})
	}
	if sum.Skipped > 0 {
		out = append(out, dto.RecommendationDTO{
			Title:  "Attempt every question",
			Detail: fmt.Sprintf("You skipped %d of %d questions. A partial answer still earns credit.", sum.Skipped, sum.Total),
		})
	}
	if len(out) == 0 {
		out = append(out, dto.RecommendationDTO{
			Title:  "Keep up the momentum",
			Detail: "Your answers were consistently strong. Try a harder set of material next.",
		})
	}
	return out
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return trimNonEmpty(strings.Split(s, "\n"))
}
