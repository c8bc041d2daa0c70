package dto

import "time"

type TopicPerformanceDTO struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Average int    `json:"average"`
	Count   int    `json:"count"`
	Band    string `json:"band"`
}

type DifficultyAnalysisDTO struct {
	Difficulty string `json:"difficulty"`
	Answered   int    `json:"answered"`
	Average    int    `json:"average"`
	// SuccessRate is a percentage.
	SuccessRate int `json:"success_rate"`
}

type QuestionResultDTO struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Type         string   `json:"type"`
	Difficulty   string   `json:"difficulty"`
	Response     string   `json:"response"`
	Skipped      bool     `json:"skipped"`
	Score        int      `json:"score"`
	Band         string   `json:"band"`
	Feedback     string   `json:"feedback,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

type RecommendationDTO struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type ReportDTO struct {
	SessionID       string                  `json:"session_id"`
	Status          string                  `json:"status"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	ElapsedSeconds  int                     `json:"elapsed_seconds"`
	Duration        string                  `json:"duration"`
	OverallAverage  int                     `json:"overall_average"`
	OverallBand     string                  `json:"overall_band"`
	TotalQuestions  int                     `json:"total_questions"`
	Answered        int                     `json:"answered"`
	Skipped         int                     `json:"skipped"`
	Topics          []TopicPerformanceDTO   `json:"topics"`
	Difficulties    []DifficultyAnalysisDTO `json:"difficulties"`
	Questions       []QuestionResultDTO     `json:"questions"`
	Recommendations []RecommendationDTO     `json:"recommendations"`
}
