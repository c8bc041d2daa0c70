package service

import (
	"github.com/lshigami/vivavoce/internal/interview"
)

const (
	BandExcellent        = "excellent"
	BandGood             = "good"
	BandFair             = "fair"
	BandNeedsImprovement = "needs_improvement"
)

// Lower bounds of the score bands.
const (
	ExcellentScoreThreshold = 90
	GoodScoreThreshold      = 75
	FairScoreThreshold      = 60
)

type ScoreBandService interface {
	BandFor(score int) string
	LabelFor(score int) string
}

type scoreBandService struct{}

func NewScoreBandService() ScoreBandService {
	return &scoreBandService{}
}

func (s *scoreBandService) BandFor(score int) string {
	score = interview.ClampScore(score)
	switch {
	case score >= ExcellentScoreThreshold:
		return BandExcellent
	case score >= GoodScoreThreshold:
		return BandGood
	case score >= FairScoreThreshold:
		return BandFair
	default:
		return BandNeedsImprovement
	}
}

func (s *scoreBandService) LabelFor(score int) string {
	switch s.BandFor(score) {
	case BandExcellent:
		return "Excellent"
	case BandGood:
		return "Good"
	case BandFair:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}
