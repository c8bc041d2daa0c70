// Package summary reduces a session's responses into the aggregate figures
// shown on the results report.
package summary

import (
	"math"
	"slices"

	"github.com/lshigami/vivavoce/internal/interview"
)

type TopicStat struct {
	Type    interview.QuestionType `json:"type"`
	Average int                    `json:"average"`
	Count   int                    `json:"count"`
}

type DifficultyStat struct {
	Difficulty interview.Difficulty `json:"difficulty"`
	Average    int                  `json:"average"`
	Count      int                  `json:"count"`
	// SuccessRate is the fraction of responses in the bucket scoring above 0.
	SuccessRate float64 `json:"success_rate"`
}

// Summary holds the derived statistics of one session.
type Summary struct {
	OverallAverage int              `json:"overall_average"`
	Total          int              `json:"total"`
	Answered       int              `json:"answered"`
	Skipped        int              `json:"skipped"`
	Topics         []TopicStat      `json:"topics"`
	Difficulties   []DifficultyStat `json:"difficulties"`
}

// Topic returns the stat for t, if any response had that type.
func (s Summary) Topic(t interview.QuestionType) (TopicStat, bool) {
	for _, stat := range s.Topics {
		if stat.Type == t {
			return stat, true
		}
	}
	return TopicStat{}, false
}

func (s Summary) Difficulty(d interview.Difficulty) (DifficultyStat, bool) {
	for _, stat := range s.Difficulties {
		if stat.Difficulty == d {
			return stat, true
		}
	}
	return DifficultyStat{}, false
}

// RoundHalfUp rounds x to the nearest integer, with .5 going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

type bucket struct {
	sum, count, passed int
}

func (b bucket) average() int {
	if b.count == 0 {
		return 0
	}
	return RoundHalfUp(float64(b.sum) / float64(b.count))
}

// Summarize is a pure function of its inputs. Responses whose question id is
// not among questions are ignored. Topics and difficulties come out in the
// fixed order of interview.QuestionTypes and interview.Difficulties and only
// include buckets that received at least one response.
func Summarize(questions []interview.Question, responses []interview.Response) Summary {
	byID := make(map[string]interview.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var overall bucket
	topics := make(map[interview.QuestionType]*bucket)
	levels := make(map[interview.Difficulty]*bucket)
	out := Summary{Total: len(questions)}

	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		score := interview.ClampScore(r.Score)
		overall.sum += score
		overall.count++
		if r.Skipped() {
			out.Skipped++
		} else {
			out.Answered++
		}

		tb := topics[q.Type]
		if tb == nil {
			tb = &bucket{}
			topics[q.Type] = tb
		}
		tb.sum += score
		tb.count++

		db := levels[q.Difficulty]
		if db == nil {
			db = &bucket{}
			levels[q.Difficulty] = db
		}
		db.sum += score
		db.count++
		if score > 0 {
			db.passed++
		}
	}

	out.OverallAverage = overall.average()
	out.Topics = []TopicStat{}
	for _, t := range orderedKeys(interview.QuestionTypes, topics) {
		b := topics[t]
		out.Topics = append(out.Topics, TopicStat{Type: t, Average: b.average(), Count: b.count})
	}
	out.Difficulties = []DifficultyStat{}
	for _, d := range orderedKeys(interview.Difficulties, levels) {
		b := levels[d]
		out.Difficulties = append(out.Difficulties, DifficultyStat{
			Difficulty:  d,
			Average:     b.average(),
			Count:       b.count,
			SuccessRate: float64(b.passed) / float64(b.count),
		})
	}
	return out
}

// orderedKeys returns the keys of m, known ones first in the order given and
// unknown ones after them, sorted.
func orderedKeys[K ~string](known []K, m map[K]*bucket) []K {
	keys := make([]K, 0, len(m))
	seen := make(map[K]bool, len(m))
	for _, k := range known {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []K
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}
