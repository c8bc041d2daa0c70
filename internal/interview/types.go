package interview

import "fmt"

// QuestionType classifies what a question asks of the candidate.
type QuestionType string

const (
	TypeConceptual  QuestionType = "conceptual"
	TypeAnalytical  QuestionType = "analytical"
	TypeFactual     QuestionType = "factual"
	TypeApplication QuestionType = "application"
)

// QuestionTypes lists every question type in report order.
var QuestionTypes = []QuestionType{TypeConceptual, TypeAnalytical, TypeFactual, TypeApplication}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Difficulty is the level a question is pitched at.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties lists every difficulty from easiest to hardest.
var Difficulties = []Difficulty{DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// Question is one exam question as issued by a question bank. Questions are
// never modified after a session starts.
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
}

// Evaluation is what an evaluation service returns for one transcribed answer.
type Evaluation struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Response is the committed outcome for one question. An empty
// TranscribedText means the question was skipped.
type Response struct {
	QuestionID      string   `json:"question_id"`
	TranscribedText string   `json:"transcribed_text"`
	Score           int      `json:"score"`
	Feedback        string   `json:"feedback,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"improvements,omitempty"`
}

// Skipped reports whether the response was produced by a skip.
func (r Response) Skipped() bool {
	return r.TranscribedText == ""
}

const (
	MinScore = 0
	MaxScore = 100
)

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// State is the position of a session in the interview flow.
type State int

const (
	StateAwaitingPlayback State = iota
	StatePlaying
	StateIdle
	StateRecording
	StateTranscribing
	StateAnswered
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingPlayback:
		return "awaiting_playback"
	case StatePlaying:
		return "playing"
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateAnswered:
		return "answered"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON payloads and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action is a command the user may issue in the current state.
type Action string

const (
	ActionPlay            Action = "play"
	ActionRecord          Action = "record"
	ActionStop            Action = "stop"
	ActionRetryEvaluation Action = "retry_evaluation"
	ActionSkip            Action = "skip"
	ActionNext            Action = "next"
)

// Completion is the session-complete signal.
type Completion struct {
	SessionID      string
	Responses      []Response
	ElapsedSeconds int
}
