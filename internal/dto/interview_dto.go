package dto

type QuestionDTO struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

type ResponseDTO struct {
	QuestionID      string   `json:"question_id"`
	TranscribedText string   `json:"transcribed_text"`
	Score           int      `json:"score"`
	Skipped         bool     `json:"skipped"`
	Feedback        string   `json:"feedback,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"improvements,omitempty"`
}

type FailureDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ProgressDTO struct {
	QuestionNumber int `json:"question_number"`
	Total          int `json:"total"`
	Percent        int `json:"percent"`
}

// InterviewStateDTO is a snapshot of one interview session.
type InterviewStateDTO struct {
	SessionID        string        `json:"session_id"`
	State            string        `json:"state"`
	Question         QuestionDTO   `json:"question"`
	Progress         ProgressDTO   `json:"progress"`
	Transcript       string        `json:"transcript,omitempty"`
	CurrentResponse  *ResponseDTO  `json:"current_response,omitempty"`
	Responses        []ResponseDTO `json:"responses"`
	SessionSeconds   int           `json:"session_seconds"`
	SessionClock     string        `json:"session_clock"`
	RecordingSeconds int           `json:"recording_seconds"`
	RecordingClock   string        `json:"recording_clock"`
	Recording        bool          `json:"recording"`
	CaptureEnabled   bool          `json:"capture_enabled"`
	Failure          *FailureDTO   `json:"failure,omitempty"`
	Actions          []string      `json:"actions"`
	Complete         bool          `json:"complete"`
	ResultsPath      string        `json:"results_path,omitempty"`
}
