package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultOperationTimeout = 30 * time.Second

// Config holds everything a Machine needs for one session.
type Config struct {
	SessionID   string
	Questions   []Question
	Playback    Playback
	Transcriber Transcriber
	Evaluator   Evaluator
	Ticks       TickSource
	Dispatcher  Dispatcher
	// Timeout bounds every playback, transcription and evaluation call.
	Timeout time.Duration
	Hooks   Hooks
}

// ticket identifies the question and generation an async operation was
// issued for. A result is applied only while its ticket is still current.
type ticket struct {
	index      int
	generation uint64
}

// Machine is the interview session state machine. All methods are safe for
// concurrent use.
type Machine struct {
	mu sync.Mutex

	sessionID string
	questions []Question
	responses []Response
	answered  map[string]struct{}

	index      int
	state      State
	generation uint64

	sessionSeconds   int
	recordingSeconds int
	transcript       string
	failure          *Failure
	closed           bool

	playback    Playback
	transcriber Transcriber
	evaluator   Evaluator
	dispatcher  Dispatcher
	timeout     time.Duration
	hooks       Hooks

	ctx       context.Context
	cancel    context.CancelFunc
	stopTicks func()
}

// NewMachine validates the question set and starts the session clock.
func NewMachine(cfg Config) (*Machine, error) {
	if len(cfg.Questions) == 0 {
		return nil, ErrEmptyQuestionBank
	}
	if cfg.Playback == nil || cfg.Transcriber == nil || cfg.Evaluator == nil {
		return nil, fmt.Errorf("interview machine for session %s: playback, transcriber and evaluator are required", cfg.SessionID)
	}
	seen := make(map[string]struct{}, len(cfg.Questions))
	for i, q := range cfg.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question id %q appears more than once", q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = GoDispatcher{}
	}
	ticks := cfg.Ticks
	if ticks == nil {
		ticks = IntervalTicks{Interval: time.Second}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOperationTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		sessionID:   cfg.SessionID,
		questions:   append([]Question(nil), cfg.Questions...),
		answered:    make(map[string]struct{}, len(cfg.Questions)),
		state:       StateAwaitingPlayback,
		playback:    cfg.Playback,
		transcriber: cfg.Transcriber,
		evaluator:   cfg.Evaluator,
		dispatcher:  dispatcher,
		timeout:     timeout,
		hooks:       cfg.Hooks,
		ctx:         ctx,
		cancel:      cancel,
	}

	m.mu.Lock()
	m.stopTicks = ticks.Subscribe(m.tick)
	m.mu.Unlock()
	return m, nil
}

func (m *Machine) SessionID() string { return m.sessionID }

func (m *Machine) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == StateComplete {
		return
	}
	m.sessionSeconds++
	if m.state == StateRecording {
		m.recordingSeconds++
	}
}

// setStateLocked moves to s and invalidates every in-flight operation.
func (m *Machine) setStateLocked(s State) {
	m.state = s
	m.generation++
}

func (m *Machine) ticketLocked() ticket {
	return ticket{index: m.index, generation: m.generation}
}

func (m *Machine) currentLocked(t ticket) bool {
	return !m.closed && t.index == m.index && t.generation == m.generation
}

func (m *Machine) requireLocked(op string, allowed ...State) error {
	if m.closed {
		return ErrClosed
	}
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return invalidTransition(op, m.state)
}

func (m *Machine) hasResponseLocked(questionID string) bool {
	_, ok := m.answered[questionID]
	return ok
}

// commitLocked appends a response, refusing a second one for the same question.
func (m *Machine) commitLocked(r Response) error {
	if m.hasResponseLocked(r.QuestionID) {
		return fmt.Errorf("%w: %s", ErrDuplicateResponse, r.QuestionID)
	}
	r.Score = ClampScore(r.Score)
	m.responses = append(m.responses, r)
	m.answered[r.QuestionID] = struct{}{}
	return nil
}

// run dispatches fn with a context bounded by the operation timeout.
func (m *Machine) run(fn func(ctx context.Context)) {
	parent := m.ctx
	m.dispatcher.Dispatch(func() {
		ctx, cancel := context.WithTimeout(parent, m.timeout)
		defer cancel()
		fn(ctx)
	})
}

func (m *Machine) discard(op string, t ticket) {
	log.Debug().
		Str("sessionID", m.sessionID).
		Str("operation", op).
		Int("questionIndex", t.index).
		Uint64("generation", t.generation).
		Msg("Discarding stale result")
}

// Play starts reading the current question aloud. Capture is disabled until
// playback finishes.
func (m *Machine) Play() error {
	m.mu.Lock()
	if err := m.requireLocked("play", StateAwaitingPlayback, StateIdle); err != nil {
		m.mu.Unlock()
		return err
	}
	m.failure = nil
	m.setStateLocked(StatePlaying)
	t := m.ticketLocked()
	text := m.questions[m.index].Text
	m.mu.Unlock()

	m.run(func(ctx context.Context) {
		m.finishPlayback(t, m.playback.Play(ctx, text))
	})
	return nil
}

func (m *Machine) finishPlayback(t ticket, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.currentLocked(t) {
		m.discard("playback", t)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("sessionID", m.sessionID).Int("questionIndex", m.index).Msg("Question playback failed")
		m.failure = &Failure{Kind: FailurePlayback, Message: err.Error()}
	}
	m.setStateLocked(StateIdle)
}

// StartRecording begins capturing an answer for the current question. Any
// transcript kept from an earlier attempt is dropped.
func (m *Machine) StartRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked("start recording", StateIdle); err != nil {
		return err
	}
	m.transcript = ""
	m.failure = nil
	m.recordingSeconds = 0
	m.setStateLocked(StateRecording)
	return nil
}

// StopRecording ends capture and hands the audio to the transcriber. The
// evaluation follows automatically once a transcript is available.
func (m *Machine) StopRecording(audio []byte) error {
	m.mu.Lock()
	if err := m.requireLocked("stop recording", StateRecording); err != nil {
		m.mu.Unlock()
		return err
	}
	m.setStateLocked(StateTranscribing)
	t := m.ticketLocked()
	m.mu.Unlock()

	m.run(func(ctx context.Context) {
		text, err := m.transcriber.Transcribe(ctx, audio)
		m.finishTranscription(t, text, err)
	})
	return nil
}

func (m *Machine) finishTranscription(t ticket, text string, err error) {
	m.mu.Lock()
	if !m.currentLocked(t) {
		m.discard("transcription", t)
		m.mu.Unlock()
		return
	}
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("no speech detected")
	}
	if err != nil {
		log.Warn().Err(err).Str("sessionID", m.sessionID).Int("questionIndex", m.index).Msg("Answer transcription failed")
		m.failure = &Failure{Kind: FailureCapture, Message: err.Error()}
		m.setStateLocked(StateIdle)
		m.mu.Unlock()
		return
	}
	m.transcript = text
	m.setStateLocked(StateTranscribing)
	next := m.ticketLocked()
	question := m.questions[m.index]
	m.mu.Unlock()

	m.evaluate(next, question, text)
}

func (m *Machine) evaluate(t ticket, question Question, text string) {
	m.run(func(ctx context.Context) {
		ev, err := m.evaluator.Evaluate(ctx, question, text)
		m.finishEvaluation(t, question, text, ev, err)
	})
}

func (m *Machine) finishEvaluation(t ticket, question Question, text string, ev Evaluation, err error) {
	m.mu.Lock()
	if !m.currentLocked(t) {
		m.discard("evaluation", t)
		m.mu.Unlock()
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("sessionID", m.sessionID).Str("questionID", question.ID).Msg("Answer evaluation failed")
		m.failure = &Failure{Kind: FailureEvaluation, Message: err.Error()}
		m.setStateLocked(StateIdle)
		m.mu.Unlock()
		return
	}
	response := Response{
		QuestionID:      question.ID,
		TranscribedText: text,
		Score:           ev.Score,
		Feedback:        ev.Feedback,
		Strengths:       append([]string(nil), ev.Strengths...),
		Improvements:    append([]string(nil), ev.Improvements...),
	}
	if err := m.commitLocked(response); err != nil {
		log.Error().Err(err).Str("sessionID", m.sessionID).Msg("Refusing evaluation result")
		m.mu.Unlock()
		return
	}
	m.failure = nil
	m.setStateLocked(StateAnswered)
	committed := m.responses[len(m.responses)-1]
	m.mu.Unlock()

	m.notifyResponse(committed)
}

// RetryEvaluation re-submits the transcript kept after an evaluation failure.
func (m *Machine) RetryEvaluation() error {
	m.mu.Lock()
	if err := m.requireLocked("retry evaluation", StateIdle); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.failure == nil || m.failure.Kind != FailureEvaluation || m.transcript == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: no failed evaluation to retry", ErrInvalidTransition)
	}
	m.failure = nil
	m.setStateLocked(StateTranscribing)
	t := m.ticketLocked()
	question := m.questions[m.index]
	text := m.transcript
	m.mu.Unlock()

	m.evaluate(t, question, text)
	return nil
}

// Skip commits an empty, zero-score response for the current question. An
// in-progress recording or a transcript kept after a failed evaluation is
// discarded.
func (m *Machine) Skip() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	question := m.questions[m.index]
	if m.hasResponseLocked(question.ID) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateResponse, question.ID)
	}
	if err := m.requireLocked("skip", StateIdle, StateRecording); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.commitLocked(Response{QuestionID: question.ID}); err != nil {
		m.mu.Unlock()
		return err
	}
	m.transcript = ""
	m.failure = nil
	m.setStateLocked(StateAnswered)
	committed := m.responses[len(m.responses)-1]
	m.mu.Unlock()

	m.notifyResponse(committed)
	return nil
}

// Next advances to the following question, or completes the session after
// the last one.
func (m *Machine) Next() error {
	m.mu.Lock()
	if err := m.requireLocked("advance", StateAnswered); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.index < len(m.questions)-1 {
		m.index++
		m.transcript = ""
		m.failure = nil
		m.setStateLocked(StateAwaitingPlayback)
		m.mu.Unlock()
		return nil
	}

	m.setStateLocked(StateComplete)
	m.stopTicks()
	completion := Completion{
		SessionID:      m.sessionID,
		Responses:      cloneResponses(m.responses),
		ElapsedSeconds: m.sessionSeconds,
	}
	m.mu.Unlock()

	log.Info().Str("sessionID", m.sessionID).Int("responses", len(completion.Responses)).Msg("Interview session complete")
	if m.hooks.OnComplete != nil {
		m.hooks.OnComplete(completion)
	}
	return nil
}

// Close tears the machine down. In-flight results are discarded when they
// arrive and the clocks stop.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.generation++
	m.cancel()
	m.stopTicks()
}

func (m *Machine) notifyResponse(r Response) {
	if m.hooks.OnResponse != nil {
		m.hooks.OnResponse(m.sessionID, r)
	}
}

// Snapshot is a consistent, read-only copy of a machine.
type Snapshot struct {
	SessionID        string
	State            State
	Index            int
	Total            int
	Question         Question
	Questions        []Question
	Responses        []Response
	CurrentResponse  *Response
	Transcript       string
	SessionSeconds   int
	RecordingSeconds int
	Failure          *Failure
	Actions          []Action
	Closed           bool
}

// Recording reports whether capture is active.
func (s Snapshot) Recording() bool { return s.State == StateRecording }

// CaptureEnabled reports whether a recording can be started.
func (s Snapshot) CaptureEnabled() bool { return s.State == StateIdle }

func (s Snapshot) Complete() bool { return s.State == StateComplete }

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		SessionID:        m.sessionID,
		State:            m.state,
		Index:            m.index,
		Total:            len(m.questions),
		Question:         m.questions[m.index],
		Questions:        append([]Question(nil), m.questions...),
		Responses:        cloneResponses(m.responses),
		Transcript:       m.transcript,
		SessionSeconds:   m.sessionSeconds,
		RecordingSeconds: m.recordingSeconds,
		Closed:           m.closed,
		Actions:          m.actionsLocked(),
	}
	if m.failure != nil {
		f := *m.failure
		snap.Failure = &f
	}
	for i := range snap.Responses {
		if snap.Responses[i].QuestionID == snap.Question.ID {
			r := snap.Responses[i]
			snap.CurrentResponse = &r
			if snap.Transcript == "" {
				snap.Transcript = r.TranscribedText
			}
			break
		}
	}
	return snap
}

func (m *Machine) actionsLocked() []Action {
	if m.closed {
		return nil
	}
	switch m.state {
	case StateAwaitingPlayback:
		return []Action{ActionPlay}
	case StateIdle:
		actions := []Action{ActionPlay, ActionRecord}
		if m.failure != nil && m.failure.Kind == FailureEvaluation && m.transcript != "" {
			actions = append(actions, ActionRetryEvaluation)
		}
		return append(actions, ActionSkip)
	case StateRecording:
		return []Action{ActionStop, ActionSkip}
	case StateAnswered:
		return []Action{ActionNext}
	default:
		return nil
	}
}

func cloneResponses(in []Response) []Response {
	out := make([]Response, len(in))
	for i, r := range in {
		r.Strengths = append([]string(nil), r.Strengths...)
		r.Improvements = append([]string(nil), r.Improvements...)
		out[i] = r
	}
	return out
}
