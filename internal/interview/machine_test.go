package interview_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inline = interview.DispatcherFunc(func(fn func()) { fn() })

// queue holds dispatched operations until the test releases them.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// RunAll drains the queue, including operations queued while draining.
func (q *queue) RunAll() {
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()
		fn()
	}
}

type fakePlayback struct {
	errs  []error
	calls int
}

func (p *fakePlayback) Play(_ context.Context, _ string) error {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return err
	}
	return nil
}

type fakeTranscriber struct {
	texts []string
	errs  []error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(t.errs) > 0 {
		err := t.errs[0]
		t.errs = t.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(t.texts) > 0 {
		text := t.texts[0]
		t.texts = t.texts[1:]
		return text, nil
	}
	return string(audio), nil
}

type fakeEvaluator struct {
	scores map[string]int
	errs   []error
	calls  int
}

func (e *fakeEvaluator) Evaluate(_ context.Context, q interview.Question, _ string) (interview.Evaluation, error) {
	e.calls++
	if len(e.errs) > 0 {
		err := e.errs[0]
		e.errs = e.errs[1:]
		if err != nil {
			return interview.Evaluation{}, err
		}
	}
	return interview.Evaluation{
		Score:        e.scores[q.ID],
		Feedback:     "feedback for " + q.ID,
		Strengths:    []string{"clear"},
		Improvements: []string{"add examples"},
	}, nil
}

type harness struct {
	machine     *interview.Machine
	ticks       *interview.ManualTicks
	playback    *fakePlayback
	transcriber *fakeTranscriber
	evaluator   *fakeEvaluator

	mu         sync.Mutex
	committed  []interview.Response
	completion *interview.Completion
}

func newHarness(t *testing.T, questions []interview.Question, dispatcher interview.Dispatcher) *harness {
	t.Helper()
	h := &harness{
		ticks:       interview.NewManualTicks(),
		playback:    &fakePlayback{},
		transcriber: &fakeTranscriber{},
		evaluator:   &fakeEvaluator{scores: map[string]int{}},
	}
	m, err := interview.NewMachine(interview.Config{
		SessionID:   "session-test",
		Questions:   questions,
		Playback:    h.playback,
		Transcriber: h.transcriber,
		Evaluator:   h.evaluator,
		Ticks:       h.ticks,
		Dispatcher:  dispatcher,
		Hooks: interview.Hooks{
			OnResponse: func(_ string, r interview.Response) {
				h.mu.Lock()
				defer h.mu.Unlock()
				h.committed = append(h.committed, r)
			},
			OnComplete: func(c interview.Completion) {
				h.mu.Lock()
				defer h.mu.Unlock()
				h.completion = &c
			},
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	h.machine = m
	return h
}

func twoQuestions() []interview.Question {
	return []interview.Question{
		{ID: "q1", Text: "Explain machine learning.", Type: interview.TypeConceptual, Difficulty: interview.DifficultyBasic},
		{ID: "q2", Text: "Supervised vs unsupervised?", Type: interview.TypeAnalytical, Difficulty: interview.DifficultyIntermediate},
	}
}

func TestRecordThenSkipScenario(t *testing.T) {
	questions := twoQuestions()
	h := newHarness(t, questions, inline)
	h.transcriber.texts = []string{"T1"}
	h.evaluator.scores["q1"] = 90
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("audio")))
	assert.Equal(t, interview.StateAnswered, m.Snapshot().State)
	require.NoError(t, m.Next())

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.Skip())
	require.NoError(t, m.Next())

	snap := m.Snapshot()
	assert.Equal(t, interview.StateComplete, snap.State)
	require.Len(t, snap.Responses, 2)
	assert.Equal(t, "q1", snap.Responses[0].QuestionID)
	assert.Equal(t, "T1", snap.Responses[0].TranscribedText)
	assert.Equal(t, 90, snap.Responses[0].Score)
	assert.Equal(t, interview.Response{QuestionID: "q2"}, snap.Responses[1])

	assert.Equal(t, 45, summary.Summarize(questions, snap.Responses).OverallAverage)

	require.NotNil(t, h.completion)
	assert.Equal(t, "session-test", h.completion.SessionID)
	assert.Equal(t, snap.Responses, h.completion.Responses)
	assert.Len(t, h.committed, 2)
}

func TestNextWithoutResponseIsRejected(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	m := h.machine

	for _, step := range []func() error{nil, m.Play, m.StartRecording} {
		if step != nil {
			require.NoError(t, step())
		}
		before := m.Snapshot()
		err := m.Next()
		assert.ErrorIs(t, err, interview.ErrInvalidTransition)
		after := m.Snapshot()
		assert.Equal(t, before.State, after.State)
		assert.Equal(t, before.Index, after.Index)
		assert.Empty(t, after.Responses)
	}
}

func TestSkipTwiceKeepsOneResponse(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.Skip())
	err := m.Skip()
	assert.ErrorIs(t, err, interview.ErrDuplicateResponse)

	snap := m.Snapshot()
	assert.Len(t, snap.Responses, 1)
	assert.Equal(t, interview.StateAnswered, snap.State)
	assert.Len(t, h.committed, 1)
}

func TestSkipAllowedOnlyFromIdleOrRecording(t *testing.T) {
	q := &queue{}
	h := newHarness(t, twoQuestions(), q)
	m := h.machine

	assert.ErrorIs(t, m.Skip(), interview.ErrInvalidTransition)

	require.NoError(t, m.Play())
	assert.ErrorIs(t, m.Skip(), interview.ErrInvalidTransition)
	q.RunAll()

	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("answer")))
	assert.ErrorIs(t, m.Skip(), interview.ErrInvalidTransition)
	assert.Empty(t, m.Snapshot().Responses)
}

func TestRecordingTimerResetsAndFreezes(t *testing.T) {
	q := &queue{}
	h := newHarness(t, twoQuestions(), q)
	h.transcriber.errs = []error{errors.New("microphone permission denied")}
	m := h.machine

	require.NoError(t, m.Play())
	q.RunAll()
	require.NoError(t, m.StartRecording())
	h.ticks.Advance(3)

	snap := m.Snapshot()
	assert.Equal(t, 3, snap.RecordingSeconds)
	assert.Equal(t, 3, snap.SessionSeconds)

	require.NoError(t, m.StopRecording([]byte("audio")))
	h.ticks.Advance(2)
	snap = m.Snapshot()
	assert.Equal(t, 3, snap.RecordingSeconds, "recording clock freezes outside Recording")
	assert.Equal(t, 5, snap.SessionSeconds)

	q.RunAll()
	require.Equal(t, interview.StateIdle, m.Snapshot().State)

	require.NoError(t, m.StartRecording())
	assert.Equal(t, 0, m.Snapshot().RecordingSeconds)
	h.ticks.Advance(1)
	assert.Equal(t, 1, m.Snapshot().RecordingSeconds)
}

func TestSessionClockStopsOnCompleteAndClose(t *testing.T) {
	questions := twoQuestions()[:1]
	h := newHarness(t, questions, inline)
	m := h.machine
	assert.Equal(t, 1, h.ticks.Subscribers())

	h.ticks.Advance(4)
	require.NoError(t, m.Play())
	require.NoError(t, m.Skip())
	require.NoError(t, m.Next())

	assert.Equal(t, 0, h.ticks.Subscribers())
	h.ticks.Advance(10)
	assert.Equal(t, 4, m.Snapshot().SessionSeconds)
	require.NotNil(t, h.completion)
	assert.Equal(t, 4, h.completion.ElapsedSeconds)

	other := newHarness(t, questions, inline)
	other.machine.Close()
	other.machine.Close()
	assert.Equal(t, 0, other.ticks.Subscribers())
}

func TestStaleResultsAreDiscardedAfterClose(t *testing.T) {
	q := &queue{}
	h := newHarness(t, twoQuestions(), q)
	h.evaluator.scores["q1"] = 70
	m := h.machine

	require.NoError(t, m.Play())
	q.RunAll()
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("late answer")))
	require.Equal(t, 1, q.Len())

	m.Close()
	q.RunAll()

	snap := m.Snapshot()
	assert.True(t, snap.Closed)
	assert.Equal(t, interview.StateTranscribing, snap.State)
	assert.Empty(t, snap.Responses)
	assert.Empty(t, h.committed)
	assert.Equal(t, 0, h.evaluator.calls)
	assert.ErrorIs(t, m.Play(), interview.ErrClosed)
	assert.ErrorIs(t, m.Skip(), interview.ErrClosed)
}

func TestPlayRejectedWhilePlaying(t *testing.T) {
	q := &queue{}
	h := newHarness(t, twoQuestions(), q)
	m := h.machine

	require.NoError(t, m.Play())
	assert.ErrorIs(t, m.Play(), interview.ErrInvalidTransition)
	assert.ErrorIs(t, m.StartRecording(), interview.ErrInvalidTransition)
	assert.False(t, m.Snapshot().CaptureEnabled())

	q.RunAll()
	assert.Equal(t, 1, h.playback.calls)
	assert.True(t, m.Snapshot().CaptureEnabled())
}

func TestPlaybackFailureAllowsRetry(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	h.playback.errs = []error{errors.New("speaker unavailable")}
	m := h.machine

	require.NoError(t, m.Play())
	snap := m.Snapshot()
	assert.Equal(t, interview.StateIdle, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, interview.FailurePlayback, snap.Failure.Kind)
	assert.ErrorIs(t, snap.Failure.Err(), interview.ErrPlaybackFailure)
	assert.Contains(t, snap.Actions, interview.ActionPlay)

	require.NoError(t, m.Play())
	assert.Nil(t, m.Snapshot().Failure)
	assert.Equal(t, 2, h.playback.calls)
}

func TestCaptureFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	h.transcriber.errs = []error{errors.New("no audio")}
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording(nil))

	snap := m.Snapshot()
	assert.Equal(t, interview.StateIdle, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, interview.FailureCapture, snap.Failure.Kind)
	assert.Equal(t, []interview.Action{interview.ActionPlay, interview.ActionRecord, interview.ActionSkip}, snap.Actions)
	assert.Empty(t, snap.Responses)
}

func TestEmptyTranscriptIsCaptureFailure(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	h.transcriber.texts = []string{"   "}
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("silence")))

	snap := m.Snapshot()
	require.NotNil(t, snap.Failure)
	assert.Equal(t, interview.FailureCapture, snap.Failure.Kind)
	assert.Equal(t, 0, h.evaluator.calls)
}

func TestEvaluationFailureThenRetry(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	h.transcriber.texts = []string{"my answer"}
	h.evaluator.errs = []error{errors.New("service unavailable")}
	h.evaluator.scores["q1"] = 80
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("audio")))

	snap := m.Snapshot()
	assert.Equal(t, interview.StateIdle, snap.State)
	assert.Equal(t, "my answer", snap.Transcript)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, interview.FailureEvaluation, snap.Failure.Kind)
	assert.Contains(t, snap.Actions, interview.ActionRetryEvaluation)

	require.NoError(t, m.RetryEvaluation())
	snap = m.Snapshot()
	assert.Equal(t, interview.StateAnswered, snap.State)
	require.NotNil(t, snap.CurrentResponse)
	assert.Equal(t, 80, snap.CurrentResponse.Score)
	assert.Equal(t, "my answer", snap.CurrentResponse.TranscribedText)
	assert.Equal(t, []string{"clear"}, snap.CurrentResponse.Strengths)
	assert.Equal(t, 2, h.evaluator.calls)

	assert.ErrorIs(t, m.RetryEvaluation(), interview.ErrInvalidTransition)
}

func TestSkipAfterEvaluationFailureDiscardsTranscript(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	h.transcriber.texts = []string{"partial answer"}
	h.evaluator.errs = []error{errors.New("timeout")}
	m := h.machine

	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.StopRecording([]byte("audio")))
	require.NoError(t, m.Skip())

	snap := m.Snapshot()
	require.Len(t, snap.Responses, 1)
	assert.Equal(t, interview.Response{QuestionID: "q1"}, snap.Responses[0])
	assert.Nil(t, snap.Failure)
}

func TestRetryEvaluationRequiresFailure(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	m := h.machine
	require.NoError(t, m.Play())
	assert.ErrorIs(t, m.RetryEvaluation(), interview.ErrInvalidTransition)
}

func TestScoresAreClamped(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  int
	}{
		{name: "above range", score: 140, want: 100},
		{name: "below range", score: -5, want: 0},
		{name: "in range", score: 64, want: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, twoQuestions(), inline)
			h.evaluator.scores["q1"] = tt.score
			m := h.machine
			require.NoError(t, m.Play())
			require.NoError(t, m.StartRecording())
			require.NoError(t, m.StopRecording([]byte("answer")))
			assert.Equal(t, tt.want, m.Snapshot().Responses[0].Score)
		})
	}
}

func TestIndexMonotonicAndResponsesBounded(t *testing.T) {
	questions := []interview.Question{
		{ID: "q1", Text: "one", Type: interview.TypeConceptual, Difficulty: interview.DifficultyBasic},
		{ID: "q2", Text: "two", Type: interview.TypeAnalytical, Difficulty: interview.DifficultyIntermediate},
		{ID: "q3", Text: "three", Type: interview.TypeApplication, Difficulty: interview.DifficultyAdvanced},
		{ID: "q4", Text: "four", Type: interview.TypeConceptual, Difficulty: interview.DifficultyIntermediate},
		{ID: "q5", Text: "five", Type: interview.TypeFactual, Difficulty: interview.DifficultyBasic},
	}
	h := newHarness(t, questions, inline)
	for _, q := range questions {
		h.evaluator.scores[q.ID] = 70
	}
	m := h.machine

	lastIndex, lastCount := 0, 0
	check := func() {
		snap := m.Snapshot()
		assert.GreaterOrEqual(t, snap.Index, lastIndex)
		assert.LessOrEqual(t, len(snap.Responses), len(questions))
		assert.True(t, len(snap.Responses) == lastCount || len(snap.Responses) == lastCount+1)
		for _, r := range snap.Responses {
			assert.GreaterOrEqual(t, r.Score, interview.MinScore)
			assert.LessOrEqual(t, r.Score, interview.MaxScore)
		}
		lastIndex, lastCount = snap.Index, len(snap.Responses)
	}

	for i := range questions {
		_ = m.Next()
		check()
		require.NoError(t, m.Play())
		check()
		require.NoError(t, m.StartRecording())
		check()
		if i%2 == 0 {
			require.NoError(t, m.StopRecording([]byte("answer")))
		} else {
			require.NoError(t, m.Skip())
		}
		check()
		_ = m.Skip()
		check()
		require.NoError(t, m.Next())
		check()
	}

	snap := m.Snapshot()
	assert.True(t, snap.Complete())
	assert.Equal(t, len(questions)-1, snap.Index)
	assert.Len(t, snap.Responses, len(questions))
	assert.ErrorIs(t, m.Next(), interview.ErrInvalidTransition)
}

func TestNewMachineValidatesQuestions(t *testing.T) {
	base := interview.Config{
		SessionID:   "s",
		Playback:    &fakePlayback{},
		Transcriber: &fakeTranscriber{},
		Evaluator:   &fakeEvaluator{},
		Ticks:       interview.NewManualTicks(),
	}

	_, err := interview.NewMachine(base)
	assert.ErrorIs(t, err, interview.ErrEmptyQuestionBank)

	dup := base
	dup.Questions = []interview.Question{{ID: "q1"}, {ID: "q1"}}
	_, err = interview.NewMachine(dup)
	assert.Error(t, err)

	missing := base
	missing.Questions = twoQuestions()
	missing.Evaluator = nil
	_, err = interview.NewMachine(missing)
	assert.Error(t, err)
}

func TestSnapshotActions(t *testing.T) {
	h := newHarness(t, twoQuestions(), inline)
	m := h.machine

	assert.Equal(t, []interview.Action{interview.ActionPlay}, m.Snapshot().Actions)
	require.NoError(t, m.Play())
	require.NoError(t, m.StartRecording())
	snap := m.Snapshot()
	assert.True(t, snap.Recording())
	assert.Equal(t, []interview.Action{interview.ActionStop, interview.ActionSkip}, snap.Actions)
	require.NoError(t, m.Skip())
	assert.Equal(t, []interview.Action{interview.ActionNext}, m.Snapshot().Actions)
}

type blockingTranscriber struct{}

func (blockingTranscriber) Transcribe(ctx context.Context, _ []byte) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type blockingEvaluator struct{}

func (blockingEvaluator) Evaluate(ctx context.Context, _ interview.Question, _ string) (interview.Evaluation, error) {
	<-ctx.Done()
	return interview.Evaluation{}, ctx.Err()
}

func TestOperationTimeoutsLeaveMachineIdle(t *testing.T) {
	tests := []struct {
		name        string
		transcriber interview.Transcriber
		evaluator   interview.Evaluator
		kind        interview.FailureKind
		actions     []interview.Action
	}{
		{
			name:        "transcription",
			transcriber: blockingTranscriber{},
			evaluator:   &fakeEvaluator{scores: map[string]int{}},
			kind:        interview.FailureCapture,
			actions:     []interview.Action{interview.ActionPlay, interview.ActionRecord, interview.ActionSkip},
		},
		{
			name:        "evaluation",
			transcriber: &fakeTranscriber{texts: []string{"an answer"}},
			evaluator:   blockingEvaluator{},
			kind:        interview.FailureEvaluation,
			actions:     []interview.Action{interview.ActionPlay, interview.ActionRecord, interview.ActionRetryEvaluation, interview.ActionSkip},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := interview.NewMachine(interview.Config{
				SessionID:   "session-timeout",
				Questions:   twoQuestions(),
				Playback:    &fakePlayback{},
				Transcriber: tt.transcriber,
				Evaluator:   tt.evaluator,
				Ticks:       interview.NewManualTicks(),
				Dispatcher:  inline,
				Timeout:     50 * time.Millisecond,
			})
			require.NoError(t, err)
			t.Cleanup(m.Close)

			require.NoError(t, m.Play())
			require.NoError(t, m.StartRecording())
			started := time.Now()
			require.NoError(t, m.StopRecording([]byte("audio")))
			assert.Less(t, time.Since(started), 5*time.Second)

			snap := m.Snapshot()
			assert.Equal(t, interview.StateIdle, snap.State)
			require.NotNil(t, snap.Failure)
			assert.Equal(t, tt.kind, snap.Failure.Kind)
			assert.Contains(t, snap.Failure.Message, context.DeadlineExceeded.Error())
			assert.ElementsMatch(t, tt.actions, snap.Actions)
			assert.Empty(t, snap.Responses)

			require.NoError(t, m.Skip())
			assert.Equal(t, interview.StateAnswered, m.Snapshot().State)
		})
	}
}
