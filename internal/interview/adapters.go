package interview

import "context"

// Playback reads a question aloud. Play returns once playback has finished
// or failed.
type Playback interface {
	Play(ctx context.Context, text string) error
}

// Transcriber turns a recorded answer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Evaluator scores a transcribed answer against its question.
type Evaluator interface {
	Evaluate(ctx context.Context, question Question, answer string) (Evaluation, error)
}

// Dispatcher runs the blocking calls to the collaborators above. The machine
// never holds its lock while a dispatched function runs.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// GoDispatcher runs every operation on its own goroutine.
type GoDispatcher struct{}

func (GoDispatcher) Dispatch(fn func()) { go fn() }

// Hooks observe a machine. Both run outside the machine lock.
type Hooks struct {
	OnResponse func(sessionID string, response Response)
	OnComplete func(completion Completion)
}
