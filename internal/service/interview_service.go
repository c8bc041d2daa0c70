package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/model"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound       = errors.New("interview session not found")
	ErrSessionAlreadyStarted = errors.New("interview session already started")
)

// MachineRuntime is what every session machine shares: the clock, the way
// blocking calls are run and their timeout.
type MachineRuntime struct {
	Ticks      interview.TickSource
	Dispatcher interview.Dispatcher
	Timeout    time.Duration
}

func NewMachineRuntime(cfg *config.Config) MachineRuntime {
	return MachineRuntime{
		Ticks:      interview.IntervalTicks{Interval: cfg.Interview.TickInterval},
		Dispatcher: interview.GoDispatcher{},
		Timeout:    cfg.Interview.OperationTimeout,
	}
}

// InterviewService owns the live interview sessions and persists what they
// commit.
type InterviewService interface {
	StartSession(ctx context.Context, sessionID string) (*dto.InterviewStateDTO, error)
	GetState(sessionID string) (*dto.InterviewStateDTO, error)
	Play(sessionID string) (*dto.InterviewStateDTO, error)
	StartRecording(sessionID string) (*dto.InterviewStateDTO, error)
	StopRecording(sessionID string, audio []byte) (*dto.InterviewStateDTO, error)
	RetryEvaluation(sessionID string) (*dto.InterviewStateDTO, error)
	Skip(sessionID string) (*dto.InterviewStateDTO, error)
	Next(sessionID string) (*dto.InterviewStateDTO, error)
	Abandon(sessionID string) error
	ActiveSessions() int
	ReapIdle(now time.Time) int
	RunReaper(ctx context.Context, every time.Duration)
	Shutdown()
}

type liveSession struct {
	machine  *interview.Machine
	lastSeen time.Time
}

type interviewService struct {
	sessionRepo  repository.SessionRepository
	questionRepo repository.QuestionRepository
	responseRepo repository.ResponseRepository
	bank         QuestionBankService
	playback     interview.Playback
	transcriber  interview.Transcriber
	evaluator    interview.Evaluator
	runtime      MachineRuntime
	idleTTL      time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

func NewInterviewService(
	cfg *config.Config,
	sessionRepo repository.SessionRepository,
	questionRepo repository.QuestionRepository,
	responseRepo repository.ResponseRepository,
	bank QuestionBankService,
	playback interview.Playback,
	transcriber interview.Transcriber,
	evaluator interview.Evaluator,
	runtime MachineRuntime,
) InterviewService {
	return &interviewService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		responseRepo: responseRepo,
		bank:         bank,
		playback:     playback,
		transcriber:  transcriber,
		evaluator:    evaluator,
		runtime:      runtime,
		idleTTL:      cfg.Interview.SessionIdleTTL,
		now:          time.Now,
		sessions:     make(map[string]*liveSession),
	}
}

func (s *interviewService) StartSession(ctx context.Context, sessionID string) (*dto.InterviewStateDTO, error) {
	session, err := s.sessionRepo.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session.Status != model.SessionStatusPending {
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionAlreadyStarted, sessionID, session.Status)
	}

	questions, err := s.bank.GetQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, interview.ErrEmptyQuestionBank
	}

	positions := make(map[string]int, len(questions))
	rows := make([]model.Question, len(questions))
	for i, q := range questions {
		positions[q.ID] = i
		rows[i] = model.Question{
			SessionID:      sessionID,
			QuestionKey:    q.ID,
			Text:           q.Text,
			Type:           string(q.Type),
			Difficulty:     string(q.Difficulty),
			OrderInSession: i,
		}
	}

	machine, err := interview.NewMachine(interview.Config{
		SessionID:   sessionID,
		Questions:   questions,
		Playback:    s.playback,
		Transcriber: s.transcriber,
		Evaluator:   s.evaluator,
		Ticks:       s.runtime.Ticks,
		Dispatcher:  s.runtime.Dispatcher,
		Timeout:     s.runtime.Timeout,
		Hooks: interview.Hooks{
			OnResponse: func(sessionID string, r interview.Response) {
				s.persistResponse(sessionID, positions[r.QuestionID], r)
			},
			OnComplete: func(c interview.Completion) {
				s.persistCompletion(c, positions)
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.CreateBatch(rows); err != nil {
		machine.Close()
		return nil, fmt.Errorf("failed to store questions of session %s: %w", sessionID, err)
	}
	if err := s.sessionRepo.UpdateStatus(sessionID, model.SessionStatusInProgress); err != nil {
		machine.Close()
		return nil, fmt.Errorf("failed to start session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	s.sessions[sessionID] = &liveSession{machine: machine, lastSeen: s.now()}
	s.mu.Unlock()

	log.Info().Str("sessionID", sessionID).Int("questions", len(questions)).Msg("Interview session started")
	return ToInterviewStateDTO(machine.Snapshot()), nil
}

func responseRow(sessionID string, position int, r interview.Response) model.Response {
	return model.Response{
		SessionID:       sessionID,
		QuestionKey:     r.QuestionID,
		Position:        position,
		TranscribedText: r.TranscribedText,
		Score:           r.Score,
		Feedback:        r.Feedback,
		Strengths:       strings.Join(r.Strengths, "\n"),
		Improvements:    strings.Join(r.Improvements, "\n"),
	}
}

func (s *interviewService) persistResponse(sessionID string, position int, r interview.Response) {
	row := responseRow(sessionID, position, r)
	if err := s.responseRepo.Create(&row); err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			log.Debug().Str("sessionID", sessionID).Str("questionID", r.QuestionID).Msg("Response already stored, ignoring")
			return
		}
		log.Error().Err(err).Str("sessionID", sessionID).Str("questionID", r.QuestionID).Msg("Failed to store response")
		return
	}
	log.Debug().Str("sessionID", sessionID).Str("questionID", r.QuestionID).Int("score", r.Score).Bool("skipped", r.Skipped()).Msg("Response stored")
}

// persistCompletion stores every committed response with the completed
// status. On error the session stays in progress.
func (s *interviewService) persistCompletion(c interview.Completion, positions map[string]int) {
	rows := make([]model.Response, len(c.Responses))
	for i, r := range c.Responses {
		rows[i] = responseRow(c.SessionID, positions[r.QuestionID], r)
	}
	if err := s.sessionRepo.CompleteWithResponses(c.SessionID, c.ElapsedSeconds, s.now(), rows); err != nil {
		log.Error().Err(err).Str("sessionID", c.SessionID).Msg("Failed to complete session")
		return
	}
	log.Info().Str("sessionID", c.SessionID).Int("responses", len(c.Responses)).Int("elapsedSeconds", c.ElapsedSeconds).Msg("Interview session completed")
}

func (s *interviewService) machine(sessionID string) (*interview.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	live.lastSeen = s.now()
	return live.machine, nil
}

// command runs op against a live machine and returns the resulting state.
func (s *interviewService) command(sessionID string, op func(m *interview.Machine) error) (*dto.InterviewStateDTO, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	if op != nil {
		if err := op(m); err != nil {
			return nil, err
		}
	}
	return ToInterviewStateDTO(m.Snapshot()), nil
}

func (s *interviewService) GetState(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, nil)
}

func (s *interviewService) Play(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, (*interview.Machine).Play)
}

func (s *interviewService) StartRecording(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, (*interview.Machine).StartRecording)
}

func (s *interviewService) StopRecording(sessionID string, audio []byte) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, func(m *interview.Machine) error {
		return m.StopRecording(audio)
	})
}

func (s *interviewService) RetryEvaluation(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, (*interview.Machine).RetryEvaluation)
}

func (s *interviewService) Skip(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, (*interview.Machine).Skip)
}

func (s *interviewService) Next(sessionID string) (*dto.InterviewStateDTO, error) {
	return s.command(sessionID, (*interview.Machine).Next)
}

// Abandon closes a live session. Sessions that already completed keep their
// status.
func (s *interviewService) Abandon(sessionID string) error {
	s.mu.Lock()
	live, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.retire(live.machine, "abandoned")
	return nil
}

func (s *interviewService) retire(m *interview.Machine, reason string) {
	m.Close()
	if m.Snapshot().Complete() {
		log.Debug().Str("sessionID", m.SessionID()).Str("reason", reason).Msg("Completed session released")
		return
	}
	if err := s.sessionRepo.UpdateStatus(m.SessionID(), model.SessionStatusAbandoned); err != nil {
		log.Error().Err(err).Str("sessionID", m.SessionID()).Msg("Failed to mark session abandoned")
		return
	}
	log.Info().Str("sessionID", m.SessionID()).Str("reason", reason).Msg("Interview session abandoned")
}

func (s *interviewService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ReapIdle closes every session not touched within the idle TTL and returns
// how many were closed.
func (s *interviewService) ReapIdle(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	var idle []*interview.Machine
	s.mu.Lock()
	for id, live := range s.sessions {
		if now.Sub(live.lastSeen) >= s.idleTTL {
			idle = append(idle, live.machine)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, m := range idle {
		s.retire(m, "idle")
	}
	return len(idle)
}

func (s *interviewService) RunReaper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.ReapIdle(now); n > 0 {
				log.Info().Int("sessions", n).Msg("Reaped idle interview sessions")
			}
		}
	}
}

// Shutdown closes every live machine without touching stored status.
func (s *interviewService) Shutdown() {
	s.mu.Lock()
	live := s.sessions
	s.sessions = make(map[string]*liveSession)
	s.mu.Unlock()
	for _, l := range live {
		l.machine.Close()
	}
	log.Info().Int("sessions", len(live)).Msg("Interview sessions closed")
}

// ToInterviewStateDTO renders a machine snapshot for the API.
func ToInterviewStateDTO(snap interview.Snapshot) *dto.InterviewStateDTO {
	out := &dto.InterviewStateDTO{
		SessionID:        snap.SessionID,
		State:            snap.State.String(),
		Transcript:       snap.Transcript,
		Responses:        make([]dto.ResponseDTO, 0, len(snap.Responses)),
		SessionSeconds:   snap.SessionSeconds,
		SessionClock:     FormatClock(snap.SessionSeconds),
		RecordingSeconds: snap.RecordingSeconds,
		RecordingClock:   FormatClock(snap.RecordingSeconds),
		Recording:        snap.Recording(),
		CaptureEnabled:   snap.CaptureEnabled(),
		Actions:          make([]string, len(snap.Actions)),
		Complete:         snap.Complete(),
	}
	out.Question = toQuestionDTO(snap.Question)
	out.Progress = dto.ProgressDTO{
		QuestionNumber: snap.Index + 1,
		Total:          snap.Total,
		Percent:        progressPercent(snap.Index+1, snap.Total),
	}
	for _, r := range snap.Responses {
		out.Responses = append(out.Responses, toResponseDTO(r))
	}
	if snap.CurrentResponse != nil {
		r := toResponseDTO(*snap.CurrentResponse)
		out.CurrentResponse = &r
	}
	if snap.Failure != nil {
		out.Failure = &dto.FailureDTO{Kind: string(snap.Failure.Kind), Message: snap.Failure.Message}
	}
	for i, a := range snap.Actions {
		out.Actions[i] = string(a)
	}
	if out.Complete {
		out.ResultsPath = ResultsPath(snap.SessionID)
	}
	return out
}

func toQuestionDTO(q interview.Question) dto.QuestionDTO {
	var out dto.QuestionDTO
	if err := copier.Copy(&out, &q); err != nil {
		log.Warn().Err(err).Str("questionID", q.ID).Msg("Failed to copy question")
	}
	return out
}

func toResponseDTO(r interview.Response) dto.ResponseDTO {
	var out dto.ResponseDTO
	if err := copier.Copy(&out, &r); err != nil {
		log.Warn().Err(err).Str("questionID", r.QuestionID).Msg("Failed to copy response")
	}
	out.Skipped = r.Skipped()
	return out
}

func progressPercent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return n * 100 / total
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func ResultsPath(sessionID string) string {
	return "/api/v1/results/" + sessionID
}
