package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/database"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/model"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.Database{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Interview: config.Interview{
			QuestionCount:    2,
			OperationTimeout: time.Second,
			SessionIdleTTL:   time.Minute,
		},
		Upload: config.Upload{MaxFileBytes: 1 << 10, MaxFiles: 2},
	}
}

type bankFunc func(ctx context.Context, sessionID string) ([]interview.Question, error)

func (f bankFunc) GetQuestions(ctx context.Context, sessionID string) ([]interview.Question, error) {
	return f(ctx, sessionID)
}

type interviewFixture struct {
	db       *gorm.DB
	sessions repository.SessionRepository
	ticks    *interview.ManualTicks
	svc      *interviewService
}

// newInterviewFixture wires the interview service to sqlite and runs every
// collaborator call inline.
func newInterviewFixture(t *testing.T, bank QuestionBankService) *interviewFixture {
	t.Helper()
	db := newTestDB(t)
	ticks := interview.NewManualTicks()
	sessions := repository.NewSessionRepository(db)
	svc := NewInterviewService(
		testConfig(),
		sessions,
		repository.NewQuestionRepository(db),
		repository.NewResponseRepository(db),
		bank,
		TimedPlayback{},
		MockTranscriber{},
		NewReferenceEvaluator(NewScoreBandService()),
		MachineRuntime{
			Ticks:      ticks,
			Dispatcher: interview.DispatcherFunc(func(fn func()) { fn() }),
			Timeout:    time.Second,
		},
	).(*interviewService)
	t.Cleanup(svc.Shutdown)
	return &interviewFixture{db: db, sessions: sessions, ticks: ticks, svc: svc}
}

func (f *interviewFixture) seedPending(t *testing.T, sessionID string) {
	t.Helper()
	require.NoError(t, f.sessions.Create(&model.Session{SessionID: sessionID, Status: model.SessionStatusPending}))
}

// pdfBytes is enough of a PDF for content sniffing.
func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}
