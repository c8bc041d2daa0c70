package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/model"
	"github.com/lshigami/vivavoce/internal/objectstore"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/rs/zerolog/log"
)

var ErrInvalidUpload = errors.New("invalid upload")

const pdfContentType = "application/pdf"

// UploadedFile is one file of a study material upload.
type UploadedFile struct {
	FileName string
	Content  []byte
}

// MaterialService accepts study material and opens the interview session
// that examines it.
type MaterialService interface {
	Upload(ctx context.Context, files []UploadedFile) (*dto.UploadResponseDTO, error)
}

type materialService struct {
	sessionRepo  repository.SessionRepository
	materialRepo repository.MaterialRepository
	store        objectstore.Store
	interviews   InterviewService
	maxFileBytes int64
	maxFiles     int
}

func NewMaterialService(
	cfg *config.Config,
	sessionRepo repository.SessionRepository,
	materialRepo repository.MaterialRepository,
	store objectstore.Store,
	interviews InterviewService,
) MaterialService {
	return &materialService{
		sessionRepo:  sessionRepo,
		materialRepo: materialRepo,
		store:        store,
		interviews:   interviews,
		maxFileBytes: cfg.Upload.MaxFileBytes,
		maxFiles:     cfg.Upload.MaxFiles,
	}
}

func (s *materialService) validate(files []UploadedFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files uploaded", ErrInvalidUpload)
	}
	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return fmt.Errorf("%w: at most %d files per upload", ErrInvalidUpload, s.maxFiles)
	}
	for _, f := range files {
		if len(f.Content) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidUpload, f.FileName)
		}
		if s.maxFileBytes > 0 && int64(len(f.Content)) > s.maxFileBytes {
			return fmt.Errorf("%w: %s is larger than %d bytes", ErrInvalidUpload, f.FileName, s.maxFileBytes)
		}
		if !strings.EqualFold(filepath.Ext(f.FileName), ".pdf") {
			return fmt.Errorf("%w: %s is not a PDF file", ErrInvalidUpload, f.FileName)
		}
		if mime := mimetype.Detect(f.Content); !mime.Is(pdfContentType) {
			return fmt.Errorf("%w: %s looks like %s, not a PDF", ErrInvalidUpload, f.FileName, mime.String())
		}
	}
	return nil
}

func (s *materialService) Upload(ctx context.Context, files []UploadedFile) (*dto.UploadResponseDTO, error) {
	if err := s.validate(files); err != nil {
		return nil, err
	}

	sessionID := "session-" + uuid.New().String()
	if err := s.sessionRepo.Create(&model.Session{SessionID: sessionID, Status: model.SessionStatusPending}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	out := &dto.UploadResponseDTO{
		SessionID:     sessionID,
		Files:         make([]dto.UploadedFileDTO, 0, len(files)),
		InterviewPath: "/api/v1/interviews/" + sessionID,
	}
	var stored []string
	for _, f := range files {
		key := objectstore.NewObjectKey(sessionID, f.FileName)
		if err := s.store.Put(ctx, key, bytes.NewReader(f.Content), int64(len(f.Content)), pdfContentType); err != nil {
			s.abort(ctx, sessionID, stored)
			return nil, fmt.Errorf("failed to store %s: %w", f.FileName, err)
		}
		stored = append(stored, key)

		material := model.StudyMaterial{
			SessionID:   sessionID,
			FileName:    filepath.Base(f.FileName),
			ObjectKey:   key,
			ContentType: pdfContentType,
			Size:        int64(len(f.Content)),
		}
		if err := s.materialRepo.Create(&material); err != nil {
			s.abort(ctx, sessionID, stored)
			return nil, fmt.Errorf("failed to record %s: %w", f.FileName, err)
		}
		out.Files = append(out.Files, dto.UploadedFileDTO{
			FileName:    material.FileName,
			ObjectKey:   key,
			ContentType: pdfContentType,
			Size:        material.Size,
		})
	}
	log.Info().Str("sessionID", sessionID).Int("files", len(files)).Msg("Study material uploaded")

	state, err := s.interviews.StartSession(ctx, sessionID)
	if err != nil {
		if uerr := s.sessionRepo.UpdateStatus(sessionID, model.SessionStatusAbandoned); uerr != nil {
			log.Error().Err(uerr).Str("sessionID", sessionID).Msg("Failed to mark session abandoned")
		}
		return nil, err
	}
	out.Interview = state
	return out, nil
}

// abort removes stored objects of a failed upload and abandons its session.
func (s *materialService) abort(ctx context.Context, sessionID string, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to remove object of failed upload")
		}
	}
	if err := s.sessionRepo.UpdateStatus(sessionID, model.SessionStatusAbandoned); err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Failed to mark session abandoned")
	}
}
