package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/pkg/config"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/storage"
)

// FileRepository defines persistence needed by FileService.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	ListBySet(ctx context.Context, questionSetID string) ([]models.File, error)
	Delete(ctx context.Context, id string) error
}

// FileStorage persists and serves file blobs.
type FileStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// SetOwnerLookup resolves a question set for ownership checks.
type SetOwnerLookup interface {
	FindByID(ctx context.Context, id string) (*models.QuestionSet, error)
}

// UploadRequest describes an incoming file upload.
type UploadRequest struct {
	QuestionSetID string
	Filename      string
	MimeType      string
	Size          int64
	Body          io.Reader
}

// DownloadLink is a time-limited descriptor for fetching a stored file.
type DownloadLink struct {
	FileID    string    `json:"file_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileService manages uploads attached to question sets.
type FileService struct {
	repo    FileRepository
	sets    SetOwnerLookup
	storage FileStorage
	signer  *storage.SignedURLSigner
	cfg     config.UploadsConfig
	logger  *zap.Logger
}

// NewFileService creates a FileService.
func NewFileService(repo FileRepository, sets SetOwnerLookup, store FileStorage, signer *storage.SignedURLSigner, cfg config.UploadsConfig, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{repo: repo, sets: sets, storage: store, signer: signer, cfg: cfg, logger: logger}
}

// Upload validates and stores a file, attaching it to the question set. The
// blob is written first; the row insert failing removes the blob again.
func (s *FileService) Upload(ctx context.Context, actor *models.JWTClaims, req UploadRequest) (*models.File, error) {
	set, err := s.findSet(ctx, req.QuestionSetID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	if req.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if req.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(req.MimeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed: "+req.MimeType)
	}

	fileID := uuid.NewString()
	relPath := filepath.Join(req.QuestionSetID, fileID+filepath.Ext(req.Filename))

	written, err := s.storage.SaveStream(relPath, io.LimitReader(req.Body, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	if written > s.cfg.MaxFileSizeBytes {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}

	file := &models.File{
		ID:            fileID,
		QuestionSetID: req.QuestionSetID,
		Name:          filepath.Base(req.Filename),
		Path:          relPath,
		Size:          written,
		MimeType:      req.MimeType,
		UploadedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		if cleanupErr := s.storage.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to clean up blob after insert failure", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record file")
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID),
		zap.String("question_set_id", req.QuestionSetID),
		zap.Int64("size", written))
	return file, nil
}

// ListBySet returns the files attached to a question set.
func (s *FileService) ListBySet(ctx context.Context, actor *models.JWTClaims, questionSetID string) ([]models.File, error) {
	set, err := s.findSet(ctx, questionSetID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}
	files, err := s.repo.ListBySet(ctx, questionSetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files")
	}
	return files, nil
}

// DownloadLink issues a signed, expiring token for fetching the file.
func (s *FileService) DownloadLink(ctx context.Context, actor *models.JWTClaims, fileID string) (*DownloadLink, error) {
	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	set, err := s.findSet(ctx, file.QuestionSetID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	token, expiresAt, err := s.signer.Generate(file.ID, file.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &DownloadLink{FileID: file.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenByToken validates a signed token and returns the file row plus an open
// blob handle. Token-bearing requests need no JWT.
func (s *FileService) OpenByToken(ctx context.Context, token string) (*models.File, *os.File, error) {
	fileID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file.Path != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	handle, err := s.storage.Open(file.Path)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return file, handle, nil
}

// Delete removes the file row and its blob.
func (s *FileService) Delete(ctx context.Context, actor *models.JWTClaims, fileID string) error {
	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return err
	}
	set, err := s.findSet(ctx, file.QuestionSetID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return appErrors.ErrForbidden
	}

	if err := s.repo.Delete(ctx, fileID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file")
	}
	if err := s.storage.Delete(file.Path); err != nil {
		s.logger.Warn("failed to remove file blob", zap.String("path", file.Path), zap.Error(err))
	}
	return nil
}

func (s *FileService) mimeAllowed(mime string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

func (s *FileService) findSet(ctx context.Context, id string) (*models.QuestionSet, error) {
	set, err := s.sets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question set not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch question set")
	}
	return set, nil
}

func (s *FileService) findFile(ctx context.Context, id string) (*models.File, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch file")
	}
	return file, nil
}
