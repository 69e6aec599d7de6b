package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/pkg/config"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/storage"
)

type mockFileRepo struct {
	files map[string]*models.File
}

func (m *mockFileRepo) Create(_ context.Context, file *models.File) error {
	m.files[file.ID] = file
	return nil
}

func (m *mockFileRepo) FindByID(_ context.Context, id string) (*models.File, error) {
	if file, ok := m.files[id]; ok {
		return file, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFileRepo) ListBySet(_ context.Context, questionSetID string) ([]models.File, error) {
	var out []models.File
	for _, file := range m.files {
		if file.QuestionSetID == questionSetID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (m *mockFileRepo) Delete(_ context.Context, id string) error {
	delete(m.files, id)
	return nil
}

func newFileFixture(t *testing.T) (*FileService, *mockFileRepo, *mockSetRepo) {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	repo := &mockFileRepo{files: make(map[string]*models.File)}
	sets := newMockSetRepo()
	sets.sets["set-1"] = &models.QuestionSet{ID: "set-1", Title: "Algebra", CreatedBy: "user-1"}

	signer := storage.NewSignedURLSigner("file-test-secret", time.Minute)
	svc := NewFileService(repo, sets, store, signer, config.UploadsConfig{
		MaxFileSizeBytes: 64,
		AllowedMIMEs:     []string{"application/pdf", "image/png"},
	}, zap.NewNop())
	return svc, repo, sets
}

func uploadReq(body string) UploadRequest {
	return UploadRequest{
		QuestionSetID: "set-1",
		Filename:      "notes.pdf",
		MimeType:      "application/pdf",
		Size:          int64(len(body)),
		Body:          strings.NewReader(body),
	}
}

func TestFileServiceUploadAndDownloadRoundTrip(t *testing.T) {
	svc, _, _ := newFileFixture(t)
	actor := lecturerClaims("user-1")

	file, err := svc.Upload(context.Background(), actor, uploadReq("%PDF-1.4 lecture notes"))
	require.NoError(t, err)
	require.Equal(t, "notes.pdf", file.Name)
	require.Equal(t, int64(len("%PDF-1.4 lecture notes")), file.Size)

	link, err := svc.DownloadLink(context.Background(), actor, file.ID)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
	require.True(t, link.ExpiresAt.After(time.Now()))

	got, handle, err := svc.OpenByToken(context.Background(), link.Token)
	require.NoError(t, err)
	defer handle.Close()
	require.Equal(t, file.ID, got.ID)

	content, err := io.ReadAll(handle)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 lecture notes", string(content))
}

func TestFileServiceUploadRejectsDisallowedMime(t *testing.T) {
	svc, repo, _ := newFileFixture(t)

	req := uploadReq("#!/bin/sh")
	req.Filename = "run.sh"
	req.MimeType = "application/x-sh"

	_, err := svc.Upload(context.Background(), lecturerClaims("user-1"), req)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.files)
}

func TestFileServiceUploadRejectsDeclaredOversize(t *testing.T) {
	svc, repo, _ := newFileFixture(t)

	req := uploadReq("small body")
	req.Size = 4096

	_, err := svc.Upload(context.Background(), lecturerClaims("user-1"), req)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.files)
}

func TestFileServiceUploadEnforcesStreamLimit(t *testing.T) {
	svc, repo, _ := newFileFixture(t)

	// Declared size lies; the stream itself is over the limit.
	req := uploadReq(strings.Repeat("x", 200))
	req.Size = 10

	_, err := svc.Upload(context.Background(), lecturerClaims("user-1"), req)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.files)
}

func TestFileServiceUploadForbiddenForNonOwner(t *testing.T) {
	svc, _, _ := newFileFixture(t)

	_, err := svc.Upload(context.Background(), lecturerClaims("user-2"), uploadReq("data"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestFileServiceOpenByTokenRejectsTampered(t *testing.T) {
	svc, _, _ := newFileFixture(t)
	actor := lecturerClaims("user-1")

	file, err := svc.Upload(context.Background(), actor, uploadReq("payload"))
	require.NoError(t, err)

	link, err := svc.DownloadLink(context.Background(), actor, file.ID)
	require.NoError(t, err)

	_, _, err = svc.OpenByToken(context.Background(), link.Token+"x")
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestFileServiceDeleteRemovesRowAndBlob(t *testing.T) {
	svc, repo, _ := newFileFixture(t)
	actor := lecturerClaims("user-1")

	file, err := svc.Upload(context.Background(), actor, uploadReq("ephemeral"))
	require.NoError(t, err)

	link, err := svc.DownloadLink(context.Background(), actor, file.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), actor, file.ID))
	require.Empty(t, repo.files)

	_, _, err = svc.OpenByToken(context.Background(), link.Token)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
