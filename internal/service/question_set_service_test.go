package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

type mockSetRepo struct {
	sets        map[string]*models.QuestionSet
	blobPaths   map[string][]string
	packageRefs map[string]int
	deleted     []string
}

func newMockSetRepo() *mockSetRepo {
	return &mockSetRepo{
		sets:        make(map[string]*models.QuestionSet),
		blobPaths:   make(map[string][]string),
		packageRefs: make(map[string]int),
	}
}

func (m *mockSetRepo) List(_ context.Context, filter models.QuestionSetFilter) ([]models.QuestionSet, int, error) {
	var out []models.QuestionSet
	for _, set := range m.sets {
		if filter.CreatedBy != "" && set.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, *set)
	}
	return out, len(out), nil
}

func (m *mockSetRepo) FindByID(_ context.Context, id string) (*models.QuestionSet, error) {
	if set, ok := m.sets[id]; ok {
		return set, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSetRepo) Create(_ context.Context, set *models.QuestionSet) error {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	m.sets[set.ID] = set
	return nil
}

func (m *mockSetRepo) Update(_ context.Context, set *models.QuestionSet) error {
	m.sets[set.ID] = set
	return nil
}

func (m *mockSetRepo) Delete(_ context.Context, id string) ([]string, error) {
	delete(m.sets, id)
	m.deleted = append(m.deleted, id)
	return m.blobPaths[id], nil
}

func (m *mockSetRepo) CountPackageItems(_ context.Context, id string) (int, error) {
	return m.packageRefs[id], nil
}

type mockFileLister struct {
	files map[string][]models.File
}

func (m *mockFileLister) ListBySet(_ context.Context, questionSetID string) ([]models.File, error) {
	return m.files[questionSetID], nil
}

type mockBlobRemover struct {
	removed []string
}

func (m *mockBlobRemover) Delete(filename string) error {
	m.removed = append(m.removed, filename)
	return nil
}

func newSetFixture(t *testing.T) (*QuestionSetService, *mockSetRepo, *mockBlobRemover) {
	t.Helper()
	repo := newMockSetRepo()
	blobs := &mockBlobRemover{}
	svc := NewQuestionSetService(repo, &mockFileLister{files: map[string][]models.File{}}, blobs, zap.NewNop())
	return svc, repo, blobs
}

func TestQuestionSetServiceCreateRequiresTitle(t *testing.T) {
	svc, repo, _ := newSetFixture(t)

	_, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "   "})
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.sets)

	set, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "  Algebra Drills  "})
	require.NoError(t, err)
	require.Equal(t, "Algebra Drills", set.Title)
	require.Equal(t, "user-1", set.CreatedBy)
}

func TestQuestionSetServiceOwnerScoping(t *testing.T) {
	svc, _, _ := newSetFixture(t)

	mine, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "Mine"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), lecturerClaims("user-2"), QuestionSetRequest{Title: "Theirs"})
	require.NoError(t, err)

	own, _, err := svc.List(context.Background(), lecturerClaims("user-1"), models.QuestionSetFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, mine.ID, own[0].ID)

	all, _, err := svc.List(context.Background(), adminClaims(), models.QuestionSetFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestQuestionSetServiceForbiddenForNonOwner(t *testing.T) {
	svc, repo, _ := newSetFixture(t)

	set, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "Mine"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), lecturerClaims("user-2"), set.ID, QuestionSetRequest{Title: "Hijacked"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Delete(context.Background(), lecturerClaims("user-2"), set.ID)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	require.Contains(t, repo.sets, set.ID)
	require.Equal(t, "Mine", repo.sets[set.ID].Title)
}

func TestQuestionSetServiceDeleteRestrictedWhilePackaged(t *testing.T) {
	svc, repo, _ := newSetFixture(t)

	set, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "Packaged"})
	require.NoError(t, err)
	repo.packageRefs[set.ID] = 2

	err = svc.Delete(context.Background(), lecturerClaims("user-1"), set.ID)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Contains(t, repo.sets, set.ID)

	repo.packageRefs[set.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), lecturerClaims("user-1"), set.ID))
	require.NotContains(t, repo.sets, set.ID)
}

func TestQuestionSetServiceDeleteRemovesBlobs(t *testing.T) {
	svc, repo, blobs := newSetFixture(t)

	set, err := svc.Create(context.Background(), lecturerClaims("user-1"), QuestionSetRequest{Title: "With Files"})
	require.NoError(t, err)
	repo.blobPaths[set.ID] = []string{set.ID + "/a.pdf", set.ID + "/b.png"}

	require.NoError(t, svc.Delete(context.Background(), lecturerClaims("user-1"), set.ID))
	require.Equal(t, []string{set.ID + "/a.pdf", set.ID + "/b.png"}, blobs.removed)
}

func TestQuestionSetServiceDeleteMissing(t *testing.T) {
	svc, _, _ := newSetFixture(t)

	err := svc.Delete(context.Background(), adminClaims(), "no-such-set")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
