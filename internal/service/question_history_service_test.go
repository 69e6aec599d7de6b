package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

type mockHistoryRepo struct {
	entries []models.QuestionHistory
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *models.QuestionHistory) error {
	entry.ID = uuid.NewString()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) List(_ context.Context, filter models.QuestionHistoryFilter) ([]models.QuestionHistory, int, error) {
	var out []models.QuestionHistory
	for _, entry := range m.entries {
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		if filter.QuestionSetID != "" && entry.QuestionSetID != filter.QuestionSetID {
			continue
		}
		out = append(out, entry)
	}
	return out, len(out), nil
}

func newHistoryFixture(t *testing.T, sets ...string) (*QuestionHistoryService, *mockHistoryRepo) {
	t.Helper()
	existing := make(map[string]bool, len(sets))
	for _, id := range sets {
		existing[id] = true
	}
	repo := &mockHistoryRepo{}
	svc := NewQuestionHistoryService(repo, &mockSetChecker{existing: existing}, zap.NewNop())
	return svc, repo
}

func TestQuestionHistoryServiceRecord(t *testing.T) {
	svc, repo := newHistoryFixture(t, "set-1")

	score := 87.5
	entry, err := svc.Record(context.Background(), lecturerClaims("user-1"), HistoryRequest{
		QuestionSetID: "set-1",
		Score:         &score,
		Notes:         "  midterm dry run  ",
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", entry.UserID)
	require.Equal(t, "midterm dry run", entry.Notes)
	require.Equal(t, 87.5, *entry.Score)
	require.Len(t, repo.entries, 1)
}

func TestQuestionHistoryServiceRecordUnknownSet(t *testing.T) {
	svc, repo := newHistoryFixture(t)

	_, err := svc.Record(context.Background(), lecturerClaims("user-1"), HistoryRequest{QuestionSetID: "missing"})
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.entries)
}

func TestQuestionHistoryServiceRecordScoreOutOfRange(t *testing.T) {
	svc, repo := newHistoryFixture(t, "set-1")

	score := 142.0
	_, err := svc.Record(context.Background(), lecturerClaims("user-1"), HistoryRequest{
		QuestionSetID: "set-1",
		Score:         &score,
	})
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.entries)
}

func TestQuestionHistoryServiceListPinnedToOwner(t *testing.T) {
	svc, repo := newHistoryFixture(t, "set-1")
	repo.entries = []models.QuestionHistory{
		{ID: "h1", UserID: "user-1", QuestionSetID: "set-1"},
		{ID: "h2", UserID: "user-2", QuestionSetID: "set-1"},
	}

	// A non-admin asking for someone else's history still gets their own.
	own, _, err := svc.List(context.Background(), lecturerClaims("user-1"), models.QuestionHistoryFilter{UserID: "user-2"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "user-1", own[0].UserID)

	all, _, err := svc.List(context.Background(), adminClaims(), models.QuestionHistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
