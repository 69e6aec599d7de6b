package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sibaso/qbank-api/internal/models"
)

func TestQuestionHistoryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_histories")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := 92.5
	entry := &models.QuestionHistory{
		UserID:        "user-1",
		QuestionSetID: "set-1",
		Score:         &score,
		Notes:         "practice run",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionHistoryRepositoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionHistoryRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM question_histories WHERE 1=1 AND user_id = $1 AND question_set_id = $2")).
		WithArgs("user-1", "set-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "question_set_id", "score", "notes", "created_at"}).
			AddRow("h-2", "user-1", "set-1", 80.0, "", now).
			AddRow("h-1", "user-1", "set-1", nil, "first try", now.Add(-time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1", "set-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	entries, total, err := repo.List(context.Background(), models.QuestionHistoryFilter{UserID: "user-1", QuestionSetID: "set-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 2, total)
	require.Equal(t, "h-2", entries[0].ID)
	require.Nil(t, entries[1].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}
