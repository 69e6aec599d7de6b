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

func TestQuestionPackageRepositoryCreateWithItemsOrdersPositions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_packages")).
		WithArgs(sqlmock.AnyArg(), "Midterm", "course-1", "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	insertItem := regexp.QuoteMeta("INSERT INTO question_package_items")
	mock.ExpectExec(insertItem).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "set-a", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertItem).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "set-b", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertItem).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "set-c", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pkg := &models.QuestionPackage{Name: "Midterm", CourseID: "course-1", CreatedBy: "user-1"}
	err := repo.CreateWithItems(context.Background(), pkg, []string{"set-a", "set-b", "set-c"})
	require.NoError(t, err)
	require.Len(t, pkg.Items, 3)
	for i, item := range pkg.Items {
		require.Equal(t, i, item.Position)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionPackageRepositoryCreateRollsBackOnItemFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_packages")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_package_items")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	pkg := &models.QuestionPackage{Name: "Midterm", CourseID: "course-1", CreatedBy: "user-1"}
	err := repo.CreateWithItems(context.Background(), pkg, []string{"set-a"})
	require.Error(t, err)
	require.Empty(t, pkg.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionPackageRepositoryAddItemAppendsAtNextPosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM question_package_items WHERE question_package_id = $1")).
		WithArgs("pkg-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_package_items")).
		WithArgs(sqlmock.AnyArg(), "pkg-1", "set-z", 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	item, err := repo.AddItem(context.Background(), "pkg-1", "set-z")
	require.NoError(t, err)
	require.Equal(t, 4, item.Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionPackageRepositoryRemoveItem(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)
	deleteSQL := regexp.QuoteMeta("DELETE FROM question_package_items WHERE id = $1 AND question_package_id = $2")

	mock.ExpectExec(deleteSQL).
		WithArgs("item-1", "pkg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.RemoveItem(context.Background(), "pkg-1", "item-1")
	require.NoError(t, err)
	require.True(t, removed)

	mock.ExpectExec(deleteSQL).
		WithArgs("item-9", "pkg-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = repo.RemoveItem(context.Background(), "pkg-1", "item-9")
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionPackageRepositoryListItemsOrderedByPosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY i.position ASC")).
		WithArgs("pkg-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_package_id", "question_set_id", "position", "created_at", "question_set_title"}).
			AddRow("item-1", "pkg-1", "set-a", 0, now, "Chapter 1").
			AddRow("item-2", "pkg-1", "set-b", 1, now, "Chapter 2"))

	items, err := repo.ListItems(context.Background(), "pkg-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Chapter 1", items[0].QuestionSetTitle)
	require.Equal(t, 0, items[0].Position)
	require.Equal(t, 1, items[1].Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionPackageRepositoryDeleteCascadesItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuestionPackageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM question_package_items WHERE question_package_id = $1")).
		WithArgs("pkg-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM question_packages WHERE id = $1")).
		WithArgs("pkg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "pkg-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
