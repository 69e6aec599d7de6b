package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sibaso/qbank-api/internal/models"
)

func TestTagRepositoryKinds(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	require.Equal(t, models.TagKindCourse, NewCourseTagRepository(db).Kind())
	require.Equal(t, models.TagKindMaterial, NewMaterialTagRepository(db).Kind())
}

func TestTagRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseTagRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_tags")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tag := &models.Tag{Name: "Calculus"}
	require.NoError(t, repo.Create(context.Background(), tag))
	require.NotEmpty(t, tag.ID)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM course_tags WHERE id = $1")).
		WithArgs(tag.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(tag.ID, "Calculus", now, now))

	found, err := repo.FindByID(context.Background(), tag.ID)
	require.NoError(t, err)
	require.Equal(t, "Calculus", found.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryNameExistsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMaterialTagRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM material_tags WHERE LOWER(name) = LOWER($1)")).
		WithArgs("algebra").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.NameExists(context.Background(), "algebra", "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM material_tags WHERE LOWER(name) = LOWER($1) AND id <> $2")).
		WithArgs("algebra", "tag-1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.NameExists(context.Background(), "algebra", "tag-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryUsageCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	course := NewCourseTagRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM question_course_tags WHERE course_tag_id = $1")).
		WithArgs("tag-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	links, err := course.CountQuestionLinks(context.Background(), "tag-1")
	require.NoError(t, err)
	require.Equal(t, 3, links)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM question_packages WHERE course_id = $1")).
		WithArgs("tag-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	pkgs, err := course.CountPackages(context.Background(), "tag-1")
	require.NoError(t, err)
	require.Equal(t, 2, pkgs)

	// Material tags are never package-scoped, so no query is issued.
	material := NewMaterialTagRepository(db)
	pkgs, err = material.CountPackages(context.Background(), "tag-2")
	require.NoError(t, err)
	require.Zero(t, pkgs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryListOptions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseTagRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM course_tags ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("tag-1", "Algebra").
			AddRow("tag-2", "Calculus"))

	options, err := repo.ListOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)
	require.Equal(t, "Algebra", options[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
