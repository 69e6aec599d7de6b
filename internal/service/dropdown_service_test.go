package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
)

type countingOptionLister struct {
	options []models.TagOption
	calls   int
}

func (l *countingOptionLister) ListOptions(_ context.Context) ([]models.TagOption, error) {
	l.calls++
	return l.options, nil
}

func TestDropdownServiceOptionsWithoutCache(t *testing.T) {
	courses := &countingOptionLister{options: []models.TagOption{{ID: "c1", Name: "Calculus"}}}
	materials := &countingOptionLister{options: []models.TagOption{{ID: "m1", Name: "Limits"}}}
	svc := NewDropdownService(courses, materials, nil, time.Minute, zap.NewNop())

	options, err := svc.Options(context.Background())
	require.NoError(t, err)
	require.Len(t, options.CourseTags, 1)
	require.Len(t, options.MaterialTags, 1)
	require.Equal(t, "Calculus", options.CourseTags[0].Name)

	// Without a cache every call hits the repositories.
	_, err = svc.Options(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, courses.calls)
	require.Equal(t, 2, materials.calls)
}

func TestDropdownServiceInvalidateWithoutCache(t *testing.T) {
	svc := NewDropdownService(&countingOptionLister{}, &countingOptionLister{}, nil, time.Minute, zap.NewNop())

	// Must not panic when no cache is wired.
	svc.Invalidate(context.Background())
}

func TestDropdownServiceNilReceiverInvalidate(t *testing.T) {
	var svc *DropdownService
	svc.Invalidate(context.Background())
}
