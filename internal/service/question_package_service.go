package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/export"
)

// QuestionPackageRepository defines persistence needed by the package service.
type QuestionPackageRepository interface {
	CreateWithItems(ctx context.Context, pkg *models.QuestionPackage, questionSetIDs []string) error
	FindByID(ctx context.Context, id string) (*models.QuestionPackage, error)
	List(ctx context.Context, filter models.QuestionPackageFilter) ([]models.QuestionPackage, int, error)
	ListItems(ctx context.Context, packageID string) ([]models.QuestionPackageItem, error)
	AddItem(ctx context.Context, packageID, questionSetID string) (*models.QuestionPackageItem, error)
	RemoveItem(ctx context.Context, packageID, itemID string) (bool, error)
	Update(ctx context.Context, pkg *models.QuestionPackage) error
	Delete(ctx context.Context, id string) error
}

// QuestionPackageRequest carries a package create payload. Question set ids
// are stored in submitted order.
type QuestionPackageRequest struct {
	Name           string   `json:"name" validate:"required,max=255"`
	CourseID       string   `json:"course_id" validate:"required"`
	QuestionSetIDs []string `json:"question_set_ids" validate:"required,min=1,dive,required"`
}

// QuestionPackageUpdateRequest carries mutable package metadata.
type QuestionPackageUpdateRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	CourseID string `json:"course_id" validate:"required"`
}

// QuestionPackageService manages exam packages, their ordered items and
// manifest exports.
type QuestionPackageService struct {
	repo       QuestionPackageRepository
	courseTags TagLookup
	sets       SetExistenceChecker
	pdf        *export.PDFExporter
	csv        *export.CSVExporter
	logger     *zap.Logger
	validate   *validator.Validate
}

// NewQuestionPackageService creates a QuestionPackageService.
func NewQuestionPackageService(repo QuestionPackageRepository, courseTags TagLookup, sets SetExistenceChecker, logger *zap.Logger) *QuestionPackageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionPackageService{
		repo:       repo,
		courseTags: courseTags,
		sets:       sets,
		pdf:        export.NewPDFExporter(),
		csv:        export.NewCSVExporter(),
		logger:     logger,
		validate:   validator.New(),
	}
}

// Create builds a package and its items in one transaction. The course tag
// and every referenced question set must exist; duplicate set ids in one
// request are rejected.
func (s *QuestionPackageService) Create(ctx context.Context, actor *models.JWTClaims, req QuestionPackageRequest) (*models.QuestionPackage, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, course_id and at least one question set are required")
	}

	if _, err := s.courseTags.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course tag not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course tag")
	}

	seen := make(map[string]bool, len(req.QuestionSetIDs))
	for _, setID := range req.QuestionSetIDs {
		if seen[setID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate question set in package: "+setID)
		}
		seen[setID] = true

		exists, err := s.sets.Exists(ctx, setID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check question set")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question set not found: "+setID)
		}
	}

	pkg := &models.QuestionPackage{Name: req.Name, CourseID: req.CourseID, CreatedBy: actor.UserID}
	if err := s.repo.CreateWithItems(ctx, pkg, req.QuestionSetIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create package")
	}

	s.logger.Info("package created", zap.String("package_id", pkg.ID), zap.Int("items", len(pkg.Items)))
	return pkg, nil
}

// List returns packages the actor may see. Admins see all packages,
// everyone else only their own.
func (s *QuestionPackageService) List(ctx context.Context, actor *models.JWTClaims, filter models.QuestionPackageFilter) ([]models.QuestionPackage, *models.Pagination, error) {
	if !actor.IsAdmin() {
		filter.CreatedBy = actor.UserID
	}
	packages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list packages")
	}
	return packages, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one package with its items in position order.
func (s *QuestionPackageService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.QuestionPackage, error) {
	pkg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(pkg.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}
	if pkg.Items, err = s.repo.ListItems(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package items")
	}
	return pkg, nil
}

// Update changes package metadata. A new course tag must exist.
func (s *QuestionPackageService) Update(ctx context.Context, actor *models.JWTClaims, id string, req QuestionPackageUpdateRequest) (*models.QuestionPackage, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and course_id are required")
	}

	pkg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(pkg.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	if req.CourseID != pkg.CourseID {
		if _, err := s.courseTags.FindByID(ctx, req.CourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course tag not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course tag")
		}
	}

	pkg.Name = req.Name
	pkg.CourseID = req.CourseID
	if err := s.repo.Update(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update package")
	}
	return pkg, nil
}

// Delete removes a package and its items.
func (s *QuestionPackageService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	pkg, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(pkg.CreatedBy) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete package")
	}
	s.logger.Info("package deleted", zap.String("package_id", id))
	return nil
}

// AddItem appends one question set to the end of the package.
func (s *QuestionPackageService) AddItem(ctx context.Context, actor *models.JWTClaims, packageID, questionSetID string) (*models.QuestionPackageItem, error) {
	pkg, err := s.find(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(pkg.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	exists, err := s.sets.Exists(ctx, questionSetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check question set")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question set not found")
	}

	items, err := s.repo.ListItems(ctx, packageID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package items")
	}
	for _, item := range items {
		if item.QuestionSetID == questionSetID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "question set is already in the package")
		}
	}

	item, err := s.repo.AddItem(ctx, packageID, questionSetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add package item")
	}
	return item, nil
}

// RemoveItem deletes one item from the package.
func (s *QuestionPackageService) RemoveItem(ctx context.Context, actor *models.JWTClaims, packageID, itemID string) error {
	pkg, err := s.find(ctx, packageID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(pkg.CreatedBy) {
		return appErrors.ErrForbidden
	}

	removed, err := s.repo.RemoveItem(ctx, packageID, itemID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove package item")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "package item not found")
	}
	return nil
}

// ExportPDF renders the package manifest as a printable PDF.
func (s *QuestionPackageService) ExportPDF(ctx context.Context, actor *models.JWTClaims, id string) ([]byte, string, error) {
	pkg, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.pdf.Render(manifestDataset(pkg), pkg.Name,
		"Course: "+pkg.CourseName,
		fmt.Sprintf("Question sets: %d", len(pkg.Items)))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, exportFilename(pkg.Name, "pdf"), nil
}

// ExportCSV renders the package manifest as CSV.
func (s *QuestionPackageService) ExportCSV(ctx context.Context, actor *models.JWTClaims, id string) ([]byte, string, error) {
	pkg, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.csv.Render(manifestDataset(pkg))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, exportFilename(pkg.Name, "csv"), nil
}

func (s *QuestionPackageService) find(ctx context.Context, id string) (*models.QuestionPackage, error) {
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch package")
	}
	return pkg, nil
}

func manifestDataset(pkg *models.QuestionPackage) export.Dataset {
	rows := make([]map[string]string, 0, len(pkg.Items))
	for _, item := range pkg.Items {
		rows = append(rows, map[string]string{
			"No":           strconv.Itoa(item.Position + 1),
			"Question Set": item.QuestionSetTitle,
			"Set ID":       item.QuestionSetID,
		})
	}
	return export.Dataset{Headers: []string{"No", "Question Set", "Set ID"}, Rows: rows}
}

func exportFilename(name, ext string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, name)
	if slug == "" {
		slug = "package"
	}
	return slug + "." + ext
}
