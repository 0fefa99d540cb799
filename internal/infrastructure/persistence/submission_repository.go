package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubmissionRepository implements trade.SubmissionRepository using GORM
type GormSubmissionRepository struct {
	db *gorm.DB
}

// NewGormSubmissionRepository creates a new GormSubmissionRepository
func NewGormSubmissionRepository(db *gorm.DB) *GormSubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

// Save inserts or updates a ledger entry
func (r *GormSubmissionRepository) Save(ctx context.Context, submission *trade.OrderSubmission) error {
	if submission == nil {
		return errors.New("submission is nil")
	}
	model := models.OrderSubmissionModelFromDomain(submission)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByID finds a ledger entry by ID
func (r *GormSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.OrderSubmission, error) {
	var model models.OrderSubmissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists ledger entries, newest first
func (r *GormSubmissionRepository) FindAll(ctx context.Context, filter trade.SubmissionFilter) (shared.Paginated[*trade.OrderSubmission], error) {
	filter.Filter = filter.Filter.Normalize()
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return shared.Paginated[*trade.OrderSubmission]{}, err
	}

	var rows []models.OrderSubmissionModel
	if err := r.scoped(ctx, filter).
		Order("submitted_at DESC").
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return shared.Paginated[*trade.OrderSubmission]{}, err
	}

	items := make([]*trade.OrderSubmission, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (r *GormSubmissionRepository) scoped(ctx context.Context, filter trade.SubmissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.OrderSubmissionModel{})
	if filter.Environment != "" {
		query = query.Where("environment = ?", filter.Environment)
	}
	if filter.User != "" {
		query = query.Where("sap_user = ?", filter.User)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	return query
}

// Ensure GormSubmissionRepository implements trade.SubmissionRepository
var _ trade.SubmissionRepository = (*GormSubmissionRepository)(nil)
