package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
)

// SubmissionService reads the order submission ledger
type SubmissionService struct {
	repo trade.SubmissionRepository
}

// NewSubmissionService creates a new SubmissionService. With a nil repo the
// ledger is disabled: List returns an empty page and Get finds nothing.
func NewSubmissionService(repo trade.SubmissionRepository) *SubmissionService {
	return &SubmissionService{repo: repo}
}

// List returns one page of submissions matching the filter
func (s *SubmissionService) List(ctx context.Context, filter trade.SubmissionFilter) (shared.Paginated[SubmissionResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	if filter.Status != "" && filter.Status != trade.SubmissionCreated && filter.Status != trade.SubmissionFailed {
		return shared.Paginated[SubmissionResponse]{}, shared.NewDomainError("INVALID_STATUS", "Status must be created or failed")
	}

	if s.repo == nil {
		return shared.NewPaginated([]SubmissionResponse{}, 0, filter.Page, filter.PageSize), nil
	}

	page, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[SubmissionResponse]{}, err
	}

	items := make([]SubmissionResponse, 0, len(page.Items))
	for _, sub := range page.Items {
		items = append(items, ToSubmissionResponse(sub))
	}
	return shared.NewPaginated(items, page.Total, filter.Page, filter.PageSize), nil
}

// Get returns one submission. Submissions of another environment are
// reported as not found.
func (s *SubmissionService) Get(ctx context.Context, environment string, id uuid.UUID) (*SubmissionResponse, error) {
	if s.repo == nil {
		return nil, shared.ErrNotFound
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Environment != environment {
		return nil, shared.ErrNotFound
	}
	resp := ToSubmissionResponse(sub)
	return &resp, nil
}
