package usecase

import (
	"context"
	"fmt"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/dto/request"
	"cinema-reviews/internal/dto/response"
	"cinema-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewPage = response.PaginatedResponse[response.ReviewResponse]

// ListingService serves the three review listings: public, own and the
// moderation queue.
type ListingService interface {
	ListPublic(ctx context.Context, viewer Principal, query *request.ReviewListQuery) (*ReviewPage, error)
	ListOwn(ctx context.Context, actor Identity, query *request.ReviewListQuery) (*ReviewPage, error)
	ListModeration(ctx context.Context, actor Identity, page *request.PaginatedRequest) (*ReviewPage, error)
}

type listingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewListingService(repo *repository.Repository, log *zap.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log.With(zap.String("service", "listing")),
	}
}

func (s *listingService) ListPublic(ctx context.Context, viewer Principal, query *request.ReviewListQuery) (*ReviewPage, error) {
	q, err := s.validQuery(query)
	if err != nil {
		return nil, err
	}

	approved := entity.StatusApproved
	filter := sortedFilter(q)
	filter.Status = &approved
	filter.AuthorID = q.AuthorID

	return s.list(ctx, viewer, filter, q.PaginatedRequest, true)
}

func (s *listingService) ListOwn(ctx context.Context, actor Identity, query *request.ReviewListQuery) (*ReviewPage, error) {
	q, err := s.validQuery(query)
	if err != nil {
		return nil, err
	}

	owner := actor.UserID
	filter := sortedFilter(q)
	filter.AuthorID = &owner

	return s.list(ctx, actor, filter, q.PaginatedRequest, true)
}

func (s *listingService) ListModeration(ctx context.Context, actor Identity, page *request.PaginatedRequest) (*ReviewPage, error) {
	if _, err := RequireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(page); len(errs) > 0 {
		return nil, validationError(errs)
	}

	pending := entity.StatusPending
	filter := repository.ReviewFilter{
		Status:     &pending,
		SortBy:     repository.SortByCreatedAt,
		Descending: true,
	}

	return s.list(ctx, actor, filter, *page, false)
}

func (s *listingService) validQuery(query *request.ReviewListQuery) (request.ReviewListQuery, error) {
	q := query.WithDefaults()
	if errs := utils.ValidateStruct(q); len(errs) > 0 {
		s.log.Warn("Listing query validation failed", zap.Any("errors", errs))
		return q, validationError(errs)
	}
	return q, nil
}

func sortedFilter(q request.ReviewListQuery) repository.ReviewFilter {
	sortBy := repository.SortByCreatedAt
	if q.Sort == request.SortLikes {
		sortBy = repository.SortByLikes
	}
	return repository.ReviewFilter{
		Search:     q.Search,
		SortBy:     sortBy,
		Descending: q.Order != request.OrderAsc,
	}
}

// list runs the count and page queries and projects rows. withLikes adds
// is_liked for signed-in viewers.
func (s *listingService) list(ctx context.Context, viewer Principal, filter repository.ReviewFilter, page request.PaginatedRequest, withLikes bool) (*ReviewPage, error) {
	total, err := s.repo.Review.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	var rows []*entity.ReviewWithAuthor
	if utils.PageInRange(page.Page, page.Limit, total) {
		rows, err = s.repo.Review.FindAll(ctx, filter, page.Limit, page.Offset())
		if err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
	}

	var liked map[uuid.UUID]bool
	userID, signedIn := viewerID(viewer)
	if withLikes && signedIn && len(rows) > 0 {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		liked, err = s.repo.Like.LikedReviewIDs(ctx, userID, ids)
		if err != nil {
			return nil, fmt.Errorf("load likes: %w", err)
		}
	}

	items := make([]response.ReviewResponse, 0, len(rows))
	for _, row := range rows {
		var isLiked *bool
		if withLikes && signedIn {
			v := liked[row.ID]
			isLiked = &v
		}
		items = append(items, response.ReviewToResponse(row, isLiked))
	}

	return response.NewPaginatedResponse(items, page.Page, page.Limit, total), nil
}
