package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/dto/request"
	"cinema-reviews/internal/dto/response"
	"cinema-reviews/pkg/apperror"
	"cinema-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService owns the review lifecycle: submission, edits, moderation,
// deletion and likes.
type ReviewService interface {
	CreateReview(ctx context.Context, actor Identity, req *request.ReviewRequest) (*response.ReviewResponse, error)
	// GetReview hides non-approved reviews from everyone but the owner and
	// admins, reporting NotFound rather than Forbidden.
	GetReview(ctx context.Context, viewer Principal, id uuid.UUID) (*response.ReviewResponse, error)
	// UpdateReview replaces the content and sends the review back to
	// pending. Likes are kept.
	UpdateReview(ctx context.Context, actor Identity, id uuid.UUID, req *request.ReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor Identity, id uuid.UUID) error

	ApproveReview(ctx context.Context, actor Identity, id uuid.UUID) (*response.ReviewResponse, error)
	RejectReview(ctx context.Context, actor Identity, id uuid.UUID) (*response.ReviewResponse, error)

	// ToggleLike adds the actor's like or takes it back, keeping the
	// review's counter equal to its like rows.
	ToggleLike(ctx context.Context, actor Identity, id uuid.UUID) (*response.LikeToggleResponse, error)
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actor Identity, req *request.ReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		UserID:     actor.UserID,
		Title:      req.Title,
		MovieTitle: req.MovieTitle,
		Content:    req.Content,
		Status:     entity.StatusPending,
		Likes:      0,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		return nil, storeError(err, "create review")
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", actor.UserID.String()))

	liked := false
	resp := response.ReviewToResponse(&entity.ReviewWithAuthor{Review: *review, AuthorUsername: actor.Username}, &liked)
	return &resp, nil
}

func (s *reviewService) GetReview(ctx context.Context, viewer Principal, id uuid.UUID) (*response.ReviewResponse, error) {
	review, err := s.repo.Review.FindWithAuthor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil || !canSee(viewer, &review.Review) {
		return nil, apperror.NotFound("review not found")
	}

	isLiked, err := s.likedBy(ctx, viewer, review.ID)
	if err != nil {
		return nil, err
	}

	resp := response.ReviewToResponse(review, isLiked)
	return &resp, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, actor Identity, id uuid.UUID, req *request.ReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update review validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		review, err := tx.Review.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find review: %w", err)
		}
		if review == nil {
			return apperror.NotFound("review not found")
		}
		if !review.IsOwnedBy(actor.UserID) {
			return apperror.Forbidden("you can only edit your own reviews")
		}

		status, err := entity.Transition(review.Status, entity.ActionResubmit)
		if err != nil {
			return fmt.Errorf("resubmit review: %w", err)
		}

		review.Title = req.Title
		review.MovieTitle = req.MovieTitle
		review.Content = req.Content
		review.Status = status

		if err := tx.Review.UpdateContent(ctx, review); err != nil {
			return storeError(err, "update review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Review updated", zap.String("review_id", id.String()))

	return s.GetReview(ctx, actor, id)
}

func (s *reviewService) DeleteReview(ctx context.Context, actor Identity, id uuid.UUID) error {
	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return apperror.NotFound("review not found")
	}
	if !review.IsOwnedBy(actor.UserID) {
		return apperror.Forbidden("you can only delete your own reviews")
	}

	if err := s.repo.Review.Delete(ctx, id); err != nil {
		return storeError(err, "delete review")
	}

	s.log.Info("Review deleted",
		zap.String("review_id", id.String()),
		zap.String("user_id", actor.UserID.String()))
	return nil
}

func (s *reviewService) ApproveReview(ctx context.Context, actor Identity, id uuid.UUID) (*response.ReviewResponse, error) {
	return s.moderate(ctx, actor, id, entity.ActionApprove)
}

func (s *reviewService) RejectReview(ctx context.Context, actor Identity, id uuid.UUID) (*response.ReviewResponse, error) {
	return s.moderate(ctx, actor, id, entity.ActionReject)
}

// moderate checks role, then existence, then the transition.
func (s *reviewService) moderate(ctx context.Context, actor Identity, id uuid.UUID, action entity.ReviewAction) (*response.ReviewResponse, error) {
	if _, err := RequireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		review, err := tx.Review.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find review: %w", err)
		}
		if review == nil {
			return apperror.NotFound("review not found")
		}

		status, err := entity.Transition(review.Status, action)
		if err != nil {
			var illegal *entity.ErrIllegalTransition
			if errors.As(err, &illegal) {
				return apperror.Wrap(err, apperror.KindInvalidState, "review has already been processed")
			}
			return fmt.Errorf("%s review: %w", action, err)
		}

		if err := tx.Review.UpdateStatus(ctx, id, status); err != nil {
			return storeError(err, "update review status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Review moderated",
		zap.String("review_id", id.String()),
		zap.String("action", string(action)),
		zap.String("admin_id", actor.UserID.String()))

	review, err := s.repo.Review.FindWithAuthor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("review not found")
	}

	resp := response.ReviewToResponse(review, nil)
	return &resp, nil
}

func (s *reviewService) ToggleLike(ctx context.Context, actor Identity, id uuid.UUID) (*response.LikeToggleResponse, error) {
	result, err := s.toggleLike(ctx, actor, id)
	if apperror.KindOf(err) == apperror.KindConflict {
		// A concurrent toggle by the same user inserted the row first; the
		// like exists, so report it as liked.
		s.log.Debug("Like insert lost a race",
			zap.String("review_id", id.String()),
			zap.String("user_id", actor.UserID.String()))
		return s.currentLike(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("Like toggled",
		zap.String("review_id", id.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Bool("is_liked", result.IsLiked),
		zap.Int("likes", result.Likes))
	return result, nil
}

func (s *reviewService) toggleLike(ctx context.Context, actor Identity, id uuid.UUID) (*response.LikeToggleResponse, error) {
	var result response.LikeToggleResponse

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		review, err := tx.Review.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find review: %w", err)
		}
		if review == nil {
			return apperror.NotFound("review not found")
		}
		if review.Status != entity.StatusApproved {
			return apperror.InvalidState("only approved reviews can be liked")
		}

		existing, err := tx.Like.Find(ctx, actor.UserID, id)
		if err != nil {
			return fmt.Errorf("find like: %w", err)
		}

		if existing != nil {
			if err := tx.Like.Delete(ctx, actor.UserID, id); err != nil {
				return storeError(err, "delete like")
			}
			likes, err := tx.Review.AdjustLikes(ctx, id, -1)
			if err != nil {
				return storeError(err, "decrement likes")
			}
			result = response.LikeToggleResponse{Likes: likes, IsLiked: false}
			return s.checkLikeCounter(ctx, tx, id, likes)
		}

		like := &entity.Like{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: s.now()},
			UserID:     actor.UserID,
			ReviewID:   id,
		}
		if err := tx.Like.Create(ctx, like); err != nil {
			return storeError(err, "create like")
		}
		likes, err := tx.Review.AdjustLikes(ctx, id, 1)
		if err != nil {
			return storeError(err, "increment likes")
		}
		result = response.LikeToggleResponse{Likes: likes, IsLiked: true}
		return s.checkLikeCounter(ctx, tx, id, likes)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// checkLikeCounter fails the transaction when the counter no longer matches
// the like rows, so a drifted counter is never committed.
func (s *reviewService) checkLikeCounter(ctx context.Context, tx *repository.Repository, id uuid.UUID, likes int) error {
	rows, err := tx.Like.CountByReview(ctx, id)
	if err != nil {
		return fmt.Errorf("count likes: %w", err)
	}
	if rows != int64(likes) {
		s.log.Error("Like counter out of sync",
			zap.String("review_id", id.String()),
			zap.Int("likes", likes),
			zap.Int64("rows", rows))
		return fmt.Errorf("like counter out of sync on review %s: counter %d, rows %d", id, likes, rows)
	}
	return nil
}

func (s *reviewService) currentLike(ctx context.Context, id uuid.UUID) (*response.LikeToggleResponse, error) {
	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("review not found")
	}
	return &response.LikeToggleResponse{Likes: review.Likes, IsLiked: true}, nil
}

// likedBy is nil for anonymous viewers.
func (s *reviewService) likedBy(ctx context.Context, viewer Principal, reviewID uuid.UUID) (*bool, error) {
	userID, ok := viewerID(viewer)
	if !ok {
		return nil, nil
	}

	like, err := s.repo.Like.Find(ctx, userID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	liked := like != nil
	return &liked, nil
}
