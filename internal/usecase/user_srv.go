package usecase

import (
	"context"
	"fmt"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/dto/response"
	"cinema-reviews/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*response.PublicUserResponse, error)
	// DeleteUser removes an account with its reviews and likes. Admin only.
	DeleteUser(ctx context.Context, actor Identity, id uuid.UUID) error
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetUser(ctx context.Context, id uuid.UUID) (*response.PublicUserResponse, error) {
	user, err := us.repo.User.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", id.String()))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	resp := response.UserToPublicResponse(user)
	return &resp, nil
}

func (us *userService) DeleteUser(ctx context.Context, actor Identity, id uuid.UUID) error {
	if _, err := RequireRole(actor, entity.RoleAdmin); err != nil {
		return err
	}
	if actor.UserID == id {
		return apperror.Forbidden("administrators cannot delete their own account")
	}

	err := us.repo.WithTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		// Locked first so no like by this user can commit between the
		// counter release below and the cascade.
		user, err := tx.User.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if user == nil {
			return apperror.NotFound("user not found")
		}

		// The cascade drops this user's likes on other reviews; their
		// counters have to follow.
		liked, err := tx.Like.ReviewIDsByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("list likes: %w", err)
		}
		for _, reviewID := range liked {
			if _, err := tx.Review.AdjustLikes(ctx, reviewID, -1); err != nil {
				return storeError(err, "release like")
			}
		}

		if err := tx.User.Delete(ctx, id); err != nil {
			return storeError(err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	us.log.Info("User deleted by admin",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actor.UserID.String()))
	return nil
}
