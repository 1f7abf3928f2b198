package usecase

import (
	"time"

	"cinema-reviews/internal/data/repository"
	"cinema-reviews/pkg/token"
	"cinema-reviews/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Review  ReviewService
	Listing ListingService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger) *Service {
	tokens := token.NewJWT(config.JWT.Secret, time.Duration(config.JWT.ExpiryMinutes)*time.Minute)

	return &Service{
		Auth:    NewAuthService(repo, tokens, log),
		User:    NewUserService(repo, log),
		Review:  NewReviewService(repo, log),
		Listing: NewListingService(repo, log),
	}
}
