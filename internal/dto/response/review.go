package response

import (
	"time"

	"cinema-reviews/internal/data/entity"
)

type AuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ReviewResponse leaves is_liked out when nobody is signed in and in the
// moderation queue.
type ReviewResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	MovieTitle string              `json:"movie_title"`
	Content    string              `json:"content"`
	Status     entity.ReviewStatus `json:"status"`
	Likes      int                 `json:"likes"`
	CreatedAt  time.Time           `json:"created_at"`
	Author     AuthorResponse      `json:"author"`
	IsLiked    *bool               `json:"is_liked,omitempty"`
}

type LikeToggleResponse struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"is_liked"`
}

func ReviewToResponse(review *entity.ReviewWithAuthor, isLiked *bool) ReviewResponse {
	return ReviewResponse{
		ID:         review.ID.String(),
		Title:      review.Title,
		MovieTitle: review.MovieTitle,
		Content:    review.Content,
		Status:     review.Status,
		Likes:      review.Likes,
		CreatedAt:  review.CreatedAt,
		Author: AuthorResponse{
			ID:       review.UserID.String(),
			Username: review.AuthorUsername,
		},
		IsLiked: isLiked,
	}
}
