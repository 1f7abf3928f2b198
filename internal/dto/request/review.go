package request

import "github.com/google/uuid"

// ReviewRequest is the body of both create and edit.
type ReviewRequest struct {
	Title      string `json:"title" validate:"required,min=5,max=100"`
	MovieTitle string `json:"movie_title" validate:"required,min=1,max=100"`
	Content    string `json:"content" validate:"required,min=100,max=5000"`
}

const (
	SortCreatedAt = "created_at"
	SortLikes     = "likes"
	OrderAsc      = "asc"
	OrderDesc     = "desc"
)

// ReviewListQuery holds the query string of the public and own listings.
type ReviewListQuery struct {
	PaginatedRequest
	Sort     string     `json:"sort" validate:"omitempty,oneof=created_at likes"`
	Order    string     `json:"order" validate:"omitempty,oneof=asc desc"`
	Search   string     `json:"search" validate:"omitempty,min=2,max=50"`
	AuthorID *uuid.UUID `json:"author_id"`
}

// WithDefaults fills sort and order when the client left them out.
func (q ReviewListQuery) WithDefaults() ReviewListQuery {
	if q.Sort == "" {
		q.Sort = SortCreatedAt
	}
	if q.Order == "" {
		q.Order = OrderDesc
	}
	return q
}
