package request

import "cinema-reviews/pkg/utils"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type PaginatedRequest struct {
	Page  int `json:"page" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

func NewPaginatedRequest() PaginatedRequest {
	return PaginatedRequest{Page: DefaultPage, Limit: DefaultLimit}
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.Limit)
}
